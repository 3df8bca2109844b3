// Package influxdb records audio bridge telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. The Client
// satisfies bridge.Recorder and is wired in only when influxdb.enabled
// is set.
//
// # Measurements
//
//	bridge_connection  event=state   reason=<why>     connected=<bool>
//	bridge_connection  event=attempt                  ok=<bool>
//	bridge_action      action=<name> topic=<topic> status=ok|error  ok=<bool>
//	bridge_action      action=volume status=applied   percent=<int>
//
// Every point also carries bridge=<client id>.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, mqttClient.ClientID())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) { log.Warn("telemetry write failed", "error", err) })
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval). Batch
// failures are delivered to the SetOnError callback; they never reach the
// bridge itself.
package influxdb
