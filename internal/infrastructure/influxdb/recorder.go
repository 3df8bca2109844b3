package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementConnection = "bridge_connection"
	measurementAction     = "bridge_action"
)

// RecordConnectionState writes a session state transition.
func (c *Client) RecordConnectionState(connected bool, reason string) {
	c.write(connectionStatePoint(connected, reason, time.Now()))
}

// RecordConnectAttempt writes the outcome of one connect/subscribe sequence.
func (c *Client) RecordConnectAttempt(ok bool) {
	c.write(connectAttemptPoint(ok, time.Now()))
}

// RecordAction writes the outcome of one routed message.
func (c *Client) RecordAction(action, topic string, err error) {
	c.write(actionPoint(action, topic, err, time.Now()))
}

// RecordVolume writes an applied volume level.
func (c *Client) RecordVolume(percent int) {
	c.write(volumePoint(percent, time.Now()))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func connectionStatePoint(connected bool, reason string, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementConnection,
		map[string]string{"event": "state", "reason": reason},
		map[string]interface{}{"connected": connected},
		ts,
	)
}

func connectAttemptPoint(ok bool, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementConnection,
		map[string]string{"event": "attempt"},
		map[string]interface{}{"ok": ok},
		ts,
	)
}

func actionPoint(action, topic string, err error, ts time.Time) *write.Point {
	status := "ok"
	if err != nil {
		status = "error"
	}
	return write.NewPoint(
		measurementAction,
		map[string]string{"action": action, "topic": topic, "status": status},
		map[string]interface{}{"ok": err == nil},
		ts,
	)
}

func volumePoint(percent int, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementAction,
		map[string]string{"action": "volume", "status": "applied"},
		map[string]interface{}{"percent": percent},
		ts,
	)
}
