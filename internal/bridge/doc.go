// Package bridge is the connection-resilience and message-dispatch core of
// the audio bridge.
//
// # Components
//
//   - Manager owns the broker session: connect, subscribe, loss handling,
//     the blocking retry loop and the single-attempt health probe.
//   - Router maps each topic to exactly one action and decodes its payload.
//   - HealthChecker calls Manager.ProbeAndRecover on a fixed period.
//
// # Concurrency
//
// Two contexts run against the Manager at once: the broker client's
// callback goroutine, which delivers messages and connection-loss
// notifications, and the HealthChecker's timer goroutine. The Manager
// serialises every connect/subscribe sequence behind one mutex. The
// retry loop started by a loss notification runs on its own goroutine and
// sleeps outside the mutex, so neither delivery nor probing waits on it.
//
// A session counts as Connected only after every routed topic is
// subscribed. Messages are dispatched from the moment the session opens,
// so retained messages replayed during the subscription sequence are
// applied. Messages that arrive after a loss, or on a session being torn
// down, are dropped.
//
// # Usage
//
//	router := bridge.NewRouter()
//	router.HandleVolume(cfg.MQTT.TopicVolume, mixer)
//	router.HandleText(cfg.MQTT.TopicMessage, forwarder)
//
//	manager, err := bridge.NewManager(bridge.ManagerConfig{
//	    Session: mqttClient,
//	    Router:  router,
//	})
//	mqttClient.SetOnConnectionLost(manager.OnConnectionLost)
//	if err := manager.Start(ctx); err != nil {
//	    log.Warn("initial connect failed, health probe will retry", "error", err)
//	}
//
//	checker := bridge.NewHealthChecker(manager, 30*time.Second)
//	checker.Start(ctx)
package bridge
