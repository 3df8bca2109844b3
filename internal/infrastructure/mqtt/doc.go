// Package mqtt provides the broker session handle for the audio bridge.
//
// This package manages:
//   - Building a paho client from configuration (URL, auth, TLS)
//   - Connecting and reconnecting the same handle on request
//   - Subscriptions with in-order, panic-safe delivery
//   - Optional retained online/offline status with Last Will
//   - Connection-loss notification to the owner
//
// # Architecture
//
// The client deliberately does not reconnect by itself. The bridge Manager
// owns the session lifecycle and serialises every connect and the
// subscribe sequence that must follow it:
//
//	Broker ↔ mqtt.Client ↔ bridge.Manager ↔ bridge.Router ↔ audio / udp
//
// # Security Considerations
//
//   - Use ssl:// or mqtts:// broker addresses outside the local network
//   - Credentials should come from AUDIOBRIDGE_MQTT_USERNAME/PASSWORD
//
// # Usage
//
//	client, err := mqtt.New(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client.SetOnConnectionLost(func(err error) { ... })
//	if err := client.Connect(ctx); err != nil { ... }
//	err = client.Subscribe(ctx, "audio/volume",
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
package mqtt
