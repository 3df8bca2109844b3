package mqtt

import (
	"crypto/tls"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is used when the config does not set one.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 30 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12

	// clientIDPrefix prefixes generated client identifiers.
	clientIDPrefix = "audiobridge-"
)

// GenerateClientID returns a random client identifier for brokers that
// require one when none is configured.
func GenerateClientID() string {
	return clientIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// buildClientOptions creates paho MQTT options from the bridge config.
//
// This configures:
//   - Broker URL, verbatim from mqtt.broker_address
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Clean session mode
//   - In-order delivery on a single goroutine
//   - TLS for ssl://, tls://, mqtts:// and wss:// brokers
//
// Paho's own reconnect machinery is disabled: the bridge Manager owns
// reconnection so that it can re-issue the full subscription set before the
// session is considered usable.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(cfg.BrokerAddress)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	// Clean session - subscriptions are re-issued on every connect
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	// Messages are handed to handlers one at a time, in arrival order
	opts.SetOrderMatters(true)

	opts.SetConnectTimeout(connectTimeout(cfg))
	opts.SetKeepAlive(defaultKeepAlive)

	if isSecureScheme(cfg.BrokerAddress) {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// configureLWT sets up Last Will and Testament on the status topic.
//
// The broker publishes the will if the bridge disappears without a clean
// disconnect. QoS 1, retained, so late subscribers see the last status.
func configureLWT(opts *pahomqtt.ClientOptions, cfg config.MQTTConfig) {
	opts.SetBinaryWill(cfg.StatusTopic, buildStatusPayload(statusOffline, cfg.ClientID, reasonUnexpected), 1, true)
}

// connectTimeout returns the configured round-trip timeout.
func connectTimeout(cfg config.MQTTConfig) time.Duration {
	if d := cfg.GetConnectTimeout(); d > 0 {
		return d
	}
	return defaultConnectTimeout
}

// isSecureScheme reports whether the broker URL implies TLS.
func isSecureScheme(addr string) bool {
	scheme, _, found := strings.Cut(addr, "://")
	if !found {
		return false
	}
	switch strings.ToLower(scheme) {
	case "ssl", "tls", "mqtts", "wss":
		return true
	default:
		return false
	}
}
