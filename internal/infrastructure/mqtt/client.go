package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang as the bridge's broker session handle.
//
// Unlike a self-healing client, Client never reconnects on its own. It
// reports connection loss through SetOnConnectionLost and leaves recovery,
// including re-subscribing, to its owner.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Connect must not be called concurrently with itself; the owner serialises it.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig
	timeout time.Duration

	// onConnectionLost is invoked on paho's callback goroutine.
	onConnectionLost func(err error)
	callbackMu       sync.RWMutex

	// logger for handler error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers run on paho's delivery goroutine, one message at a time in
// arrival order. Returned errors are logged and never stop delivery.
type MessageHandler func(topic string, payload []byte) error

// New builds a client for the configured broker without connecting.
//
// A missing client ID is replaced by a generated one. When a status topic
// is configured, an offline Last Will is registered on it.
//
// Returns:
//   - *Client: Disconnected client; call Connect to open the session
//   - error: ErrInvalidBroker if the broker address is unusable
func New(cfg config.MQTTConfig) (*Client, error) {
	if err := config.ValidateBrokerAddress(cfg.BrokerAddress); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBroker, err)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = GenerateClientID()
	}

	opts := buildClientOptions(cfg)
	if cfg.StatusTopic != "" {
		configureLWT(opts, cfg)
	}

	c := &Client{
		cfg:     cfg,
		options: opts,
		timeout: connectTimeout(cfg),
	}

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	c.client = pahomqtt.NewClient(opts)
	return c, nil
}

// ClientID returns the identifier presented to the broker.
func (c *Client) ClientID() string {
	return c.cfg.ClientID
}

// Connect opens the session with the broker.
//
// Calling Connect again after a loss reconnects the same handle. Clean
// session is in use, so subscriptions must be re-issued afterwards.
//
// Returns:
//   - error: ErrConnectionFailed wrapping the cause (timeout, refusal, ctx)
func (c *Client) Connect(ctx context.Context) error {
	token := c.client.Connect()
	if err := waitToken(ctx, token, c.timeout); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// handleConnectionLost forwards paho's loss notification to the owner.
func (c *Client) handleConnectionLost(err error) {
	c.callbackMu.RLock()
	callback := c.onConnectionLost
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// Disconnect closes the session without publishing status.
// Used to abandon a half-established session.
func (c *Client) Disconnect() {
	if c.client == nil {
		return
	}
	if c.client.IsConnectionOpen() {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}
}

// Close gracefully disconnects from the MQTT broker.
//
// It performs:
//  1. Publishes graceful offline status (different from LWT crash status)
//  2. Disconnects with a short quiesce period for pending operations
//
// Returns:
//   - error: nil (a connection already closed is not an error)
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishOffline()
	}
	c.Disconnect()

	return nil
}

// IsConnected reports whether the network connection to the broker is open.
func (c *Client) IsConnected() bool {
	if c.client == nil {
		return false
	}
	return c.client.IsConnectionOpen()
}

// SetOnConnectionLost sets the callback invoked when an established session drops.
//
// The callback runs on a paho goroutine. It must return promptly; any
// blocking recovery belongs on a goroutine of its own.
func (c *Client) SetOnConnectionLost(callback func(err error)) {
	c.callbackMu.Lock()
	c.onConnectionLost = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}

// waitToken waits for a paho token to complete, time out, or be cancelled.
func waitToken(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	return token.Error()
}
