package mqtt

import "errors"

// Sentinel errors returned by Client. Causes from paho are wrapped beneath
// them, so check with errors.Is.
var (
	// ErrNotConnected is returned by Subscribe and Publish while the
	// network connection is closed.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrInvalidBroker is returned by New for an address paho cannot dial.
	ErrInvalidBroker = errors.New("mqtt: invalid broker address")

	// ErrConnectionFailed wraps every Connect failure: refusal, timeout or
	// a cancelled context.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed covers oversize payloads and unacknowledged status publishes.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps a missing handler or a SUBACK that never came.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned for a configured or requested QoS above 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout is wrapped when the broker does not answer within the
	// connect timeout.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
