package mqtt

import (
	"context"
	"fmt"
)

// maxStatusPayload bounds what the bridge will publish. Status documents
// are a few hundred bytes.
const maxStatusPayload = 64 << 10

// Publish sends payload to topic and waits for the broker to acknowledge it.
//
// The bridge publishes only its own status documents; bridged traffic
// arrives by subscription and leaves over UDP.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxStatusPayload:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPublishFailed, len(payload), maxStatusPayload)
	case !c.IsConnected():
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if err := waitToken(context.Background(), token, defaultPublishTimeout); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}
