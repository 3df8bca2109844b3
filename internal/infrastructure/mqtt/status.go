package mqtt

import (
	"encoding/json"
	"time"
)

// Status values published on the optional status topic.
const (
	statusOnline  = "online"
	statusOffline = "offline"

	reasonUnexpected = "unexpected_disconnect"
	reasonGraceful   = "graceful_shutdown"
)

// statusMessage is the retained payload on the status topic.
type statusMessage struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// buildStatusPayload creates the JSON payload for status messages.
func buildStatusPayload(status, clientID, reason string) []byte {
	payload, err := json.Marshal(statusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// Marshalling a struct of strings cannot fail
		return []byte(`{"status":"` + status + `"}`)
	}
	return payload
}

// PublishOnline publishes a retained online status.
// A no-op when no status topic is configured.
func (c *Client) PublishOnline() error {
	if c.cfg.StatusTopic == "" {
		return nil
	}
	return c.Publish(c.cfg.StatusTopic, buildStatusPayload(statusOnline, c.cfg.ClientID, ""), 1, true)
}

// publishOffline publishes the graceful offline status, best-effort.
func (c *Client) publishOffline() {
	if c.cfg.StatusTopic == "" {
		return
	}
	//nolint:errcheck // Best-effort during shutdown
	c.Publish(c.cfg.StatusTopic, buildStatusPayload(statusOffline, c.cfg.ClientID, reasonGraceful), 1, true)
}
