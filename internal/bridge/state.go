package bridge

// State is the broker session state as seen by the Manager.
type State int32

const (
	// StateDisconnected is the initial state, and the state after any loss.
	StateDisconnected State = iota

	// StateConnected means the session is open and every topic is subscribed.
	StateConnected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
