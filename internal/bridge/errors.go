package bridge

import "errors"

// Sentinel errors for bridge operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, bridge.ErrInvalidPayload) {
//	    // message dropped, session unaffected
//	}
var (
	// ErrConnectFailed indicates the broker session could not be established.
	ErrConnectFailed = errors.New("bridge: connect failed")

	// ErrSubscribeFailed indicates the session was opened but a topic could not
	// be subscribed. The session is torn down again.
	ErrSubscribeFailed = errors.New("bridge: subscribe failed")

	// ErrConnectInProgress indicates a health probe skipped its attempt because
	// another connect held the guard.
	ErrConnectInProgress = errors.New("bridge: connect already in progress")

	// ErrInvalidPayload indicates a message payload could not be decoded for its route.
	ErrInvalidPayload = errors.New("bridge: invalid payload")

	// ErrActionFailed indicates a route's side effect (volume, UDP) failed.
	ErrActionFailed = errors.New("bridge: action failed")

	// ErrEmptyTopic indicates a route was registered without a topic.
	ErrEmptyTopic = errors.New("bridge: topic cannot be empty")

	// ErrDuplicateRoute indicates a second route was registered for a topic.
	ErrDuplicateRoute = errors.New("bridge: topic already routed")

	// ErrNoRoutes indicates a Manager was built with a router that has no topics.
	ErrNoRoutes = errors.New("bridge: router has no routes")

	// ErrNilSession indicates a Manager was built without a session.
	ErrNilSession = errors.New("bridge: session is required")
)
