package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// Route names, used in logs and telemetry.
const (
	ActionVolume  = "volume"
	ActionForward = "forward"
)

// VolumeSetter adjusts the output level. Implemented by audio.Mixer.
type VolumeSetter interface {
	SetVolume(ctx context.Context, percent int) error
}

// TextSender forwards text to a peer. Implemented by udp.Forwarder.
type TextSender interface {
	Send(ctx context.Context, text string) error
}

// route decodes a payload and invokes one action.
type route struct {
	action string
	handle func(ctx context.Context, payload []byte) error
}

// Router maps each topic to exactly one action.
//
// Dispatch is synchronous relative to the message and holds no lock while
// the action runs, so deliveries for independent topics may overlap if the
// broker client delivers concurrently.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Routes are normally registered once at startup.
type Router struct {
	mu     sync.RWMutex
	routes map[string]route
	order  []string

	logger   Logger
	recorder Recorder
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		routes:   make(map[string]route),
		logger:   noopLogger{},
		recorder: noopRecorder{},
	}
}

// SetLogger sets the logger for dispatch reports.
func (r *Router) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// SetRecorder sets the telemetry sink.
func (r *Router) SetRecorder(recorder Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if recorder == nil {
		recorder = noopRecorder{}
	}
	r.recorder = recorder
}

// HandleVolume routes topic to setter. Payloads must be base-10 integers.
func (r *Router) HandleVolume(topic string, setter VolumeSetter) error {
	return r.add(topic, ActionVolume, func(ctx context.Context, payload []byte) error {
		percent, err := DecodePercent(payload)
		if err != nil {
			return err
		}
		if err := setter.SetVolume(ctx, percent); err != nil {
			return fmt.Errorf("%w: %w", ErrActionFailed, err)
		}

		logger, recorder := r.observers()
		logger.Info("volume adjusted", "percent", percent)
		recorder.RecordVolume(percent)
		return nil
	})
}

// HandleText routes topic to sender. Payloads must be valid UTF-8.
func (r *Router) HandleText(topic string, sender TextSender) error {
	return r.add(topic, ActionForward, func(ctx context.Context, payload []byte) error {
		text, err := DecodeText(payload)
		if err != nil {
			return err
		}
		if err := sender.Send(ctx, text); err != nil {
			return fmt.Errorf("%w: %w", ErrActionFailed, err)
		}

		logger, _ := r.observers()
		logger.Info("message forwarded", "bytes", len(payload))
		return nil
	})
}

// add registers a route, rejecting empty and duplicate topics.
func (r *Router) add(topic, action string, handle func(context.Context, []byte) error) error {
	if topic == "" {
		return ErrEmptyTopic
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.routes[topic]; ok {
		return fmt.Errorf("%w: %q is routed to %s", ErrDuplicateRoute, topic, existing.action)
	}
	r.routes[topic] = route{action: action, handle: handle}
	r.order = append(r.order, topic)
	return nil
}

// Topics returns the routed topics in registration order.
// This is the subscription set issued on every connect.
func (r *Router) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Dispatch delivers one message to the route registered for topic.
//
// A topic with no route is logged and dropped without error. Decode and
// action failures are returned for the caller to report; they never affect
// other routes or the session.
func (r *Router) Dispatch(ctx context.Context, topic string, payload []byte) error {
	r.mu.RLock()
	rt, ok := r.routes[topic]
	logger, recorder := r.logger, r.recorder
	r.mu.RUnlock()

	if !ok {
		logger.Warn("no route for topic, message dropped", "topic", topic)
		return nil
	}

	err := rt.handle(ctx, payload)
	recorder.RecordAction(rt.action, topic, err)
	if err != nil {
		return fmt.Errorf("%s route %q: %w", rt.action, topic, err)
	}
	return nil
}

// observers returns the current logger and recorder.
func (r *Router) observers() (Logger, Recorder) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger, r.recorder
}

// DecodePercent parses a volume payload.
//
// Surrounding whitespace is ignored. The value is not range-checked:
// out-of-range percentages reach the mixer unchanged.
func DecodePercent(payload []byte) (int, error) {
	s := strings.TrimSpace(string(payload))
	percent, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: volume %q is not an integer", ErrInvalidPayload, s)
	}
	return percent, nil
}

// DecodeText validates a text payload.
func DecodeText(payload []byte) (string, error) {
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: message is not valid UTF-8", ErrInvalidPayload)
	}
	return string(payload), nil
}
