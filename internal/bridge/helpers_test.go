package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/mqtt"
)

var errBrokerDown = errors.New("broker unreachable")

// fakeSession is an in-memory broker session.
type fakeSession struct {
	mu            sync.Mutex
	connected     bool
	failures      int // remaining Connect calls that fail; -1 fails forever
	subscribeErrs map[string]error
	connectCalls  int
	subscribes    []string
	disconnects   int
	handlers      map[string]mqtt.MessageHandler
	connectDelay  time.Duration

	// retained is replayed to the handler as soon as its topic is
	// subscribed, the way a broker delivers retained messages after SUBACK.
	retained map[string][]byte

	active    atomic.Int32
	maxActive atomic.Int32
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		subscribeErrs: make(map[string]error),
		handlers:      make(map[string]mqtt.MessageHandler),
		retained:      make(map[string][]byte),
	}
}

func (s *fakeSession) Connect(context.Context) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		maxSeen := s.maxActive.Load()
		if n <= maxSeen || s.maxActive.CompareAndSwap(maxSeen, n) {
			break
		}
	}

	if s.connectDelay > 0 {
		time.Sleep(s.connectDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectCalls++
	if s.failures != 0 {
		if s.failures > 0 {
			s.failures--
		}
		return errBrokerDown
	}
	s.connected = true
	return nil
}

func (s *fakeSession) Subscribe(_ context.Context, topic string, handler mqtt.MessageHandler) error {
	s.mu.Lock()
	if err := s.subscribeErrs[topic]; err != nil {
		s.mu.Unlock()
		return err
	}
	s.subscribes = append(s.subscribes, topic)
	s.handlers[topic] = handler
	payload, replay := s.retained[topic]
	s.mu.Unlock()

	if replay {
		_ = handler(topic, payload)
	}
	return nil
}

func (s *fakeSession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.disconnects++
}

func (s *fakeSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// drop simulates the network going away without a notification.
func (s *fakeSession) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// failNext makes the next n Connect calls fail (-1 for all).
func (s *fakeSession) failNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

func (s *fakeSession) counts() (connects int, subscribes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectCalls, append([]string(nil), s.subscribes...)
}

// publish delivers a message through the handler subscribed for topic, as
// the broker client would. Unsubscribed topics go nowhere.
func (s *fakeSession) publish(topic string, payload []byte) error {
	s.mu.Lock()
	handler := s.handlers[topic]
	s.mu.Unlock()
	if handler == nil {
		return nil
	}
	return handler(topic, payload)
}

// fakeVolume records SetVolume calls.
type fakeVolume struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (v *fakeVolume) SetVolume(_ context.Context, percent int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, percent)
	return v.err
}

func (v *fakeVolume) got() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]int(nil), v.calls...)
}

// fakeSender records Send calls.
type fakeSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *fakeSender) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	return s.err
}

func (s *fakeSender) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// recordingLogger captures messages by level.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *recordingLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// stateEvent is one recorded state transition.
type stateEvent struct {
	connected bool
	reason    string
}

// fakeRecorder captures telemetry.
type fakeRecorder struct {
	mu       sync.Mutex
	states   []stateEvent
	attempts []bool
	actions  []string
	volumes  []int
}

func (r *fakeRecorder) RecordConnectionState(connected bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, stateEvent{connected: connected, reason: reason})
}

func (r *fakeRecorder) RecordConnectAttempt(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, ok)
}

func (r *fakeRecorder) RecordAction(action, topic string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.actions = append(r.actions, action+" "+topic+" "+status)
}

func (r *fakeRecorder) RecordVolume(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volumes = append(r.volumes, percent)
}

// testRouter routes "vol" and "msg" to fresh fakes.
func testRouter(t *testing.T) (*Router, *fakeVolume, *fakeSender) {
	t.Helper()
	router := NewRouter()
	volume := &fakeVolume{}
	sender := &fakeSender{}
	if err := router.HandleVolume("vol", volume); err != nil {
		t.Fatalf("HandleVolume() error = %v", err)
	}
	if err := router.HandleText("msg", sender); err != nil {
		t.Fatalf("HandleText() error = %v", err)
	}
	return router, volume, sender
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
