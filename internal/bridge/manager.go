package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-audiobridge/internal/infrastructure/mqtt"
)

// DefaultRetryInterval is the pause between loss-driven connect attempts.
const DefaultRetryInterval = 5 * time.Second

// Session is the broker session handle the Manager drives.
// Implemented by *mqtt.Client. Connect on an existing handle reconnects it.
type Session interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, topic string, handler mqtt.MessageHandler) error
	Disconnect()
	IsConnected() bool
}

// ManagerConfig holds the collaborators for a Manager.
type ManagerConfig struct {
	// Session is the broker handle. Required.
	Session Session

	// Router supplies the subscription set and receives every delivery. Required.
	Router *Router

	// RetryInterval is the pause between loss-driven attempts. Default: 5s.
	RetryInterval time.Duration

	// OnConnected runs after every successful connect+subscribe, outside the
	// connect guard. Optional.
	OnConnected func()

	// Logger is optional.
	Logger Logger

	// Recorder is optional.
	Recorder Recorder
}

// Manager owns the broker session lifecycle.
//
// Every connect and the subscribe sequence that follows it run under one
// mutex, so the loss-driven retry loop and the health probe never have two
// attempts in flight. The state is stored atomically for observers.
//
// State transitions:
//
//	Disconnected → Connected     successful Connect (session open, all topics subscribed)
//	Connected    → Disconnected  OnConnectionLost, or a probe that finds the session dead
type Manager struct {
	session       Session
	router        *Router
	retryInterval time.Duration
	onConnected   func()
	logger        Logger
	recorder      Recorder

	// connectMu serialises the connect/subscribe sequence.
	connectMu sync.Mutex
	state     atomic.Int32

	// retrying is true while a loss-driven retry loop is alive.
	retrying atomic.Bool

	// accepting is true from a successful session.Connect until that
	// session is lost or torn down. Deliveries are dispatched only while
	// it is set, including those that arrive mid subscription set.
	accepting atomic.Bool

	// Base context for the retry loop and deliveries; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager in StateDisconnected.
//
// Returns:
//   - *Manager: Ready to Start
//   - error: If the session or router is missing, or the router has no routes
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Session == nil {
		return nil, ErrNilSession
	}
	if cfg.Router == nil || len(cfg.Router.Topics()) == 0 {
		return nil, ErrNoRoutes
	}

	m := &Manager{
		session:       cfg.Session,
		router:        cfg.Router,
		retryInterval: cfg.RetryInterval,
		onConnected:   cfg.OnConnected,
		logger:        cfg.Logger,
		recorder:      cfg.Recorder,
	}
	if m.retryInterval <= 0 {
		m.retryInterval = DefaultRetryInterval
	}
	if m.logger == nil {
		m.logger = noopLogger{}
	}
	if m.recorder == nil {
		m.recorder = noopRecorder{}
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	return m, nil
}

// Start binds the Manager to ctx and makes the initial connect attempt.
//
// A failed initial attempt is returned but is not fatal: the session stays
// Disconnected and the health probe recovers it. Start must be called
// once, before the session can report a loss.
func (m *Manager) Start(ctx context.Context) error {
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(ctx)
	return m.Connect(m.ctx)
}

// Stop cancels any retry loop and waits for it to exit.
// The session itself is closed by its owner.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

// State returns the current session state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Recovering reports whether a loss-driven retry loop is running.
func (m *Manager) Recovering() bool {
	return m.retrying.Load()
}

// Connect opens the session and subscribes every routed topic, in that order.
//
// Any failure leaves the state Disconnected. A subscribe failure also
// disconnects the session, so the broker never holds a partial set.
// Connect does not retry and returns nil immediately when already connected.
func (m *Manager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	established, err := m.connectLocked(ctx)
	m.connectMu.Unlock()

	if established {
		m.connected()
	}
	return err
}

// connectLocked runs the connect/subscribe sequence. Caller holds connectMu.
// established is true only when this call moved the state to Connected.
func (m *Manager) connectLocked(ctx context.Context) (established bool, err error) {
	if m.State() == StateConnected && m.session.IsConnected() {
		return false, nil
	}

	// A handle that is open while we consider it down has an unknown
	// subscription set. Start it from scratch.
	if m.session.IsConnected() {
		m.accepting.Store(false)
		m.session.Disconnect()
	}

	if err := m.session.Connect(ctx); err != nil {
		m.recorder.RecordConnectAttempt(false)
		return false, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	// Retained messages replayed on each SUBACK belong to this session.
	m.accepting.Store(true)

	for _, topic := range m.router.Topics() {
		if err := m.session.Subscribe(ctx, topic, m.deliver); err != nil {
			m.accepting.Store(false)
			m.session.Disconnect()
			m.recorder.RecordConnectAttempt(false)
			return false, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
		}
	}

	m.recorder.RecordConnectAttempt(true)
	m.setState(StateConnected, "subscribed")
	return true, nil
}

// connected runs post-connect hooks outside the guard.
func (m *Manager) connected() {
	m.logger.Info("broker session established", "topics", m.router.Topics())
	if m.onConnected != nil {
		m.onConnected()
	}
}

// OnConnectionLost handles the broker client's loss notification.
//
// The state becomes Disconnected before this returns. Recovery runs on a
// goroutine of its own so the broker's callback goroutine is never blocked.
// If a retry loop is already running, the notification joins it.
//
// A notification that arrives while the Manager is Connected and the
// handle is open belongs to an earlier connection that has since been
// replaced, and is ignored.
func (m *Manager) OnConnectionLost(cause error) {
	if m.State() == StateConnected && m.session.IsConnected() {
		m.logger.Info("stale connection loss ignored, session is open", "error", cause)
		return
	}

	m.accepting.Store(false)
	m.setState(StateDisconnected, "connection lost")
	m.logger.Warn("broker connection lost", "error", cause)

	if m.ctx.Err() != nil {
		return
	}
	if !m.retrying.CompareAndSwap(false, true) {
		m.logger.Debug("reconnect already in progress")
		return
	}

	m.wg.Add(1)
	go m.retryLoop()
}

// retryLoop calls Connect until it succeeds or the Manager stops.
func (m *Manager) retryLoop() {
	defer m.wg.Done()

	for {
		m.retryUntilConnected()
		m.retrying.Store(false)

		// A loss that arrived between the last attempt and clearing the
		// flag found the loop still running and did not start another.
		if m.State() == StateConnected || m.ctx.Err() != nil {
			return
		}
		if !m.retrying.CompareAndSwap(false, true) {
			return
		}
	}
}

// retryUntilConnected is one pass of the retry loop.
func (m *Manager) retryUntilConnected() {
	for attempt := 1; ; attempt++ {
		if m.ctx.Err() != nil {
			return
		}

		err := m.Connect(m.ctx)
		if err == nil {
			m.logger.Info("reconnected to broker", "attempts", attempt)
			return
		}

		m.logger.Warn("reconnect failed, retrying",
			"attempt", attempt,
			"retry_in", m.retryInterval,
			"error", err,
		)

		timer := time.NewTimer(m.retryInterval)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// ProbeAndRecover is the periodic liveness check.
//
// A session the Manager believes Connected but the handle reports closed is
// moved to Disconnected. When Disconnected, one connect attempt is made;
// failure is returned and the next probe tries again. If another attempt
// holds the guard the probe skips with ErrConnectInProgress.
func (m *Manager) ProbeAndRecover(ctx context.Context) error {
	if m.State() == StateConnected {
		if m.session.IsConnected() {
			return nil
		}
		m.accepting.Store(false)
		m.setState(StateDisconnected, "health probe")
		m.logger.Warn("health probe found broker session dead")
	}

	if !m.connectMu.TryLock() {
		m.logger.Debug("health probe skipped, connect in progress")
		return ErrConnectInProgress
	}
	established, err := m.connectLocked(ctx)
	m.connectMu.Unlock()

	if err != nil {
		m.logger.Error("health probe reconnect failed", "error", err)
		return err
	}
	if established {
		m.logger.Info("health probe restored broker session")
		m.connected()
	}
	return nil
}

// deliver is the subscription handler for every routed topic.
// Messages are dropped unless they arrive on the current live session.
func (m *Manager) deliver(topic string, payload []byte) error {
	if !m.accepting.Load() {
		m.logger.Debug("message dropped, session not live", "topic", topic)
		return nil
	}
	return m.router.Dispatch(m.ctx, topic, payload)
}

// setState stores s and reports a transition.
func (m *Manager) setState(s State, reason string) {
	if old := State(m.state.Swap(int32(s))); old != s {
		m.logger.Info("broker session state changed",
			"from", old.String(),
			"to", s.String(),
			"reason", reason,
		)
		m.recorder.RecordConnectionState(s == StateConnected, reason)
	}
}
