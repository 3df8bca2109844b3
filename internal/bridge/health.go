package bridge

import (
	"context"
	"sync"
	"time"
)

// DefaultHealthCheckInterval is the liveness probe period.
const DefaultHealthCheckInterval = 30 * time.Second

// Prober is the check a HealthChecker runs. Implemented by *Manager.
type Prober interface {
	ProbeAndRecover(ctx context.Context) error
}

// HealthChecker runs a Prober immediately and then at a fixed period.
//
// It works independently of loss notifications: a session that died
// without one is still found and recovered on the next tick.
type HealthChecker struct {
	prober   Prober
	interval time.Duration

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewHealthChecker creates a checker for prober. A non-positive interval
// uses DefaultHealthCheckInterval.
func NewHealthChecker(prober Prober, interval time.Duration) *HealthChecker {
	if interval <= 0 {
		interval = DefaultHealthCheckInterval
	}
	return &HealthChecker{
		prober:   prober,
		interval: interval,
		done:     make(chan struct{}),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for this checker. Call before Start.
func (h *HealthChecker) SetLogger(logger Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// Start begins probing on a new goroutine.
// Probing stops when ctx is cancelled or Stop is called.
func (h *HealthChecker) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.loop(ctx)
}

// Stop halts probing and waits for an in-flight probe to finish.
// Safe to call multiple times.
func (h *HealthChecker) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
	})
}

// loop probes at a fixed rate, starting immediately.
func (h *HealthChecker) loop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.probe(ctx)
		}
	}
}

// probe runs one check. The Prober reports its own failures.
func (h *HealthChecker) probe(ctx context.Context) {
	if err := h.prober.ProbeAndRecover(ctx); err != nil {
		h.logger.Debug("health probe unsuccessful", "error", err)
	}
}
