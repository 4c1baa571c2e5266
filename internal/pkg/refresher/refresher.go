// Package refresher keeps a session token fresh by periodically checking its
// expiry and refreshing it before the window closes. A refresh failure is
// fatal for the session and is surfaced through the OnFatal callback.
package refresher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	// DefaultCheckInterval is the tick period between expiry checks.
	DefaultCheckInterval = 60 * time.Second
	// DefaultRefreshThreshold triggers a refresh once the token has less
	// than this much lifetime left.
	DefaultRefreshThreshold = 300 * time.Second
)

// ExpiryFunc reports the current token expiry.
type ExpiryFunc func(ctx context.Context) (time.Time, error)

// RefreshFunc re-issues the token.
type RefreshFunc func(ctx context.Context) error

// Config wires the scheduler to its token source.
type Config struct {
	CheckInterval    time.Duration
	RefreshThreshold time.Duration
	Expiry           ExpiryFunc
	Refresh          RefreshFunc
	// OnFatal is invoked once when a refresh attempt fails; the scheduler
	// stops afterwards. The session is unrecoverable at that point and the
	// caller decides how to force re-authentication.
	OnFatal func(err error)
}

// Scheduler runs the periodic expiry check. Ticks are strictly sequential:
// a tick that finds another one still in flight is skipped.
type Scheduler struct {
	cfg      Config
	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	inFlight atomic.Bool
}

func New(cfg Config) *Scheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	return &Scheduler{cfg: cfg}
}

// Start installs the recurring check plus one immediate check. Calling Start
// on a running scheduler is a no-op; after Stop it may be called again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	// Recreate the stop channel for each start cycle so the scheduler can
	// be restarted safely.
	s.stopCh = make(chan struct{})
	s.running = true
	s.ticker = time.NewTicker(s.cfg.CheckInterval)

	s.wg.Add(1)
	go s.loop()

	log.Info("[Refresher] Started session refresh scheduler")
}

// Stop cancels the pending timer and waits for the loop to exit. An
// in-flight check is allowed to complete; its result is discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	log.Info("[Refresher] Stopped session refresh scheduler")
}

// Running reports whether the scheduler loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	// Immediate check before the first tick.
	s.tick()

	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ticker.C:
			s.tick()
		}
	}
}

// tick runs one expiry check and, when the threshold is crossed, one refresh
// attempt. Overlapping ticks are skipped instead of queued.
func (s *Scheduler) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Debug("[Refresher] Skipping tick, previous check still in flight")
		return
	}
	defer s.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	exp, err := s.cfg.Expiry(ctx)
	if err != nil {
		// Unknown expiry is not fatal; the next tick retries.
		log.Warnf("[Refresher] Expiry check failed: %v", err)
		return
	}

	remaining := time.Until(exp)
	if remaining > s.cfg.RefreshThreshold {
		return
	}

	if err := s.cfg.Refresh(ctx); err != nil {
		log.Errorf("[Refresher] Token refresh failed: %v", err)
		if s.cfg.OnFatal != nil {
			s.cfg.OnFatal(err)
		}
		go s.Stop()
		return
	}
	log.Infof("[Refresher] Session token refreshed, %s remained", remaining.Round(time.Second))
}
