/*
scheduler.go - Automated goal-lock scheduler

PURPOSE:
  Periodically asks the Locker to apply its LockPolicy so that month
  rollovers lock the goal of the month that just ended (or, with
  OnFirstCompute, the month that just started) without user action.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Runs once immediately on Start
  - Stop is safe to call more than once

USAGE:
  scheduler := goal.NewLockScheduler(goal.SchedulerConfig{Locker: locker, Logger: log})
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - lock.go: Locker and LockPolicy
*/
package goal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/calendar"
)

// SchedulerConfig holds configuration for the lock scheduler.
type SchedulerConfig struct {
	Locker        *Locker
	Logger        zerolog.Logger
	CheckInterval time.Duration // default: 1 hour
	Location      *time.Location
	Now           func() time.Time
}

// LockScheduler runs Locker.Reconcile on a ticker.
type LockScheduler struct {
	locker        *Locker
	logger        zerolog.Logger
	checkInterval time.Duration
	loc           *time.Location
	now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLockScheduler creates a new scheduler.
func NewLockScheduler(cfg SchedulerConfig) *LockScheduler {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &LockScheduler{
		locker:        cfg.Locker,
		logger:        cfg.Logger.With().Str("component", "lock_scheduler").Logger(),
		checkInterval: interval,
		loc:           cfg.Location,
		now:           now,
	}
}

// Start begins the scheduler. Starting a running scheduler is a no-op.
func (s *LockScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.checkInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.logger.Info().
		Dur("interval", s.checkInterval).
		Str("policy", s.locker.Policy().Name()).
		Msg("lock scheduler started")
}

// Stop stops the scheduler and waits for an in-flight check to finish.
func (s *LockScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.logger.Info().Msg("lock scheduler stopped")
}

func (s *LockScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-stop:
			return
		}
	}
}

// RunOnce performs a single reconciliation and returns the months locked.
func (s *LockScheduler) RunOnce(ctx context.Context) []calendar.Month {
	today := calendar.DayIn(s.now(), s.loc)
	locked := s.locker.Reconcile(ctx, today)
	if len(locked) > 0 {
		keys := make([]string, len(locked))
		for i, m := range locked {
			keys[i] = m.Key()
		}
		s.logger.Info().Strs("months", keys).Msg("goal locks reconciled")
	} else {
		s.logger.Debug().Str("today", today.String()).Msg("no goals to lock")
	}
	return locked
}
