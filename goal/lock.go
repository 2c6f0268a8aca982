package goal

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/settings"
)

// =============================================================================
// LOCK POLICY - When a computed goal is frozen
// =============================================================================

// LockPolicy decides whether month m should be locked when today is today.
type LockPolicy interface {
	Name() string
	ShouldLock(m calendar.Month, today calendar.Day) bool
}

// AfterMonthEnd locks every month that has fully ended.
type AfterMonthEnd struct{}

func (AfterMonthEnd) Name() string { return "month_end" }
func (AfterMonthEnd) ShouldLock(m calendar.Month, today calendar.Day) bool {
	return m.Before(today.Month())
}

// OnFirstCompute locks the current month (and any earlier one) as soon as the
// locker sees it, freezing the goal for the month in progress.
type OnFirstCompute struct{}

func (OnFirstCompute) Name() string { return "first_compute" }
func (OnFirstCompute) ShouldLock(m calendar.Month, today calendar.Day) bool {
	return !today.Month().Before(m)
}

// Manual never locks automatically; only explicit Lock calls do.
type Manual struct{}

func (Manual) Name() string                                 { return "manual" }
func (Manual) ShouldLock(calendar.Month, calendar.Day) bool { return false }

// ParseLockPolicy maps a configuration name to a policy.
func ParseLockPolicy(name string) (LockPolicy, error) {
	switch name {
	case "", "month_end":
		return AfterMonthEnd{}, nil
	case "first_compute":
		return OnFirstCompute{}, nil
	case "manual":
		return Manual{}, nil
	default:
		return nil, fmt.Errorf("unknown lock policy %q (use month_end, first_compute or manual)", name)
	}
}

// =============================================================================
// LOCKER - Writes locks into settings
// =============================================================================

// LockerConfig holds configuration for a Locker.
type LockerConfig struct {
	Settings *settings.Repository
	Policy   LockPolicy
	// History reports the first month with attendance data, if any. Reconcile
	// walks back to it, or to the first PTO month, whichever is earlier.
	History  func() (calendar.Month, bool)
	Logger   zerolog.Logger
}

// Locker snapshots computed goals into settings.LockedMonthlyGoals.
type Locker struct {
	settings *settings.Repository
	policy   LockPolicy
	history  func() (calendar.Month, bool)
	logger   zerolog.Logger
}

// NewLocker creates a locker. A nil policy means AfterMonthEnd.
func NewLocker(cfg LockerConfig) *Locker {
	p := cfg.Policy
	if p == nil {
		p = AfterMonthEnd{}
	}
	return &Locker{
		settings: cfg.Settings,
		policy:   p,
		history:  cfg.History,
		logger:   cfg.Logger.With().Str("component", "goal_locker").Logger(),
	}
}

// Policy returns the active lock policy.
func (l *Locker) Policy() LockPolicy { return l.policy }

// Lock freezes the goal for m at its current computed value. Locking an
// already locked month keeps the existing value. It returns the locked goal
// and whether a new lock was written.
func (l *Locker) Lock(ctx context.Context, m calendar.Month) (int, bool) {
	var (
		goal    int
		written bool
	)
	l.settings.Modify(ctx, func(s *settings.Settings) {
		goal = MonthlyGoal(*s, m)
		written = s.LockGoal(m, goal)
	})
	if written {
		l.logger.Info().Str("month", m.Key()).Int("goal", goal).Msg("locked monthly goal")
	}
	return goal, written
}

// Reconcile applies the lock policy to every month from the earliest one with
// attendance or PTO data (at least the previous month) through today's month,
// and returns the months it locked.
func (l *Locker) Reconcile(ctx context.Context, today calendar.Day) []calendar.Month {
	current := today.Month()
	cur := l.settings.Get()

	var locked []calendar.Month
	for m := l.firstMonth(cur, current); !current.Before(m); m = m.Next() {
		if !l.policy.ShouldLock(m, today) {
			continue
		}
		if _, ok := cur.LockedGoal(m); ok {
			continue
		}
		if _, written := l.Lock(ctx, m); written {
			locked = append(locked, m)
		}
	}
	if len(locked) > 0 {
		l.logger.Debug().Int("months", len(locked)).Str("policy", l.policy.Name()).Msg("reconciled goal locks")
	}
	return locked
}

func (l *Locker) firstMonth(s settings.Settings, current calendar.Month) calendar.Month {
	first := current.Prev()
	if m, ok := s.EarliestPTOMonth(); ok && m.Before(first) {
		first = m
	}
	if l.history != nil {
		if m, ok := l.history(); ok && m.Before(first) {
			first = m
		}
	}
	return first
}
