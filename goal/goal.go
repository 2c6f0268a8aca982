/*
Package goal computes the monthly in-office-days goal and manages goal locks.

ALGORITHM (MonthlyGoal):
  1. Locked month           -> the locked value, nothing else is consulted.
  2. autoCalculateGoal off  -> settings.MonthlyGoal.
  3. Otherwise:
       weekdays     = days of the month whose weekday is tracked
       holidays     = resolved holidays in the month that fall on a tracked weekday
       businessDays = max(0, weekdays - holidays)
       pto          = PTO/sick days recorded for the month
       workingDays  = max(0, businessDays - pto)
       goal         = policy.RequiredDays(workingDays, companyPolicy)

LOCKING:
  Locks are written by a Locker driven by an injected LockPolicy (see lock.go),
  never as a side effect of computing a goal.

SEE ALSO:
  - lock.go: LockPolicy strategies and Locker
  - scheduler.go: periodic lock reconciliation
  - calendar/holidays.go, policy/policy.go
*/
package goal

import (
	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/policy"
	"github.com/warp/office-attendance/settings"
)

// Source says which branch produced a goal.
type Source string

const (
	SourceLocked Source = "locked"
	SourceManual Source = "manual"
	SourceAuto   Source = "auto"
)

// Breakdown is a goal with every intermediate value of the computation.
// Auto-mode fields are zero for locked and manual goals.
type Breakdown struct {
	Month        calendar.Month       `json:"month"`
	Source       Source               `json:"source"`
	Goal         int                  `json:"goal"`
	Weekdays     int                  `json:"weekdays"`
	Holidays     []calendar.Holiday   `json:"holidays"`
	BusinessDays int                  `json:"businessDays"`
	PTODays      int                  `json:"ptoDays"`
	WorkingDays  int                  `json:"workingDays"`
	Policy       policy.CompanyPolicy `json:"policy"`
}

// MonthlyGoal returns the goal for m.
func MonthlyGoal(s settings.Settings, m calendar.Month) int {
	return Compute(s, m).Goal
}

// Compute returns the goal for m with its breakdown.
func Compute(s settings.Settings, m calendar.Month) Breakdown {
	b := Breakdown{Month: m, Policy: s.CompanyPolicy}

	if locked, ok := s.LockedGoal(m); ok {
		b.Source = SourceLocked
		b.Goal = locked
		return b
	}
	if !s.AutoCalculateGoal {
		b.Source = SourceManual
		b.Goal = s.MonthlyGoal
		return b
	}

	b.Source = SourceAuto
	for _, d := range m.Days() {
		if s.IsTracked(d.Weekday()) {
			b.Weekdays++
		}
	}
	for _, h := range s.HolidayCalendar.InMonth(m) {
		if s.IsTracked(h.Date.Weekday()) {
			b.Holidays = append(b.Holidays, h)
		}
	}
	b.BusinessDays = max(0, b.Weekdays-len(b.Holidays))
	b.PTODays = len(s.PTODays(m))
	b.WorkingDays = max(0, b.BusinessDays-b.PTODays)
	b.Goal = policy.RequiredDays(b.WorkingDays, s.CompanyPolicy)
	return b
}

// Provider adapts a settings.Repository to the visit store's goal lookup.
type Provider struct {
	Settings *settings.Repository
}

// GoalFor returns the current goal for m.
func (p Provider) GoalFor(m calendar.Month) int {
	return MonthlyGoal(p.Settings.Get(), m)
}
