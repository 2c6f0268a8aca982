/*
Package visit models a day's office attendance and keeps the per-day store.

PURPOSE:
  A geofence "enter" opens a session, an "exit" closes it. A user who leaves
  and comes back produces several sessions on the same day; they all belong to
  one OfficeVisit so that a day is counted at most once.

SESSION STATES:
  NoSession      -> StartNewSession -> ActiveSession
  ActiveSession  -> EndCurrentSession -> ClosedSession(s)
  ClosedSession  -> StartNewSession -> ActiveSession

CONTRACT:
  - StartNewSession while active fails with ErrSessionActive and changes nothing.
  - A session may not start before the previous session's exit; such an entry
    is clamped to that exit.
  - EndCurrentSession with nothing open is a no-op; an exit before the entry is
    clamped to the entry (zero-length session).

VALIDITY:
  A visit is valid when every session is closed and the total is at least
  MinValidDuration (one hour). Shorter visits are still stored.

SEE ALSO:
  - store.go: Store, the at-most-one-visit-per-day collection
  - codec.go: persisted format and legacy migration
*/
package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
)

// MinValidDuration is the attendance floor for a day to count.
const MinValidDuration = time.Hour

// =============================================================================
// OFFICE EVENT - One contiguous presence interval
// =============================================================================

// OfficeEvent is one session. A nil ExitTime means the session is open.
type OfficeEvent struct {
	EntryTime time.Time  `json:"entryTime"`
	ExitTime  *time.Time `json:"exitTime,omitempty"`
}

// IsOpen reports whether the session has not been closed.
func (e OfficeEvent) IsOpen() bool { return e.ExitTime == nil }

// Duration returns the session length; ok is false while the session is open.
func (e OfficeEvent) Duration() (d time.Duration, ok bool) {
	if e.ExitTime == nil {
		return 0, false
	}
	return e.ExitTime.Sub(e.EntryTime), true
}

// =============================================================================
// OFFICE VISIT - One calendar day's attendance
// =============================================================================

// OfficeVisit is the attendance record of one calendar day.
type OfficeVisit struct {
	ID         uuid.UUID      `json:"id"`
	Date       calendar.Day   `json:"date"`
	Events     []OfficeEvent  `json:"events"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// NewVisit creates a visit for date with no sessions.
func NewVisit(date calendar.Day, coord geo.Coordinate) *OfficeVisit {
	return &OfficeVisit{
		ID:         uuid.New(),
		Date:       date,
		Events:     []OfficeEvent{},
		Coordinate: geo.NewCoordinate(coord.Latitude, coord.Longitude),
	}
}

// Clone returns a deep copy.
func (v *OfficeVisit) Clone() *OfficeVisit {
	if v == nil {
		return nil
	}
	out := *v
	out.Events = make([]OfficeEvent, len(v.Events))
	for i, e := range v.Events {
		out.Events[i] = e
		if e.ExitTime != nil {
			exit := *e.ExitTime
			out.Events[i].ExitTime = &exit
		}
	}
	return &out
}

// IsActiveSession reports whether the last session is open.
func (v *OfficeVisit) IsActiveSession() bool {
	return len(v.Events) > 0 && v.Events[len(v.Events)-1].IsOpen()
}

// Duration sums all sessions; ok is false while any session is open or when
// there are no sessions.
func (v *OfficeVisit) Duration() (total time.Duration, ok bool) {
	if len(v.Events) == 0 {
		return 0, false
	}
	for _, e := range v.Events {
		d, closed := e.Duration()
		if !closed {
			return 0, false
		}
		total += d
	}
	return total, true
}

// IsValidVisit reports whether the visit is closed and lasted at least
// MinValidDuration.
func (v *OfficeVisit) IsValidVisit() bool {
	d, ok := v.Duration()
	return ok && d >= MinValidDuration
}

// SessionCount returns the number of sessions.
func (v *OfficeVisit) SessionCount() int { return len(v.Events) }

// EntryTime returns the first session's entry.
func (v *OfficeVisit) EntryTime() (time.Time, bool) {
	if len(v.Events) == 0 {
		return time.Time{}, false
	}
	return v.Events[0].EntryTime, true
}

// ExitTime returns the last session's exit; ok is false while active.
func (v *OfficeVisit) ExitTime() (time.Time, bool) {
	if len(v.Events) == 0 || v.IsActiveSession() {
		return time.Time{}, false
	}
	return *v.Events[len(v.Events)-1].ExitTime, true
}

// ElapsedAt returns closed session time plus the open session's time up to now.
func (v *OfficeVisit) ElapsedAt(now time.Time) time.Duration {
	var total time.Duration
	for _, e := range v.Events {
		if d, ok := e.Duration(); ok {
			total += d
		} else if now.After(e.EntryTime) {
			total += now.Sub(e.EntryTime)
		}
	}
	return total
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// StartNewSession opens a session at at.
func (v *OfficeVisit) StartNewSession(at time.Time) error {
	if v.IsActiveSession() {
		return ErrSessionActive
	}
	if n := len(v.Events); n > 0 {
		if prevExit := *v.Events[n-1].ExitTime; at.Before(prevExit) {
			at = prevExit
		}
	}
	v.Events = append(v.Events, OfficeEvent{EntryTime: at})
	return nil
}

// EndCurrentSession closes the open session at at. It reports false when no
// session was open.
func (v *OfficeVisit) EndCurrentSession(at time.Time) bool {
	if !v.IsActiveSession() {
		return false
	}
	last := &v.Events[len(v.Events)-1]
	if at.Before(last.EntryTime) {
		at = last.EntryTime
	}
	last.ExitTime = &at
	return true
}

// ResumeSession closes any open session and immediately opens a new one at
// the same instant.
func (v *OfficeVisit) ResumeSession(at time.Time) {
	v.EndCurrentSession(at)
	// Cannot fail: no session is open after EndCurrentSession.
	_ = v.StartNewSession(at)
}
