package visit

import (
	"errors"
	"fmt"

	"github.com/warp/office-attendance/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSessionActive is returned by StartNewSession when the visit already
	// has an open session. At most one event per visit may be open.
	ErrSessionActive = errors.New("session already active")

	// ErrDuplicatePrevented is returned by AddOrUpdate when the day already
	// holds a visit with an active session.
	ErrDuplicatePrevented = errors.New("duplicate visit prevented")

	// ErrVisitNotFound is returned when no visit exists for a day.
	ErrVisitNotFound = errors.New("visit not found")
)

// DuplicateVisitError carries the day whose active visit blocked a write.
type DuplicateVisitError struct {
	Date       calendar.Day
	ExistingID string
}

func (e *DuplicateVisitError) Error() string {
	return fmt.Sprintf("active visit already recorded for %s (id: %s)", e.Date, e.ExistingID)
}

func (e *DuplicateVisitError) Unwrap() error {
	return ErrDuplicatePrevented
}
