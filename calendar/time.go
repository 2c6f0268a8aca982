/*
Package calendar provides the day-granular time primitives and the holiday
calculator used by the goal engine.

PURPOSE:
  Attendance is counted per calendar day. A Day deliberately drops time of day
  and location so that two instants on the same local date compare equal, and
  a Month is the unit goals, PTO and locks are keyed by ("YYYY-MM").

KEY TYPES:
  - Day:    a calendar date (serialized as "2006-01-02")
  - Month:  a calendar month (serialized as "2006-01")
  - Period: an inclusive [Start, End] range of days

USAGE:
  today := calendar.DayOf(time.Now())
  month := today.Month()
  for _, d := range month.Days() { ... }

SEE ALSO:
  - holidays.go: holiday presets and observance rules
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - A calendar date without time of day
// =============================================================================

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Day is a calendar date. The zero value is the zero time's date.
type Day struct {
	t time.Time
}

// NewDay builds a Day. Out-of-range values are normalized the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// DayIn returns the calendar date of t in loc. A nil loc means t's location.
func DayIn(t time.Time, loc *time.Location) Day {
	if loc == nil {
		return DayOf(t)
	}
	return DayOf(t.In(loc))
}

// ParseDay parses "2006-01-02". Full RFC3339 timestamps are accepted too and
// reduced to their date.
func ParseDay(s string) (Day, error) {
	if t, err := time.Parse(dayLayout, s); err == nil {
		return DayOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q (use YYYY-MM-DD)", s)
	}
	return DayOf(t), nil
}

func (d Day) Year() int              { return d.t.Year() }
func (d Day) MonthOfYear() time.Month { return d.t.Month() }
func (d Day) DayOfMonth() int        { return d.t.Day() }
func (d Day) Weekday() time.Weekday  { return d.t.Weekday() }
func (d Day) IsZero() bool           { return d.t.IsZero() }
func (d Day) IsWeekend() bool        { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }

// Month returns the month containing d.
func (d Day) Month() Month { return Month{Year: d.Year(), Month: d.MonthOfYear()} }

func (d Day) Before(other Day) bool { return d.t.Before(other.t) }
func (d Day) After(other Day) bool  { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool  { return d.t.Equal(other.t) }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Start returns midnight of d in loc (UTC when loc is nil).
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.MonthOfYear(), d.DayOfMonth(), 0, 0, 0, 0, loc)
}

// Contains reports whether t falls on d in loc.
func (d Day) Contains(t time.Time, loc *time.Location) bool {
	return DayIn(t, loc).Equal(d)
}

func (d Day) String() string { return d.t.Format(dayLayout) }

func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// MONTH - The unit goals, PTO and locks are keyed by
// =============================================================================

// Month identifies a calendar month. Key() is the "YYYY-MM" storage key.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month of t in t's own location.
func MonthOf(t time.Time) Month { return DayOf(t).Month() }

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(key string) (Month, error) {
	t, err := time.Parse(monthLayout, key)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month key %q (use YYYY-MM)", key)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) Key() string    { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
func (m Month) String() string { return m.Key() }

func (m Month) First() Day  { return NewDay(m.Year, m.Month, 1) }
func (m Month) Last() Day   { return NewDay(m.Year, m.Month+1, 1).AddDays(-1) }
func (m Month) Next() Month { return m.First().AddDays(32).Month() }
func (m Month) Prev() Month { return m.First().AddDays(-1).Month() }

func (m Month) Equal(other Month) bool { return m.Year == other.Year && m.Month == other.Month }

func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Contains reports whether d falls in m.
func (m Month) Contains(d Day) bool { return d.Year() == m.Year && d.MonthOfYear() == m.Month }

// Period returns the month as an inclusive day range.
func (m Month) Period() Period { return Period{Start: m.First(), End: m.Last()} }

// Days returns every day of the month in order.
func (m Month) Days() []Day { return m.Period().Days() }

func (m Month) MarshalText() ([]byte, error) { return []byte(m.Key()), nil }

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// PERIOD - Inclusive day range
// =============================================================================

// Period is an inclusive [Start, End] range of days.
type Period struct {
	Start Day
	End   Day
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Day) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Day {
	var days []Day
	for current := p.Start; !current.After(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
