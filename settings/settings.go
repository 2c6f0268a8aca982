/*
Package settings holds the user configuration consumed by the goal engine.

PURPOSE:
  Settings is persisted as a single JSON blob. Decoding starts from Default(),
  so fields missing from an older blob keep their defaults, and every decoded
  value is passed through Normalize() before use.

JSON SCHEMA:
  {
    "trackingDays": [1, 2, 3, 4, 5],          // time.Weekday numbers, 0 = Sunday
    "autoCalculateGoal": true,
    "monthlyGoal": 12,                          // used when autoCalculateGoal is false
    "companyPolicy": {"policyType": "hybrid50", "customPercentage": 50},
    "holidayCalendar": {"preset": "usFederal", "customRemovals": [], "customAdditions": []},
    "officeLocations": [{"name": "HQ", "coordinate": {...}, "radiusMeters": 150}],
    "ptoSickDays": {"2025-03": ["2025-03-14"]},
    "lockedMonthlyGoals": {"2025-02": 9}
  }

INVARIANTS:
  - At most MaxOfficeLocations office locations.
  - A month present in LockedMonthlyGoals keeps that goal regardless of later
    policy, holiday or PTO edits.

SEE ALSO:
  - repository.go: persisted access with serialized updates
  - goal/goal.go: the monthly goal computation
*/
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
	"github.com/warp/office-attendance/policy"
)

// MaxOfficeLocations is the number of geofenced offices a user may configure.
const MaxOfficeLocations = 2

var (
	ErrTooManyLocations = errors.New("too many office locations")
	ErrInvalidMonthKey  = errors.New("invalid month key")
)

// ParseMonthKey parses a "YYYY-MM" key as used by ptoSickDays and
// lockedMonthlyGoals.
func ParseMonthKey(key string) (calendar.Month, error) {
	m, err := calendar.ParseMonth(key)
	if err != nil {
		return calendar.Month{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	return m, nil
}

// OfficeLocation is a geofenced office.
type OfficeLocation struct {
	Name         string         `json:"name"`
	Address      string         `json:"address,omitempty"`
	Coordinate   geo.Coordinate `json:"coordinate"`
	RadiusMeters float64        `json:"radiusMeters,omitempty"`
}

// Settings is the persisted user configuration.
type Settings struct {
	TrackingDays       []time.Weekday            `json:"trackingDays"`
	AutoCalculateGoal  bool                      `json:"autoCalculateGoal"`
	MonthlyGoal        int                       `json:"monthlyGoal"`
	CompanyPolicy      policy.CompanyPolicy      `json:"companyPolicy"`
	HolidayCalendar    calendar.HolidayCalendar  `json:"holidayCalendar"`
	OfficeLocations    []OfficeLocation          `json:"officeLocations"`
	PTOSickDays        map[string][]calendar.Day `json:"ptoSickDays"`
	LockedMonthlyGoals map[string]int            `json:"lockedMonthlyGoals"`
}

// Default returns the settings of a fresh install.
func Default() Settings {
	return Settings{
		TrackingDays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		AutoCalculateGoal:  true,
		MonthlyGoal:        12,
		CompanyPolicy:      policy.Default(),
		HolidayCalendar:    calendar.DefaultHolidayCalendar(),
		PTOSickDays:        map[string][]calendar.Day{},
		LockedMonthlyGoals: map[string]int{},
	}
}

// Decode parses a settings blob on top of Default() and normalizes it.
func Decode(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parsing settings: %w", err)
	}
	s, _ = s.Normalize()
	return s, nil
}

// Encode serializes normalized settings.
func (s Settings) Encode() ([]byte, error) {
	n, _ := s.Normalize()
	return json.Marshal(n)
}

// Normalize returns a copy with every invariant restored. The returned list
// describes what was changed, for diagnostics.
func (s Settings) Normalize() (Settings, []string) {
	var fixes []string
	out := s.Clone()

	seen := make(map[time.Weekday]bool)
	days := out.TrackingDays[:0]
	for _, d := range out.TrackingDays {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	if len(days) != len(s.TrackingDays) {
		fixes = append(fixes, "trackingDays: dropped invalid or duplicate weekdays")
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	out.TrackingDays = days

	if out.MonthlyGoal < 0 {
		out.MonthlyGoal = 0
		fixes = append(fixes, "monthlyGoal: negative goal reset to 0")
	}

	out.CompanyPolicy = out.CompanyPolicy.Normalize()

	if !out.HolidayCalendar.Preset.Valid() {
		fixes = append(fixes, fmt.Sprintf("holidayCalendar: unknown preset %q replaced with none", out.HolidayCalendar.Preset))
		out.HolidayCalendar.Preset = calendar.PresetNone
	}

	if len(out.OfficeLocations) > MaxOfficeLocations {
		out.OfficeLocations = out.OfficeLocations[:MaxOfficeLocations]
		fixes = append(fixes, "officeLocations: truncated to the first two")
	}
	for i := range out.OfficeLocations {
		loc := &out.OfficeLocations[i]
		loc.Coordinate = geo.NewCoordinate(loc.Coordinate.Latitude, loc.Coordinate.Longitude)
		if loc.RadiusMeters < 0 {
			loc.RadiusMeters = 0
		}
	}

	for key, goal := range out.LockedMonthlyGoals {
		if _, err := ParseMonthKey(key); err != nil || goal < 0 {
			delete(out.LockedMonthlyGoals, key)
			fixes = append(fixes, fmt.Sprintf("lockedMonthlyGoals: dropped invalid entry %q", key))
		}
	}

	for key, ptoDays := range out.PTOSickDays {
		month, err := ParseMonthKey(key)
		if err != nil {
			delete(out.PTOSickDays, key)
			fixes = append(fixes, fmt.Sprintf("ptoSickDays: dropped invalid month key %q", key))
			continue
		}
		out.PTOSickDays[key] = uniqueDaysIn(month, ptoDays)
	}

	return out, fixes
}

// uniqueDaysIn keeps the days that fall in m, sorted and deduplicated.
func uniqueDaysIn(m calendar.Month, days []calendar.Day) []calendar.Day {
	seen := make(map[calendar.Day]bool, len(days))
	out := make([]calendar.Day, 0, len(days))
	for _, d := range days {
		if !m.Contains(d) || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.TrackingDays = append([]time.Weekday(nil), s.TrackingDays...)
	out.OfficeLocations = append([]OfficeLocation(nil), s.OfficeLocations...)
	out.HolidayCalendar.CustomRemovals = append([]calendar.HolidayID(nil), s.HolidayCalendar.CustomRemovals...)
	out.HolidayCalendar.CustomAdditions = append([]calendar.CustomHoliday(nil), s.HolidayCalendar.CustomAdditions...)

	out.PTOSickDays = make(map[string][]calendar.Day, len(s.PTOSickDays))
	for k, v := range s.PTOSickDays {
		out.PTOSickDays[k] = append([]calendar.Day(nil), v...)
	}
	out.LockedMonthlyGoals = make(map[string]int, len(s.LockedMonthlyGoals))
	for k, v := range s.LockedMonthlyGoals {
		out.LockedMonthlyGoals[k] = v
	}
	return out
}

// =============================================================================
// TRACKING DAYS
// =============================================================================

// IsTracked reports whether attendance is expected on wd.
func (s Settings) IsTracked(wd time.Weekday) bool {
	for _, d := range s.TrackingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// =============================================================================
// OFFICE LOCATIONS
// =============================================================================

// SetOfficeLocations replaces the configured offices.
func (s *Settings) SetOfficeLocations(locs []OfficeLocation) error {
	if len(locs) > MaxOfficeLocations {
		return fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyLocations, len(locs), MaxOfficeLocations)
	}
	s.OfficeLocations = append([]OfficeLocation(nil), locs...)
	return nil
}

// =============================================================================
// PTO / SICK DAYS
// =============================================================================

// PTODays returns the PTO/sick days recorded for m.
func (s Settings) PTODays(m calendar.Month) []calendar.Day {
	return uniqueDaysIn(m, s.PTOSickDays[m.Key()])
}

// AddPTODay records d as a PTO/sick day. It reports false if already present.
func (s *Settings) AddPTODay(d calendar.Day) bool {
	if s.PTOSickDays == nil {
		s.PTOSickDays = map[string][]calendar.Day{}
	}
	key := d.Month().Key()
	for _, existing := range s.PTOSickDays[key] {
		if existing.Equal(d) {
			return false
		}
	}
	s.PTOSickDays[key] = uniqueDaysIn(d.Month(), append(s.PTOSickDays[key], d))
	return true
}

// RemovePTODay removes d. It reports false if d was not recorded.
func (s *Settings) RemovePTODay(d calendar.Day) bool {
	key := d.Month().Key()
	days := s.PTOSickDays[key]
	for i, existing := range days {
		if existing.Equal(d) {
			days = append(days[:i:i], days[i+1:]...)
			if len(days) == 0 {
				delete(s.PTOSickDays, key)
			} else {
				s.PTOSickDays[key] = days
			}
			return true
		}
	}
	return false
}

// EarliestPTOMonth returns the first month with a recorded PTO/sick day.
func (s Settings) EarliestPTOMonth() (calendar.Month, bool) {
	var (
		earliest calendar.Month
		found    bool
	)
	for key, days := range s.PTOSickDays {
		m, err := ParseMonthKey(key)
		if err != nil || len(days) == 0 {
			continue
		}
		if !found || m.Before(earliest) {
			earliest, found = m, true
		}
	}
	return earliest, found
}

// =============================================================================
// LOCKED GOALS
// =============================================================================

// LockedGoal returns the locked goal for m, if any.
func (s Settings) LockedGoal(m calendar.Month) (int, bool) {
	goal, ok := s.LockedMonthlyGoals[m.Key()]
	return goal, ok
}

// LockGoal stores goal for m unless m is already locked. It reports whether
// the lock was written.
func (s *Settings) LockGoal(m calendar.Month, goal int) bool {
	if s.LockedMonthlyGoals == nil {
		s.LockedMonthlyGoals = map[string]int{}
	}
	if _, ok := s.LockedMonthlyGoals[m.Key()]; ok {
		return false
	}
	s.LockedMonthlyGoals[m.Key()] = max(0, goal)
	return true
}

// UnlockGoal removes the lock for m.
func (s *Settings) UnlockGoal(m calendar.Month) bool {
	if _, ok := s.LockedMonthlyGoals[m.Key()]; !ok {
		return false
	}
	delete(s.LockedMonthlyGoals, m.Key())
	return true
}
