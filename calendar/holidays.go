/*
holidays.go - Holiday calculator

PURPOSE:
  Computes concrete observed dates for the named US holidays the goal engine
  understands, for a preset and a year, and resolves a user's holiday
  calendar (preset minus removals plus additions) into a sorted date list.

RULES:
  Fixed date:        New Year's Day, Juneteenth, Independence Day, Veterans Day,
                     Christmas. Saturday is observed Friday, Sunday is observed Monday.
  Nth weekday:       MLK (3rd Mon Jan), Presidents (3rd Mon Feb), Labor (1st Mon Sep),
                     Columbus (2nd Mon Oct), Thanksgiving (4th Thu Nov).
  Last weekday:      Memorial Day (last Mon May).
  Easter relative:   Good Friday = Easter Sunday - 2 days.

PRESETS:
  nyse       10 holidays (includes Good Friday)
  usFederal  11 holidays (NYSE minus Good Friday, plus Columbus and Veterans)
  none       no holidays

  Every named holiday is a *cal.Holiday whose Func implements the rule and whose
  Observed alt-days implement the weekend shift; Calc(year) yields the dates.

SEE ALSO:
  - time.go: Day / Month types
  - goal/goal.go: consumes HolidayCalendar.InMonth
*/
package calendar

import (
	"sort"
	"time"

	"github.com/rickar/cal/v2"
)

// =============================================================================
// NAMED HOLIDAYS
// =============================================================================

// HolidayID names a holiday the calculator knows how to compute.
type HolidayID string

const (
	NewYearsDay     HolidayID = "newYearsDay"
	MLKDay          HolidayID = "mlkDay"
	PresidentsDay   HolidayID = "presidentsDay"
	GoodFriday      HolidayID = "goodFriday"
	MemorialDay     HolidayID = "memorialDay"
	Juneteenth      HolidayID = "juneteenth"
	IndependenceDay HolidayID = "independenceDay"
	LaborDay        HolidayID = "laborDay"
	ColumbusDay     HolidayID = "columbusDay"
	VeteransDay     HolidayID = "veteransDay"
	Thanksgiving    HolidayID = "thanksgiving"
	Christmas       HolidayID = "christmas"
)

// weekendShift moves a Saturday holiday to Friday and a Sunday holiday to Monday.
var weekendShift = []cal.AltDay{
	{Day: time.Saturday, Offset: -1},
	{Day: time.Sunday, Offset: 1},
}

var definitions = map[HolidayID]*cal.Holiday{
	NewYearsDay:     fixed("New Year's Day", time.January, 1),
	MLKDay:          nthWeekday("Martin Luther King Jr. Day", time.January, time.Monday, 3),
	PresidentsDay:   nthWeekday("Presidents' Day", time.February, time.Monday, 3),
	GoodFriday:      {Name: "Good Friday", Func: calcGoodFriday},
	MemorialDay:     nthWeekday("Memorial Day", time.May, time.Monday, -1),
	Juneteenth:      fixed("Juneteenth", time.June, 19),
	IndependenceDay: fixed("Independence Day", time.July, 4),
	LaborDay:        nthWeekday("Labor Day", time.September, time.Monday, 1),
	ColumbusDay:     nthWeekday("Columbus Day", time.October, time.Monday, 2),
	VeteransDay:     fixed("Veterans Day", time.November, 11),
	Thanksgiving:    nthWeekday("Thanksgiving Day", time.November, time.Thursday, 4),
	Christmas:       fixed("Christmas Day", time.December, 25),
}

func fixed(name string, month time.Month, day int) *cal.Holiday {
	return &cal.Holiday{
		Name:     name,
		Month:    month,
		Day:      day,
		Observed: weekendShift,
		Func:     calcFixed,
	}
}

// nthWeekday uses Offset as the occurrence; -1 means the last one in the month.
func nthWeekday(name string, month time.Month, weekday time.Weekday, n int) *cal.Holiday {
	return &cal.Holiday{
		Name:    name,
		Month:   month,
		Weekday: weekday,
		Offset:  n,
		Func:    calcNthWeekday,
	}
}

func calcFixed(h *cal.Holiday, year int) time.Time {
	return time.Date(year, h.Month, h.Day, 0, 0, 0, 0, time.UTC)
}

func calcNthWeekday(h *cal.Holiday, year int) time.Time {
	if h.Offset < 0 {
		return LastWeekday(year, h.Month, h.Weekday).Start(time.UTC)
	}
	return NthWeekday(year, h.Month, h.Weekday, h.Offset).Start(time.UTC)
}

func calcGoodFriday(_ *cal.Holiday, year int) time.Time {
	return Easter(year).AddDays(-2).Start(time.UTC)
}

// Name returns the display name, or the raw ID for unknown holidays.
func (id HolidayID) Name() string {
	if def, ok := definitions[id]; ok {
		return def.Name
	}
	return string(id)
}

// Known reports whether the calculator has a rule for id.
func (id HolidayID) Known() bool {
	_, ok := definitions[id]
	return ok
}

// Observed returns the observed date of the holiday in year.
func (id HolidayID) Observed(year int) (Day, bool) {
	def, ok := definitions[id]
	if !ok {
		return Day{}, false
	}
	_, observed := def.Calc(year)
	if observed.IsZero() {
		return Day{}, false
	}
	return DayOf(observed), true
}

// =============================================================================
// DATE ALGORITHMS
// =============================================================================

// Easter returns Easter Sunday using the Anonymous Gregorian
// (Meeus/Jones/Butcher) algorithm.
func Easter(year int) Day {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return NewDay(year, time.Month(month), day)
}

// NthWeekday returns the nth (1-based) weekday of the month.
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int) Day {
	first := NewDay(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset + (n-1)*7)
}

// LastWeekday returns the last given weekday of the month.
func LastWeekday(year int, month time.Month, weekday time.Weekday) Day {
	last := Month{Year: year, Month: month}.Last()
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDays(-offset)
}

// ObservedDate applies the weekend shift used for fixed-date holidays.
func ObservedDate(d Day) Day {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(-1)
	case time.Sunday:
		return d.AddDays(1)
	default:
		return d
	}
}

// =============================================================================
// PRESETS
// =============================================================================

// Preset selects a built-in holiday set.
type Preset string

const (
	PresetNYSE      Preset = "nyse"
	PresetUSFederal Preset = "usFederal"
	PresetNone      Preset = "none"
)

var presetMembers = map[Preset][]HolidayID{
	PresetNYSE: {
		NewYearsDay, MLKDay, PresidentsDay, GoodFriday, MemorialDay,
		Juneteenth, IndependenceDay, LaborDay, Thanksgiving, Christmas,
	},
	PresetUSFederal: {
		NewYearsDay, MLKDay, PresidentsDay, MemorialDay, Juneteenth,
		IndependenceDay, LaborDay, ColumbusDay, VeteransDay, Thanksgiving, Christmas,
	},
	PresetNone: nil,
}

// Members returns the holidays in the preset. Unknown presets have none.
func (p Preset) Members() []HolidayID {
	return append([]HolidayID(nil), presetMembers[p]...)
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	_, ok := presetMembers[p]
	return ok
}

func (p Preset) DisplayName() string {
	switch p {
	case PresetNYSE:
		return "NYSE"
	case PresetUSFederal:
		return "US Federal"
	default:
		return "None"
	}
}

// Holiday is one resolved occurrence.
type Holiday struct {
	ID   HolidayID `json:"id,omitempty"` // empty for custom month/day additions
	Name string    `json:"name"`
	Date Day       `json:"date"`
}

// Holidays returns the preset's observed holidays for year, sorted by date.
func Holidays(preset Preset, year int) []Holiday {
	var out []Holiday
	for _, id := range presetMembers[preset] {
		if d, ok := id.Observed(year); ok {
			out = append(out, Holiday{ID: id, Name: id.Name(), Date: d})
		}
	}
	sortHolidays(out)
	return out
}

func sortHolidays(hs []Holiday) {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
}

// =============================================================================
// HOLIDAY CALENDAR - Preset plus user edits
// =============================================================================

// CustomHoliday is a user addition: either a reference to a named holiday or
// an explicit month/day with a display name.
type CustomHoliday struct {
	Holiday HolidayID  `json:"holiday,omitempty"`
	Month   time.Month `json:"month,omitempty"`
	Day     int        `json:"day,omitempty"`
	Name    string     `json:"name,omitempty"`
}

// IsNamed reports whether the addition references a named holiday.
func (c CustomHoliday) IsNamed() bool { return c.Holiday != "" }

// Project returns the addition's date in year. Explicit month/day entries are
// taken literally; dates that do not exist in that year are skipped.
func (c CustomHoliday) Project(year int) (Holiday, bool) {
	if c.IsNamed() {
		d, ok := c.Holiday.Observed(year)
		if !ok {
			return Holiday{}, false
		}
		name := c.Name
		if name == "" {
			name = c.Holiday.Name()
		}
		return Holiday{ID: c.Holiday, Name: name, Date: d}, true
	}
	if c.Month < time.January || c.Month > time.December || c.Day < 1 {
		return Holiday{}, false
	}
	d := NewDay(year, c.Month, c.Day)
	if d.MonthOfYear() != c.Month {
		return Holiday{}, false
	}
	return Holiday{Name: c.Name, Date: d}, true
}

// HolidayCalendar is a preset with user removals and additions.
type HolidayCalendar struct {
	Preset          Preset          `json:"preset"`
	CustomRemovals  []HolidayID     `json:"customRemovals,omitempty"`
	CustomAdditions []CustomHoliday `json:"customAdditions,omitempty"`
}

// DefaultHolidayCalendar is the calendar used when settings carry none.
func DefaultHolidayCalendar() HolidayCalendar {
	return HolidayCalendar{Preset: PresetUSFederal}
}

// Resolve returns the calendar's holidays in year, sorted and deduplicated by date.
func (hc HolidayCalendar) Resolve(year int) []Holiday {
	removed := make(map[HolidayID]bool, len(hc.CustomRemovals))
	for _, id := range hc.CustomRemovals {
		removed[id] = true
	}

	var all []Holiday
	for _, h := range Holidays(hc.Preset, year) {
		if !removed[h.ID] {
			all = append(all, h)
		}
	}
	for _, add := range hc.CustomAdditions {
		if h, ok := add.Project(year); ok {
			all = append(all, h)
		}
	}
	sortHolidays(all)

	out := all[:0]
	for _, h := range all {
		if len(out) > 0 && out[len(out)-1].Date.Equal(h.Date) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Dates returns the resolved holiday dates in year.
func (hc HolidayCalendar) Dates(year int) []Day {
	hs := hc.Resolve(year)
	days := make([]Day, len(hs))
	for i, h := range hs {
		days[i] = h.Date
	}
	return days
}

// InMonth returns the resolved holidays observed in m. The following year is
// resolved too because New Year's Day can be observed on December 31.
func (hc HolidayCalendar) InMonth(m Month) []Holiday {
	var out []Holiday
	seen := make(map[Day]bool)
	for _, year := range []int{m.Year, m.Year + 1} {
		for _, h := range hc.Resolve(year) {
			if m.Contains(h.Date) && !seen[h.Date] {
				seen[h.Date] = true
				out = append(out, h)
			}
		}
	}
	sortHolidays(out)
	return out
}

// IsHoliday reports whether d is a resolved holiday.
func (hc HolidayCalendar) IsHoliday(d Day) (Holiday, bool) {
	for _, h := range hc.InMonth(d.Month()) {
		if h.Date.Equal(d) {
			return h, true
		}
	}
	return Holiday{}, false
}
