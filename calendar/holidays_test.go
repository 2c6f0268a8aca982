package calendar_test

import (
	"testing"
	"time"

	"github.com/rickar/cal/v2/us"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-attendance/calendar"
)

func day(y int, m time.Month, d int) calendar.Day { return calendar.NewDay(y, m, d) }

// =============================================================================
// PRESET SIZE INVARIANTS
// =============================================================================

func TestHolidays_PresetCounts(t *testing.T) {
	for year := 1990; year <= 2060; year++ {
		assert.Len(t, calendar.Holidays(calendar.PresetNYSE, year), 10, "nyse %d", year)
		assert.Len(t, calendar.Holidays(calendar.PresetUSFederal, year), 11, "usFederal %d", year)
		assert.Empty(t, calendar.Holidays(calendar.PresetNone, year), "none %d", year)
	}
}

func TestHolidays_SortedByDate(t *testing.T) {
	hs := calendar.Holidays(calendar.PresetUSFederal, 2025)
	for i := 1; i < len(hs); i++ {
		assert.True(t, hs[i-1].Date.Before(hs[i].Date), "%s before %s", hs[i-1].Date, hs[i].Date)
	}
}

// =============================================================================
// FIXED VECTORS
// =============================================================================

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want calendar.Day
	}{
		{2000, day(2000, time.April, 23)},
		{2019, day(2019, time.April, 21)},
		{2024, day(2024, time.March, 31)},
		{2025, day(2025, time.April, 20)},
		{2026, day(2026, time.April, 5)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calendar.Easter(tt.year), "easter %d", tt.year)
	}
}

func TestGoodFriday2025(t *testing.T) {
	d, ok := calendar.GoodFriday.Observed(2025)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.April, 18), d)
}

func TestNewYearsDay_WeekendShift(t *testing.T) {
	// GIVEN: Jan 1 2023 is a Sunday, Jan 1 2022 is a Saturday
	d2023, ok := calendar.NewYearsDay.Observed(2023)
	require.True(t, ok)
	d2022, ok := calendar.NewYearsDay.Observed(2022)
	require.True(t, ok)

	// THEN: Sunday moves to Monday, Saturday moves to the previous Friday
	assert.Equal(t, day(2023, time.January, 2), d2023)
	assert.Equal(t, day(2021, time.December, 31), d2022)
}

func TestUSFederal2025(t *testing.T) {
	want := []calendar.Day{
		day(2025, time.January, 1),
		day(2025, time.January, 20),
		day(2025, time.February, 17),
		day(2025, time.May, 26),
		day(2025, time.June, 19),
		day(2025, time.July, 4),
		day(2025, time.September, 1),
		day(2025, time.October, 13),
		day(2025, time.November, 11),
		day(2025, time.November, 27),
		day(2025, time.December, 25),
	}
	got := make([]calendar.Day, 0, len(want))
	for _, h := range calendar.Holidays(calendar.PresetUSFederal, 2025) {
		got = append(got, h.Date)
	}
	assert.Equal(t, want, got)
}

func TestIndependenceDay2026_ObservedFriday(t *testing.T) {
	d, ok := calendar.IndependenceDay.Observed(2026)
	require.True(t, ok)
	assert.Equal(t, day(2026, time.July, 3), d)
}

func TestObservedDates_MatchReferenceCalendar(t *testing.T) {
	// Cross-check against the rickar/cal US definitions for holidays whose
	// rules have not changed across the checked years.
	for year := 2022; year <= 2040; year++ {
		checks := []struct {
			id  calendar.HolidayID
			ref interface {
				Calc(int) (time.Time, time.Time)
			}
		}{
			{calendar.MLKDay, us.MlkDay},
			{calendar.MemorialDay, us.MemorialDay},
			{calendar.Juneteenth, us.Juneteenth},
			{calendar.IndependenceDay, us.IndependenceDay},
			{calendar.LaborDay, us.LaborDay},
			{calendar.Thanksgiving, us.ThanksgivingDay},
			{calendar.Christmas, us.ChristmasDay},
		}
		for _, c := range checks {
			got, ok := c.id.Observed(year)
			require.True(t, ok)
			_, observed := c.ref.Calc(year)
			assert.Equal(t, calendar.DayOf(observed), got, "%s %d", c.id, year)
		}
	}
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

func TestHolidayCalendar_RemovalsAndAdditions(t *testing.T) {
	hc := calendar.HolidayCalendar{
		Preset:         calendar.PresetUSFederal,
		CustomRemovals: []calendar.HolidayID{calendar.ColumbusDay, calendar.VeteransDay},
		CustomAdditions: []calendar.CustomHoliday{
			{Holiday: calendar.GoodFriday},
			{Month: time.December, Day: 24, Name: "Christmas Eve"},
		},
	}

	hs := hc.Resolve(2025)

	assert.Len(t, hs, 11)
	dates := hc.Dates(2025)
	assert.Contains(t, dates, day(2025, time.April, 18))
	assert.Contains(t, dates, day(2025, time.December, 24))
	assert.NotContains(t, dates, day(2025, time.October, 13))
	assert.NotContains(t, dates, day(2025, time.November, 11))
}

func TestHolidayCalendar_CustomAdditionIsLiteral(t *testing.T) {
	// GIVEN: a custom month/day addition on a Saturday (Dec 24, 2022)
	hc := calendar.HolidayCalendar{
		Preset:          calendar.PresetNone,
		CustomAdditions: []calendar.CustomHoliday{{Month: time.December, Day: 24, Name: "Christmas Eve"}},
	}

	// THEN: it is not weekend-shifted
	assert.Equal(t, []calendar.Day{day(2022, time.December, 24)}, hc.Dates(2022))
}

func TestHolidayCalendar_NonexistentCustomDateSkipped(t *testing.T) {
	hc := calendar.HolidayCalendar{
		Preset:          calendar.PresetNone,
		CustomAdditions: []calendar.CustomHoliday{{Month: time.February, Day: 29, Name: "Leap"}},
	}
	assert.Empty(t, hc.Resolve(2025))
	assert.Equal(t, []calendar.Day{day(2024, time.February, 29)}, hc.Dates(2024))
}

func TestHolidayCalendar_DuplicateDatesCollapsed(t *testing.T) {
	hc := calendar.HolidayCalendar{
		Preset:          calendar.PresetUSFederal,
		CustomAdditions: []calendar.CustomHoliday{{Month: time.July, Day: 4, Name: "Fourth"}},
	}
	assert.Len(t, hc.Resolve(2025), 11)
}

func TestHolidayCalendar_InMonth_IncludesNextYearsNewYear(t *testing.T) {
	// GIVEN: New Year's Day 2022 is observed on Dec 31, 2021
	hc := calendar.DefaultHolidayCalendar()

	hs := hc.InMonth(calendar.Month{Year: 2021, Month: time.December})

	require.Len(t, hs, 2)
	assert.Equal(t, day(2021, time.December, 24), hs[0].Date) // Christmas 2021 (Saturday) observed Friday
	assert.Equal(t, day(2021, time.December, 31), hs[1].Date)
	assert.Equal(t, calendar.NewYearsDay, hs[1].ID)
}

func TestHolidayCalendar_IsHoliday(t *testing.T) {
	hc := calendar.DefaultHolidayCalendar()

	h, ok := hc.IsHoliday(day(2025, time.November, 27))
	require.True(t, ok)
	assert.Equal(t, calendar.Thanksgiving, h.ID)

	_, ok = hc.IsHoliday(day(2025, time.November, 28))
	assert.False(t, ok)
}

func TestPreset_Valid(t *testing.T) {
	assert.True(t, calendar.PresetNYSE.Valid())
	assert.True(t, calendar.PresetNone.Valid())
	assert.False(t, calendar.Preset("uk").Valid())
	assert.Empty(t, calendar.Holidays(calendar.Preset("uk"), 2025))
}
