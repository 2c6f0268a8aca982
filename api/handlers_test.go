/*
handlers_test.go - HTTP tests for the attendance API

Tests for:
- Enter / exit / status / progress flow
- Duplicate and validation errors
- Settings replacement, PTO days and goal locking
- Widget snapshot publishing
- Ingest rate limiting
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-attendance/goal"
	"github.com/warp/office-attendance/settings"
	"github.com/warp/office-attendance/store/memory"
	"github.com/warp/office-attendance/visit"
	"github.com/warp/office-attendance/widget"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// testNow is Friday, March 14, 2025 10:00 UTC. March 2025 has 21 weekdays
// and no US federal holidays, so the default goal is 11.
var testNow = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

type testServer struct {
	router   http.Handler
	visits   *visit.Store
	settings *settings.Repository
}

func newTestServer(t *testing.T) *testServer {
	ctx := context.Background()
	kv := memory.New()
	now := func() time.Time { return testNow }
	log := zerolog.Nop()

	repo := settings.NewRepository(settings.RepositoryConfig{KV: kv, Logger: log})
	require.NoError(t, repo.Load(ctx))

	publisher := widget.NewPublisher(widget.PublisherConfig{KV: kv, Now: now, Logger: log})
	var visits *visit.Store
	visits = visit.NewStore(visit.StoreConfig{
		KV:       kv,
		Goals:    goal.Provider{Settings: repo},
		Location: time.UTC,
		Now:      now,
		Logger:   log,
		OnChange: func(ctx context.Context) { publisher.Publish(ctx, visits) },
	})
	require.NoError(t, visits.Load(ctx))

	h := NewHandler(HandlerConfig{
		Visits:   visits,
		Settings: repo,
		Locker:   goal.NewLocker(goal.LockerConfig{Settings: repo, Logger: log}),
		Widget:   publisher,
		KV:       kv,
		Now:      now,
		Logger:   log,
	})
	return &testServer{router: NewRouter(h, log), visits: visits, settings: repo}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// =============================================================================
// PRESENCE & VISITS
// =============================================================================

func TestEnterExitFlow(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: an entry at 09:00
	rec := s.do(t, http.MethodPost, "/api/visits/enter", `{"latitude":40.7128,"longitude":-74.006,"at":"2025-03-14T09:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entered := decode[VisitDTO](t, rec)
	assert.True(t, entered.IsActive)
	assert.Equal(t, "2025-03-14", entered.Date)
	assert.InDelta(t, 40.7128, entered.Latitude, 1e-9)

	// WHEN: status is read at 10:00
	status := decode[StatusDTO](t, s.do(t, http.MethodGet, "/api/status", ""))

	// THEN: the user is in the office for one hour so far
	assert.True(t, status.IsInOffice)
	require.NotNil(t, status.CurrentVisit)
	assert.Equal(t, entered.ID, status.CurrentVisit.ID)
	assert.Equal(t, 3600.0, status.ElapsedSeconds)

	// WHEN: the user leaves at 11:30
	rec = s.do(t, http.MethodPost, "/api/visits/exit", `{"at":"2025-03-14T11:30:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	exited := decode[struct {
		Ended bool     `json:"ended"`
		Visit VisitDTO `json:"visit"`
	}](t, rec)

	// THEN: the visit is closed, valid and counted
	assert.True(t, exited.Ended)
	assert.True(t, exited.Visit.IsValid)
	require.NotNil(t, exited.Visit.DurationSeconds)
	assert.Equal(t, 9000.0, *exited.Visit.DurationSeconds)

	progress := decode[ProgressDTO](t, s.do(t, http.MethodGet, "/api/progress", ""))
	assert.Equal(t, "2025-03", progress.Month)
	assert.Equal(t, 1, progress.Current)
	assert.Equal(t, 11, progress.Goal)
	assert.Equal(t, 10, progress.Remaining)
	assert.False(t, decode[StatusDTO](t, s.do(t, http.MethodGet, "/api/status", "")).IsInOffice)
}

func TestExitWithoutEntryIsNoOp(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/visits/exit", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ended":false}`, rec.Body.String())
	assert.Empty(t, s.visits.Visits())
}

func TestExitClosesYesterdaysSession(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: a session opened late on March 13 and never closed
	rec := s.do(t, http.MethodPost, "/api/visits/enter", `{"at":"2025-03-13T23:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: the exit arrives the next morning
	rec = s.do(t, http.MethodPost, "/api/visits/exit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exited := decode[struct {
		Ended bool     `json:"ended"`
		Visit VisitDTO `json:"visit"`
	}](t, rec)

	// THEN: March 13 ends at midnight with one valid hour
	assert.True(t, exited.Ended)
	assert.Equal(t, "2025-03-13", exited.Visit.Date)
	assert.False(t, exited.Visit.IsActive)
	require.NotNil(t, exited.Visit.DurationSeconds)
	assert.Equal(t, 3600.0, *exited.Visit.DurationSeconds)
}

func TestEnterTwiceKeepsOneSession(t *testing.T) {
	s := newTestServer(t)

	first := decode[VisitDTO](t, s.do(t, http.MethodPost, "/api/visits/enter", `{"at":"2025-03-14T09:00:00Z"}`))
	second := decode[VisitDTO](t, s.do(t, http.MethodPost, "/api/visits/enter", `{"at":"2025-03-14T09:10:00Z"}`))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.SessionCount)
}

func TestUpsertVisit(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/visits", `{
		"date": "2025-03-10",
		"events": [
			{"entry_time": "2025-03-10T09:00:00Z", "exit_time": "2025-03-10T09:40:00Z"},
			{"entry_time": "2025-03-10T13:00:00Z", "exit_time": "2025-03-10T13:20:00Z"}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[VisitDTO](t, rec)
	assert.Equal(t, 2, v.SessionCount)
	assert.True(t, v.IsValid)

	list := decode[struct {
		Month  string     `json:"month"`
		Visits []VisitDTO `json:"visits"`
	}](t, s.do(t, http.MethodGet, "/api/visits?month=2025-03&valid_only=true", ""))
	assert.Equal(t, "2025-03", list.Month)
	require.Len(t, list.Visits, 1)
	assert.Equal(t, v.ID, list.Visits[0].ID)
}

func TestUpsertVisit_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"bad date", `{"date":"10/03/2025","events":[]}`, http.StatusBadRequest},
		{"bad id", `{"id":"nope","date":"2025-03-10","events":[]}`, http.StatusBadRequest},
		{
			"open event before the last",
			`{"date":"2025-03-10","events":[{"entry_time":"2025-03-10T09:00:00Z"},{"entry_time":"2025-03-10T10:00:00Z"}]}`,
			http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPut, "/api/visits", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Empty(t, s.visits.Visits())
		})
	}
}

func TestUpsertVisit_ActiveDayConflict(t *testing.T) {
	// GIVEN: an active visit today
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/visits/enter", `{"at":"2025-03-14T09:00:00Z"}`)

	// WHEN: a closed visit is written for the same day
	rec := s.do(t, http.MethodPut, "/api/visits", `{"date":"2025-03-14","events":[{"entry_time":"2025-03-14T08:00:00Z","exit_time":"2025-03-14T12:00:00Z"}]}`)

	// THEN: it is refused and the active visit stays
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "2025-03-14")
	assert.True(t, s.visits.IsInOffice())
}

func TestGetAndDeleteVisit(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/visits", `{"date":"2025-03-10","events":[{"entry_time":"2025-03-10T09:00:00Z","exit_time":"2025-03-10T12:00:00Z"}]}`)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/visits/2025-03-10", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/visits/2025-03-11", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/visits/yesterday", "").Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/visits/2025-03-10", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/visits/2025-03-10", "").Code)
}

func TestClearAndCleanup(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/visits/enter", `{"at":"2025-03-14T09:00:00Z"}`)

	rec := s.do(t, http.MethodPost, "/api/visits/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"repaired":0}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/visits", "").Code)
	assert.Empty(t, s.visits.Visits())
}

// =============================================================================
// GOALS & SETTINGS
// =============================================================================

func TestBadMonthParameters(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/api/progress?month=2025-13",
		"/api/visits?month=March",
		"/api/goals/2025-3x",
		"/api/holidays?year=abc",
	} {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, path, "").Code, path)
	}
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/goals/soon/lock", "").Code)
}

func TestGetGoalBreakdown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/goals/2025-02", "")

	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[GoalDTO](t, rec)
	assert.Equal(t, "auto", g.Source)
	assert.Equal(t, 20, g.Weekdays)
	require.Len(t, g.Holidays, 1)
	assert.Equal(t, "2025-02-17", g.Holidays[0].Date)
	assert.Equal(t, 19, g.WorkingDays)
	assert.Equal(t, 10, g.Goal)
	assert.False(t, g.Locked)
}

func TestLockGoalSurvivesSettingsChange(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: March is locked at the hybrid 50% goal
	rec := s.do(t, http.MethodPost, "/api/goals/2025-03/lock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	locked := decode[struct {
		LockedNow bool    `json:"locked_now"`
		Goal      GoalDTO `json:"goal"`
	}](t, rec)
	assert.True(t, locked.LockedNow)
	assert.Equal(t, 11, locked.Goal.Goal)

	// WHEN: the policy moves to full office
	rec = s.do(t, http.MethodPut, "/api/settings", `{"companyPolicy":{"policyType":"fullOffice"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: March keeps its goal while April follows the new policy
	march := decode[GoalDTO](t, s.do(t, http.MethodGet, "/api/goals/2025-03", ""))
	assert.Equal(t, "locked", march.Source)
	assert.True(t, march.Locked)
	assert.Equal(t, 11, march.Goal)

	april := decode[GoalDTO](t, s.do(t, http.MethodGet, "/api/goals/2025-04", ""))
	assert.Equal(t, "fullOffice", april.PolicyType)
	assert.Equal(t, april.WorkingDays, april.Goal)

	// AND: locking again is a no-op
	again := decode[struct {
		LockedNow bool `json:"locked_now"`
	}](t, s.do(t, http.MethodPost, "/api/goals/2025-03/lock", ""))
	assert.False(t, again.LockedNow)
}

func TestPutSettings_TooManyLocations(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/settings", `{"officeLocations":[{"name":"A"},{"name":"B"},{"name":"C"}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.settings.Get().OfficeLocations)
}

func TestPutSettings_Invalid(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/settings", `not json`).Code)
}

func TestGetSettings(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/settings", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Contains(t, got, "trackingDays")
	assert.Contains(t, got, "companyPolicy")
}

func TestPTODays(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: a PTO day on Monday, March 17
	rec := s.do(t, http.MethodPost, "/api/pto/2025-03-17", "")
	require.Equal(t, http.StatusOK, rec.Code)
	added := decode[PTODTO](t, rec)

	// THEN: March drops to 20 working days, goal 10
	assert.True(t, added.Changed)
	assert.Equal(t, []string{"2025-03-17"}, added.Days)
	assert.Equal(t, 10, added.Goal)

	again := decode[PTODTO](t, s.do(t, http.MethodPost, "/api/pto/2025-03-17", ""))
	assert.False(t, again.Changed)

	removed := decode[PTODTO](t, s.do(t, http.MethodDelete, "/api/pto/2025-03-17", ""))
	assert.True(t, removed.Changed)
	assert.Empty(t, removed.Days)
	assert.Equal(t, 11, removed.Goal)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/pto/someday", "").Code)
}

func TestListHolidays(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/holidays?year=2025", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Year     int          `json:"year"`
		Preset   string       `json:"preset"`
		Holidays []HolidayDTO `json:"holidays"`
	}](t, rec)
	assert.Equal(t, 2025, resp.Year)
	assert.Len(t, resp.Holidays, 11)
	assert.Equal(t, "2025-01-01", resp.Holidays[0].Date)
}

// =============================================================================
// WIDGET & RATE LIMIT
// =============================================================================

func TestWidgetSnapshot(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/widget", "").Code)

	s.do(t, http.MethodPost, "/api/visits/enter", `{"at":"2025-03-14T09:00:00Z"}`)

	rec := s.do(t, http.MethodGet, "/api/widget", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[widget.Snapshot](t, rec)
	assert.True(t, snap.IsInOffice)
	assert.False(t, snap.Stale)
	assert.Equal(t, 1, snap.Current)
	assert.Equal(t, 11, snap.Goal)
}

func TestIngestRateLimit(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < IngestRateLimit.Requests; i++ {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/visits/exit", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/api/visits/exit", "").Code)

	// Read routes are not limited.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/status", "").Code)
}
