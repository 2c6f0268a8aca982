/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes visit tracking, goals and settings via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Presence:
    GET    /api/status                 In-office flag and current visit

  Visits:
    POST   /api/visits/enter           Geofence entry (rate limited)
    POST   /api/visits/exit            Geofence exit (rate limited)
    GET    /api/visits?month=&valid_only=
    GET    /api/visits/{date}          One day's visit
    PUT    /api/visits                 Insert or replace a day's visit
    DELETE /api/visits/{date}          Delete one day
    DELETE /api/visits                 Delete everything
    POST   /api/visits/cleanup         Consolidate duplicate days

  Goals:
    GET    /api/progress?month=        Progress against the goal
    GET    /api/goals/{month}          Goal breakdown
    POST   /api/goals/{month}/lock     Freeze the goal

  Settings:
    GET    /api/holidays?year=         Resolved holiday calendar
    GET    /api/settings               Current settings
    PUT    /api/settings               Replace settings
    POST   /api/pto/{date}             Add a PTO/sick day
    DELETE /api/pto/{date}             Remove a PTO/sick day

  Widget:
    GET    /api/widget                 Snapshot with staleness applied

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (active visit already recorded)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
	"github.com/warp/office-attendance/goal"
	"github.com/warp/office-attendance/settings"
	"github.com/warp/office-attendance/store"
	"github.com/warp/office-attendance/visit"
	"github.com/warp/office-attendance/widget"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HandlerConfig holds the dependencies of a Handler.
type HandlerConfig struct {
	Visits   *visit.Store
	Settings *settings.Repository
	Locker   *goal.Locker
	Widget   *widget.Publisher
	KV       store.KV
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	visits   *visit.Store
	settings *settings.Repository
	locker   *goal.Locker
	widget   *widget.Publisher
	kv       store.KV
	now      func() time.Time
	logger   zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(cfg HandlerConfig) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		visits:   cfg.Visits,
		settings: cfg.Settings,
		locker:   cfg.Locker,
		widget:   cfg.Widget,
		kv:       cfg.KV,
		now:      now,
		logger:   cfg.Logger.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// PRESENCE & VISIT HANDLERS
// =============================================================================

// GetStatus returns whether the user is in the office today.
// GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := StatusDTO{Today: h.visits.Today().String()}
	if v, ok := h.visits.CurrentVisit(); ok {
		dto := toVisitDTO(v)
		resp.IsInOffice = true
		resp.CurrentVisit = &dto
		resp.ElapsedSeconds = v.ElapsedAt(now).Seconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

// EnterOffice records a geofence entry.
// POST /api/visits/enter
func (h *Handler) EnterOffice(w http.ResponseWriter, r *http.Request) {
	var req EnterRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	at := h.now()
	if req.At != nil {
		at = *req.At
	}
	v := h.visits.StartVisit(r.Context(), at, geo.NewCoordinate(req.Latitude, req.Longitude))
	writeJSON(w, http.StatusOK, toVisitDTO(v))
}

// ExitOffice records a geofence exit.
// POST /api/visits/exit
func (h *Handler) ExitOffice(w http.ResponseWriter, r *http.Request) {
	var req ExitRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	at := h.now()
	if req.At != nil {
		at = *req.At
	}
	v, ok := h.visits.EndVisit(r.Context(), at)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ended": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ended": true, "visit": toVisitDTO(v)})
}

// ListVisits returns the visits of a month.
// GET /api/visits?month=YYYY-MM&valid_only=true
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	month, err := h.monthParam(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	var visits []*visit.OfficeVisit
	if validOnly, _ := strconv.ParseBool(r.URL.Query().Get("valid_only")); validOnly {
		visits = h.visits.ValidVisitsForMonth(month)
	} else {
		visits = h.visits.VisitsForMonth(month)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":  month.Key(),
		"visits": toVisitDTOs(visits),
	})
}

// GetVisit returns one day's visit.
// GET /api/visits/{date}
func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request) {
	day, err := calendar.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	v, err := h.visits.Visit(day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitDTO(v))
}

// UpsertVisit inserts or replaces a day's visit.
// PUT /api/visits
func (h *Handler) UpsertVisit(w http.ResponseWriter, r *http.Request) {
	var req UpsertVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := calendar.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	v := visit.NewVisit(day, geo.NewCoordinate(req.Latitude, req.Longitude))
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid visit id", err)
			return
		}
		v.ID = id
	}
	for i, e := range req.Events {
		if err := v.StartNewSession(e.EntryTime); err != nil {
			writeError(w, http.StatusBadRequest, "Only the last event may be open", err)
			return
		}
		if e.ExitTime != nil {
			v.EndCurrentSession(*e.ExitTime)
		} else if i < len(req.Events)-1 {
			writeError(w, http.StatusBadRequest, "Only the last event may be open", visit.ErrSessionActive)
			return
		}
	}

	if err := h.visits.AddOrUpdate(r.Context(), v); err != nil {
		writeDomainError(w, err)
		return
	}
	saved, err := h.visits.Visit(day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitDTO(saved))
}

// DeleteVisit removes one day's visit.
// DELETE /api/visits/{date}
func (h *Handler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	day, err := calendar.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if !h.visits.Delete(r.Context(), day) {
		writeError(w, http.StatusNotFound, "Visit not found", visit.ErrVisitNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearVisits deletes every visit.
// DELETE /api/visits
func (h *Handler) ClearVisits(w http.ResponseWriter, r *http.Request) {
	h.visits.ClearAllData(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// CleanupVisits consolidates days with several records.
// POST /api/visits/cleanup
func (h *Handler) CleanupVisits(w http.ResponseWriter, r *http.Request) {
	repaired := h.visits.CleanupDuplicateEntries(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"repaired": repaired})
}

// =============================================================================
// PROGRESS & GOAL HANDLERS
// =============================================================================

// GetProgress returns progress against the goal.
// GET /api/progress?month=YYYY-MM
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	month, err := h.monthParam(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressDTO(h.visits.ProgressFor(month)))
}

// GetGoal returns the goal breakdown of a month.
// GET /api/goals/{month}
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	month, err := settings.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(goal.Compute(h.settings.Get(), month)))
}

// LockGoal freezes a month's goal at its current value.
// POST /api/goals/{month}/lock
func (h *Handler) LockGoal(w http.ResponseWriter, r *http.Request) {
	month, err := settings.ParseMonthKey(chi.URLParam(r, "month"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	_, written := h.locker.Lock(r.Context(), month)
	h.publishWidget(r.Context())

	dto := toGoalDTO(goal.Compute(h.settings.Get(), month))
	writeJSON(w, http.StatusOK, map[string]any{"locked_now": written, "goal": dto})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// ListHolidays returns the configured calendar's holidays for a year.
// GET /api/holidays?year=2025
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.visits.Today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}
	cal := h.settings.Get().HolidayCalendar
	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"preset":   cal.Preset,
		"holidays": toHolidayDTOs(cal.Resolve(year)),
	})
}

// GetSettings returns the persisted settings document.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Get())
}

// PutSettings replaces the settings. Locked goals are preserved.
// PUT /api/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	var probe struct {
		OfficeLocations []json.RawMessage `json:"officeLocations"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && len(probe.OfficeLocations) > settings.MaxOfficeLocations {
		writeDomainError(w, settings.ErrTooManyLocations)
		return
	}
	next, err := settings.Decode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	saved, err := h.settings.Replace(r.Context(), next)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.publishWidget(r.Context())
	writeJSON(w, http.StatusOK, saved)
}

// AddPTODay records a PTO/sick day.
// POST /api/pto/{date}
func (h *Handler) AddPTODay(w http.ResponseWriter, r *http.Request) {
	h.editPTO(w, r, (*settings.Settings).AddPTODay)
}

// RemovePTODay removes a PTO/sick day.
// DELETE /api/pto/{date}
func (h *Handler) RemovePTODay(w http.ResponseWriter, r *http.Request) {
	h.editPTO(w, r, (*settings.Settings).RemovePTODay)
}

func (h *Handler) editPTO(w http.ResponseWriter, r *http.Request, edit func(*settings.Settings, calendar.Day) bool) {
	day, err := calendar.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	changed := false
	saved := h.settings.Modify(r.Context(), func(s *settings.Settings) {
		changed = edit(s, day)
	})
	if changed {
		h.publishWidget(r.Context())
	}
	month := day.Month()
	writeJSON(w, http.StatusOK, PTODTO{
		Date:    day.String(),
		Changed: changed,
		Month:   month.Key(),
		Days:    dayStrings(saved.PTODays(month)),
		Goal:    goal.MonthlyGoal(saved, month),
	})
}

// =============================================================================
// WIDGET HANDLER
// =============================================================================

// GetWidget returns the widget snapshot as seen now.
// GET /api/widget
func (h *Handler) GetWidget(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := widget.Read(r.Context(), h.kv, h.now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read widget snapshot")
		writeError(w, http.StatusInternalServerError, "Failed to read widget snapshot", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "No widget snapshot published", nil)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) publishWidget(ctx context.Context) {
	if h.widget != nil {
		h.widget.Publish(ctx, h.visits)
	}
}

// monthParam parses a "YYYY-MM" query value; empty means the current month.
func (h *Handler) monthParam(raw string) (calendar.Month, error) {
	if raw == "" {
		return h.visits.Today().Month(), nil
	}
	return settings.ParseMonthKey(raw)
}

// decodeOptionalBody decodes a JSON body when one is present.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, visit.ErrDuplicatePrevented):
		writeError(w, http.StatusConflict, "Active visit already recorded for this day", err)
	case errors.Is(err, visit.ErrVisitNotFound):
		writeError(w, http.StatusNotFound, "Visit not found", err)
	case errors.Is(err, settings.ErrTooManyLocations):
		writeError(w, http.StatusBadRequest, "Too many office locations", err)
	case errors.Is(err, settings.ErrInvalidMonthKey):
		writeError(w, http.StatusBadRequest, "Invalid month", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
