package visit

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
	"github.com/warp/office-attendance/store"
)

// GoalProvider returns the goal a month's progress is measured against.
type GoalProvider interface {
	GoalFor(m calendar.Month) int
}

// StoreConfig holds the dependencies of a Store.
type StoreConfig struct {
	KV       store.KV
	Goals    GoalProvider
	Location *time.Location // calendar days are resolved here; nil means time.Local
	Now      func() time.Time
	Logger   zerolog.Logger
	OnChange func(ctx context.Context) // called after every persisted mutation
}

// Store holds at most one OfficeVisit per calendar day.
//
// Every find/mutate/persist sequence runs under one mutex. Persistence is
// fire-and-forget: write failures are logged and the in-memory state stays
// authoritative.
type Store struct {
	kv       store.KV
	goals    GoalProvider
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
	onChange func(ctx context.Context)

	mu     sync.Mutex
	visits []*OfficeVisit
}

// NewStore creates an empty store. Call Load to read persisted visits.
func NewStore(cfg StoreConfig) *Store {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		kv:       cfg.KV,
		goals:    cfg.Goals,
		loc:      loc,
		now:      now,
		logger:   cfg.Logger.With().Str("component", "visit_store").Logger(),
		onChange: cfg.OnChange,
	}
}

// Location returns the location calendar days are resolved in.
func (s *Store) Location() *time.Location { return s.loc }

// Today returns the current calendar day.
func (s *Store) Today() calendar.Day { return calendar.DayIn(s.now(), s.loc) }

// =============================================================================
// LOADING & MIGRATION
// =============================================================================

// Load reads persisted visits, upgrading legacy payloads, merging a legacy
// current-visit snapshot and consolidating duplicate days. An undecodable
// payload is copied to store.KeyVisitsCorrupt and replaced by an empty list;
// when only some records are unreadable those are dropped and the rest kept.
// Only a failing read returns an error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.kv.Get(ctx, store.KeyVisits)
	if err != nil {
		return fmt.Errorf("read visits: %w", err)
	}

	dirty := false
	s.visits = nil
	if ok {
		visits, migrated, skipped, err := DecodeVisits(data, s.loc)
		switch {
		case err != nil:
			s.logger.Error().Err(err).Msg("visits payload undecodable, backing it up and starting empty")
			s.backupLocked(ctx, data)
			dirty = true
		default:
			s.visits = visits
			if migrated {
				s.logger.Info().Int("visits", len(visits)).Msg("upgraded legacy visits payload")
				dirty = true
			}
			if len(skipped) > 0 {
				for _, skipErr := range skipped {
					s.logger.Warn().Err(skipErr).Msg("skipping undecodable visit record")
				}
				s.backupLocked(ctx, data)
				dirty = true
			}
		}
	}

	if s.mergeLegacyCurrentVisit(ctx) {
		dirty = true
	}
	if repaired := s.cleanupLocked(); repaired > 0 {
		dirty = true
	}
	s.sortLocked()

	if dirty {
		s.persistLocked(ctx)
	}
	return nil
}

// backupLocked keeps the raw payload under store.KeyVisitsCorrupt before it
// is overwritten with what could be recovered.
func (s *Store) backupLocked(ctx context.Context, data []byte) {
	if err := s.kv.Put(ctx, store.KeyVisitsCorrupt, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to back up visits payload")
	}
}

// mergeLegacyCurrentVisit folds the old standalone "current visit" snapshot
// into the store when it belongs to today and today has no record yet, then
// removes the legacy keys.
func (s *Store) mergeLegacyCurrentVisit(ctx context.Context) bool {
	merged := false
	data, ok, err := s.kv.Get(ctx, store.KeyLegacyCurrentVisit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read legacy current visit")
		return false
	}
	if ok {
		v, err := decodeLegacyVisit(data, s.loc)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("discarding undecodable legacy current visit")
		case !v.Date.Equal(s.Today()):
			s.logger.Info().Str("date", v.Date.String()).Msg("discarding stale legacy current visit")
		case s.indexLocked(v.Date) >= 0:
			s.logger.Info().Str("date", v.Date.String()).Msg("legacy current visit already recorded")
		default:
			s.visits = append(s.visits, v)
			merged = true
			s.logger.Info().Str("date", v.Date.String()).Msg("merged legacy current visit")
		}
	}
	for _, key := range []string{store.KeyLegacyCurrentVisit, store.KeyLegacyInOffice} {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to delete legacy key")
		}
	}
	return merged
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddOrUpdate inserts v or replaces the record for v.Date. It fails with
// ErrDuplicatePrevented when that day already has an active session.
func (s *Store) AddOrUpdate(ctx context.Context, v *OfficeVisit) error {
	s.mu.Lock()
	if i := s.indexLocked(v.Date); i >= 0 && s.visits[i].IsActiveSession() {
		existing := s.visits[i]
		s.mu.Unlock()
		s.logger.Warn().Str("date", v.Date.String()).Msg("duplicate visit prevented")
		return &DuplicateVisitError{Date: v.Date, ExistingID: existing.ID.String()}
	}

	c := v.Clone()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Events == nil {
		c.Events = []OfficeEvent{}
	}
	c.Coordinate = geo.NewCoordinate(c.Coordinate.Latitude, c.Coordinate.Longitude)

	s.removeDayLocked(c.Date)
	s.visits = append(s.visits, c)
	s.sortLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changed(ctx)
	return nil
}

// StartVisit records an entry at at. An already active visit is returned
// unchanged; a closed visit of the same day gets a new session; otherwise a
// new visit is created.
func (s *Store) StartVisit(ctx context.Context, at time.Time, coord geo.Coordinate) *OfficeVisit {
	day := calendar.DayIn(at, s.loc)

	s.mu.Lock()
	var v *OfficeVisit
	if i := s.indexLocked(day); i >= 0 {
		v = s.visits[i]
		if v.IsActiveSession() {
			out := v.Clone()
			s.mu.Unlock()
			s.logger.Debug().Str("date", day.String()).Msg("visit already active")
			return out
		}
		_ = v.StartNewSession(at)
		s.logger.Info().Str("date", day.String()).Int("session", v.SessionCount()).Msg("visit resumed")
	} else {
		v = NewVisit(day, coord)
		_ = v.StartNewSession(at)
		s.visits = append(s.visits, v)
		s.sortLocked()
		s.logger.Info().Str("date", day.String()).Msg("visit started")
	}
	out := v.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changed(ctx)
	return out
}

// EndVisit closes the open session of the day of at or, when that day has
// none, the latest open session before it. A session carried over from an
// earlier day ends at midnight following that day. It reports false when no
// session is open.
func (s *Store) EndVisit(ctx context.Context, at time.Time) (*OfficeVisit, bool) {
	day := calendar.DayIn(at, s.loc)
	s.mu.Lock()
	i := s.openIndexLocked(day)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug().Str("date", day.String()).Msg("no active visit to end")
		return nil, false
	}
	v := s.visits[i]
	exit := at
	if dayEnd := v.Date.AddDays(1).Start(s.loc); exit.After(dayEnd) {
		exit = dayEnd
	}
	v.EndCurrentSession(exit)
	out := v.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	d, _ := out.Duration()
	s.logger.Info().
		Str("date", out.Date.String()).
		Dur("duration", d).
		Bool("valid", out.IsValidVisit()).
		Bool("carried_over", !out.Date.Equal(day)).
		Msg("visit ended")
	s.changed(ctx)
	return out, true
}

// openIndexLocked finds the visit EndVisit should close: day's own open visit
// first, then the latest open visit dated before day.
func (s *Store) openIndexLocked(day calendar.Day) int {
	if i := s.indexLocked(day); i >= 0 && s.visits[i].IsActiveSession() {
		return i
	}
	for i := len(s.visits) - 1; i >= 0; i-- {
		v := s.visits[i]
		if v.Date.Before(day) && v.IsActiveSession() {
			return i
		}
	}
	return -1
}

// Delete removes the visit of day.
func (s *Store) Delete(ctx context.Context, day calendar.Day) bool {
	s.mu.Lock()
	if !s.removeDayLocked(day) {
		s.mu.Unlock()
		return false
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changed(ctx)
	return true
}

// ClearAllData removes every visit.
func (s *Store) ClearAllData(ctx context.Context) {
	s.mu.Lock()
	s.visits = nil
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info().Msg("all visits cleared")
	s.changed(ctx)
}

// CleanupDuplicateEntries consolidates days holding several records into a
// single visit and returns the number of days repaired.
func (s *Store) CleanupDuplicateEntries(ctx context.Context) int {
	s.mu.Lock()
	repaired := s.cleanupLocked()
	if repaired > 0 {
		s.sortLocked()
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if repaired > 0 {
		s.changed(ctx)
	}
	return repaired
}

// cleanupLocked merges same-day records. The earliest record supplies the id,
// date and coordinate; events are ordered by entry time and every open event
// that is followed by another one is closed at that event's entry.
func (s *Store) cleanupLocked() int {
	byDay := make(map[calendar.Day][]*OfficeVisit)
	var order []calendar.Day
	for _, v := range s.visits {
		if _, seen := byDay[v.Date]; !seen {
			order = append(order, v.Date)
		}
		byDay[v.Date] = append(byDay[v.Date], v)
	}

	repaired := 0
	out := make([]*OfficeVisit, 0, len(order))
	for _, day := range order {
		group := byDay[day]
		if len(group) == 1 && !needsRepair(group[0]) {
			out = append(out, group[0])
			continue
		}

		slices.SortStableFunc(group, func(a, b *OfficeVisit) int {
			return compareFirstEntry(a, b)
		})
		base := group[0].Clone()
		base.Events = nil
		for _, v := range group {
			base.Events = append(base.Events, v.Clone().Events...)
		}
		if base.Events == nil {
			base.Events = []OfficeEvent{}
		}
		slices.SortStableFunc(base.Events, func(a, b OfficeEvent) int {
			return a.EntryTime.Compare(b.EntryTime)
		})
		for i := 0; i < len(base.Events)-1; i++ {
			if base.Events[i].IsOpen() {
				exit := base.Events[i+1].EntryTime
				base.Events[i].ExitTime = &exit
			}
		}

		out = append(out, base)
		repaired++
		s.logger.Info().
			Str("date", day.String()).
			Int("records", len(group)).
			Int("sessions", len(base.Events)).
			Msg("consolidated visit records")
	}
	s.visits = out
	return repaired
}

func needsRepair(v *OfficeVisit) bool {
	for i := 0; i < len(v.Events)-1; i++ {
		if v.Events[i].IsOpen() || v.Events[i+1].EntryTime.Before(v.Events[i].EntryTime) {
			return true
		}
	}
	return false
}

func compareFirstEntry(a, b *OfficeVisit) int {
	ea, okA := a.EntryTime()
	eb, okB := b.EntryTime()
	switch {
	case okA && okB:
		return ea.Compare(eb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Visits returns all visits ordered by date.
func (s *Store) Visits() []*OfficeVisit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.visits)
}

// Visit returns the visit of day.
func (s *Store) Visit(day calendar.Day) (*OfficeVisit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(day)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", day, ErrVisitNotFound)
	}
	return s.visits[i].Clone(), nil
}

// CurrentVisit returns today's visit when it has an open session.
func (s *Store) CurrentVisit() (*OfficeVisit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(s.Today())
	if i < 0 || !s.visits[i].IsActiveSession() {
		return nil, false
	}
	return s.visits[i].Clone(), true
}

// IsInOffice reports whether today's visit has an open session.
func (s *Store) IsInOffice() bool {
	_, ok := s.CurrentVisit()
	return ok
}

// FirstMonth returns the month of the oldest visit.
func (s *Store) FirstMonth() (calendar.Month, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.visits) == 0 {
		return calendar.Month{}, false
	}
	return s.visits[0].Date.Month(), true
}

// VisitsForMonth returns the visits dated in m.
func (s *Store) VisitsForMonth(m calendar.Month) []*OfficeVisit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*OfficeVisit
	for _, v := range s.visits {
		if m.Contains(v.Date) {
			out = append(out, v.Clone())
		}
	}
	return out
}

// ValidVisitsForMonth returns the valid visits dated in m.
func (s *Store) ValidVisitsForMonth(m calendar.Month) []*OfficeVisit {
	var out []*OfficeVisit
	for _, v := range s.VisitsForMonth(m) {
		if v.IsValidVisit() {
			out = append(out, v)
		}
	}
	return out
}

// =============================================================================
// PROGRESS
// =============================================================================

// Progress is attendance against the goal for one month.
type Progress struct {
	Month      calendar.Month `json:"month"`
	Current    int            `json:"current"`
	Goal       int            `json:"goal"`
	Percentage float64        `json:"percentage"`
}

// IsComplete reports whether the goal has been reached.
func (p Progress) IsComplete() bool { return p.Goal > 0 && p.Current >= p.Goal }

// Remaining returns the visits still needed, never negative.
func (p Progress) Remaining() int { return max(0, p.Goal-p.Current) }

// NewProgress builds a Progress, clamping the percentage to [0, 1]. A goal of
// zero or less yields 0.
func NewProgress(m calendar.Month, current, goal int) Progress {
	p := Progress{Month: m, Current: current, Goal: goal}
	if goal > 0 {
		p.Percentage = min(1, max(0, float64(current)/float64(goal)))
	}
	return p
}

// MonthProgress returns progress for the current month.
func (s *Store) MonthProgress() Progress {
	return s.ProgressFor(s.Today().Month())
}

// ProgressFor counts valid or active visits in m against the month's goal.
func (s *Store) ProgressFor(m calendar.Month) Progress {
	current := 0
	for _, v := range s.VisitsForMonth(m) {
		if v.IsValidVisit() || v.IsActiveSession() {
			current++
		}
	}
	goal := 0
	if s.goals != nil {
		goal = s.goals.GoalFor(m)
	}
	return NewProgress(m, current, goal)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Store) indexLocked(day calendar.Day) int {
	for i, v := range s.visits {
		if v.Date.Equal(day) {
			return i
		}
	}
	return -1
}

func (s *Store) removeDayLocked(day calendar.Day) bool {
	before := len(s.visits)
	s.visits = slices.DeleteFunc(s.visits, func(v *OfficeVisit) bool {
		return v.Date.Equal(day)
	})
	return len(s.visits) != before
}

func (s *Store) sortLocked() {
	slices.SortStableFunc(s.visits, func(a, b *OfficeVisit) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return 0
		}
	})
}

func (s *Store) persistLocked(ctx context.Context) {
	data, err := EncodeVisits(s.visits)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode visits")
		return
	}
	if err := s.kv.Put(ctx, store.KeyVisits, data); err != nil {
		s.logger.Error().Err(err).Int("visits", len(s.visits)).Msg("failed to persist visits")
	}
}

func (s *Store) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func cloneAll(visits []*OfficeVisit) []*OfficeVisit {
	out := make([]*OfficeVisit, len(visits))
	for i, v := range visits {
		out[i] = v.Clone()
	}
	return out
}
