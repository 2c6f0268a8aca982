/*
Package widget publishes a read-only progress snapshot for widget consumers.

PURPOSE:
  Home-screen style widgets run outside the app and must not open the visit
  store. The app writes a small Snapshot under store.KeyWidgetSnapshot after
  every change; readers only ever decode that key.

STALENESS:
  A snapshot older than MaxAge cannot vouch for presence any more: it is
  returned with IsInOffice=false and Stale=true. Progress numbers are kept.

SEE ALSO:
  - visit/store.go: StoreConfig.OnChange triggers Publish
*/
package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/store"
	"github.com/warp/office-attendance/visit"
)

// MaxAge is how long a snapshot's presence flag is trusted.
const MaxAge = 24 * time.Hour

// Snapshot is the persisted widget view.
type Snapshot struct {
	UpdatedAt  time.Time      `json:"updatedAt"`
	Month      calendar.Month `json:"month"`
	Current    int            `json:"current"`
	Goal       int            `json:"goal"`
	Percentage float64        `json:"percentage"`
	IsInOffice bool           `json:"isInOffice"`
	EntryTime  *time.Time     `json:"entryTime,omitempty"`
	Stale      bool           `json:"stale"`
}

// Source is what a Publisher reads from. *visit.Store satisfies it.
type Source interface {
	MonthProgress() visit.Progress
	CurrentVisit() (*visit.OfficeVisit, bool)
}

// PublisherConfig holds the dependencies of a Publisher.
type PublisherConfig struct {
	KV     store.KV
	Now    func() time.Time
	Logger zerolog.Logger
}

// Publisher writes snapshots.
type Publisher struct {
	kv     store.KV
	now    func() time.Time
	logger zerolog.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Publisher{
		kv:     cfg.KV,
		now:    now,
		logger: cfg.Logger.With().Str("component", "widget").Logger(),
	}
}

// Build assembles a snapshot from src without persisting it.
func (p *Publisher) Build(src Source) Snapshot {
	progress := src.MonthProgress()
	snap := Snapshot{
		UpdatedAt:  p.now().UTC(),
		Month:      progress.Month,
		Current:    progress.Current,
		Goal:       progress.Goal,
		Percentage: progress.Percentage,
	}
	if v, ok := src.CurrentVisit(); ok {
		snap.IsInOffice = true
		if entry, ok := v.EntryTime(); ok {
			snap.EntryTime = &entry
		}
	}
	return snap
}

// Publish builds and persists a snapshot. Failures are logged.
func (p *Publisher) Publish(ctx context.Context, src Source) Snapshot {
	snap := p.Build(src)
	data, err := json.Marshal(snap)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode widget snapshot")
		return snap
	}
	if err := p.kv.Put(ctx, store.KeyWidgetSnapshot, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to persist widget snapshot")
		return snap
	}
	p.logger.Debug().
		Int("current", snap.Current).
		Int("goal", snap.Goal).
		Bool("in_office", snap.IsInOffice).
		Msg("widget snapshot published")
	return snap
}

// Read returns the persisted snapshot with staleness applied at now. ok is
// false when nothing has been published yet.
func Read(ctx context.Context, kv store.KV, now time.Time) (snap Snapshot, ok bool, err error) {
	data, ok, err := kv.Get(ctx, store.KeyWidgetSnapshot)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode widget snapshot: %w", err)
	}
	return snap.At(now), true, nil
}

// At returns the snapshot as seen at now.
func (s Snapshot) At(now time.Time) Snapshot {
	if now.Sub(s.UpdatedAt) > MaxAge {
		s.Stale = true
		s.IsInOffice = false
		s.EntryTime = nil
	}
	return s
}
