package settings

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/store"
)

// RepositoryConfig holds configuration for the settings repository.
type RepositoryConfig struct {
	KV     store.KV
	Logger zerolog.Logger
}

// Repository keeps the current settings in memory and writes every change
// through to the key-value store. Updates are serialized.
type Repository struct {
	kv     store.KV
	logger zerolog.Logger

	mu      sync.Mutex
	current Settings
}

// NewRepository creates a repository holding Default() until Load is called.
func NewRepository(cfg RepositoryConfig) *Repository {
	return &Repository{
		kv:      cfg.KV,
		logger:  cfg.Logger.With().Str("component", "settings").Logger(),
		current: Default(),
	}
}

// Load reads the persisted settings. A missing blob keeps the defaults; an
// undecodable one is logged and replaced by the defaults.
func (r *Repository) Load(ctx context.Context) error {
	data, ok, err := r.kv.Get(ctx, store.KeySettings)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !ok {
		r.current = Default()
		return nil
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Error().Err(err).Msg("stored settings are unreadable, using defaults")
		r.current = Default()
		return nil
	}
	normalized, fixes := s.Normalize()
	for _, fix := range fixes {
		r.logger.Warn().Str("fix", fix).Msg("normalized stored settings")
	}
	r.current = normalized
	return nil
}

// Get returns a copy of the current settings.
func (r *Repository) Get() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Clone()
}

// Update applies fn to a copy of the current settings. If fn returns an error
// nothing changes; otherwise the normalized result becomes current and is
// persisted. Persistence failures are logged, not returned.
func (r *Repository) Update(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current.Clone()
	if err := fn(&next); err != nil {
		return r.current.Clone(), err
	}
	return r.commitLocked(ctx, next), nil
}

// Modify is Update for edits that cannot be rejected.
func (r *Repository) Modify(ctx context.Context, fn func(*Settings)) Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current.Clone()
	fn(&next)
	return r.commitLocked(ctx, next)
}

// commitLocked normalizes next, makes it current and persists it. Fixes made
// by Normalize are logged.
func (r *Repository) commitLocked(ctx context.Context, next Settings) Settings {
	next, fixes := next.Normalize()
	for _, fix := range fixes {
		r.logger.Warn().Str("fix", fix).Msg("normalized settings update")
	}
	r.current = next
	r.persistLocked(ctx)
	return r.current.Clone()
}

// Replace swaps in s wholesale. Months already locked keep their current
// goal whatever s carries, so replacing settings never rewrites a lock.
func (r *Repository) Replace(ctx context.Context, s Settings) (Settings, error) {
	return r.Update(ctx, func(cur *Settings) error {
		locked := cur.LockedMonthlyGoals
		*cur = s.Clone()
		for key, goal := range locked {
			cur.LockedMonthlyGoals[key] = goal
		}
		if len(cur.OfficeLocations) > MaxOfficeLocations {
			return ErrTooManyLocations
		}
		return nil
	})
}

func (r *Repository) persistLocked(ctx context.Context) {
	data, err := r.current.Encode()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to encode settings")
		return
	}
	if err := r.kv.Put(ctx, store.KeySettings, data); err != nil {
		r.logger.Error().Err(err).Msg("failed to persist settings")
	}
}
