package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/config"
	"github.com/warp/office-attendance/goal"
	"github.com/warp/office-attendance/settings"
	"github.com/warp/office-attendance/store/sqlite"
	"github.com/warp/office-attendance/visit"
	"github.com/warp/office-attendance/widget"
)

// app is the wired dependency graph shared by the subcommands.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	loc      *time.Location
	now      func() time.Time
	kv       *sqlite.Store
	settings *settings.Repository
	visits   *visit.Store
	locker   *goal.Locker
	widget   *widget.Publisher
}

// openApp opens the database, loads settings and visits and applies the goal
// lock policy to months that have ended since the last run. Logs go to logOut.
func openApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := opts.resolveConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	lockPolicy, err := goal.ParseLockPolicy(cfg.LockPolicy)
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.LogLevel, logOut)

	kv, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, log: log, loc: loc, now: time.Now, kv: kv}

	a.settings = settings.NewRepository(settings.RepositoryConfig{KV: kv, Logger: log})
	if err := a.settings.Load(ctx); err != nil {
		kv.Close()
		return nil, err
	}

	a.widget = widget.NewPublisher(widget.PublisherConfig{KV: kv, Now: a.now, Logger: log})
	a.visits = visit.NewStore(visit.StoreConfig{
		KV:       kv,
		Goals:    goal.Provider{Settings: a.settings},
		Location: loc,
		Now:      a.now,
		Logger:   log,
		OnChange: func(ctx context.Context) { a.widget.Publish(ctx, a.visits) },
	})
	if err := a.visits.Load(ctx); err != nil {
		kv.Close()
		return nil, err
	}

	a.locker = goal.NewLocker(goal.LockerConfig{
		Settings: a.settings,
		Policy:   lockPolicy,
		History:  a.visits.FirstMonth,
		Logger:   log,
	})
	a.locker.Reconcile(ctx, a.visits.Today())
	return a, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}
