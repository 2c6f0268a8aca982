package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/office-attendance/api"
	"github.com/warp/office-attendance/goal"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the goal-lock scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (env OFFICETRACK_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, port int) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, opts, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Port
	}

	// Goal-lock scheduler
	scheduler := goal.NewLockScheduler(goal.SchedulerConfig{
		Locker:        a.locker,
		Logger:        a.log,
		CheckInterval: a.cfg.LockInterval,
		Location:      a.loc,
		Now:           a.now,
	})
	scheduler.Start()
	defer scheduler.Stop()

	a.widget.Publish(ctx, a.visits)

	handler := api.NewHandler(api.HandlerConfig{
		Visits:   a.visits,
		Settings: a.settings,
		Locker:   a.locker,
		Widget:   a.widget,
		KV:       a.kv,
		Now:      a.now,
		Logger:   a.log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(handler, a.log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Int("port", port).Str("db", a.cfg.DBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info().Msg("server stopped")
	return nil
}
