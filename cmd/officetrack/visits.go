package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
	"github.com/warp/office-attendance/visit"
)

func newEnterCmd(opts *rootOptions) *cobra.Command {
	var (
		lat, lon float64
		at       string
	)
	cmd := &cobra.Command{
		Use:   "enter",
		Short: "Record arriving at the office",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			when, err := parseAt(at, a.now)
			if err != nil {
				return err
			}
			v := a.visits.StartVisit(commandContext(cmd), when, geo.NewCoordinate(lat, lon))
			fmt.Fprintf(cmd.OutOrStdout(), "In office since %s (%s, session %d)\n",
				when.In(a.loc).Format("15:04"), v.Date, v.SessionCount())
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the entry point")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the entry point")
	cmd.Flags().StringVar(&at, "at", "", "Entry time (RFC3339, default now)")
	return cmd
}

func newExitCmd(opts *rootOptions) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "exit",
		Short: "Record leaving the office",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			when, err := parseAt(at, a.now)
			if err != nil {
				return err
			}
			v, ok := a.visits.EndVisit(commandContext(cmd), when)
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No active visit.")
				return nil
			}
			d, _ := v.Duration()
			label := "Today"
			if !v.Date.Equal(calendar.DayIn(when, a.loc)) {
				label = v.Date.String()
			}
			fmt.Fprintf(out, "Left at %s. %s: %s", when.In(a.loc).Format("15:04"), label, formatDuration(d))
			if !v.IsValidVisit() {
				fmt.Fprintf(out, " (under %s, not counted yet)", formatDuration(visit.MinValidDuration))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Exit time (RFC3339, default now)")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you are in the office",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if v, ok := a.visits.CurrentVisit(); ok {
				entry, _ := v.EntryTime()
				fmt.Fprintln(out, "In office:")
				fmt.Fprintf(out, "  Since:    %s\n", entry.In(a.loc).Format("15:04"))
				fmt.Fprintf(out, "  Sessions: %d\n", v.SessionCount())
				fmt.Fprintf(out, "  Elapsed:  %s\n", formatDuration(v.ElapsedAt(a.now())))
			} else {
				fmt.Fprintln(out, "Not in office.")
			}
			p := a.visits.MonthProgress()
			fmt.Fprintf(out, "%s: %d of %d days\n", p.Month, p.Current, p.Goal)
			return nil
		},
	}
}

func newCleanupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Consolidate days recorded more than once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			n := a.visits.CleanupDuplicateEntries(commandContext(cmd))
			fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d day(s).\n", n)
			return nil
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseAt(raw string, now func() time.Time) (time.Time, error) {
	if raw == "" {
		return now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q (use RFC3339)", raw)
	}
	return t, nil
}

// formatDuration renders d as "1h 05m" or "12m".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
