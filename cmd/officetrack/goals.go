package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/goal"
	"github.com/warp/office-attendance/settings"
)

func newProgressCmd(opts *rootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show attendance against the monthly goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := monthOrCurrent(month, a)
			if err != nil {
				return err
			}
			p := a.visits.ProgressFor(m)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d / %d days (%.0f%%)\n", p.Month, p.Current, p.Goal, p.Percentage*100)
			if p.IsComplete() {
				fmt.Fprintln(out, "Goal reached.")
			} else {
				fmt.Fprintf(out, "%d day(s) to go.\n", p.Remaining())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default current)")
	return cmd
}

func newGoalCmd(opts *rootOptions) *cobra.Command {
	var lock bool
	cmd := &cobra.Command{
		Use:   "goal [YYYY-MM]",
		Short: "Show how the monthly goal is computed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			m, err := monthOrCurrent(raw, a)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if lock {
				g, written := a.locker.Lock(commandContext(cmd), m)
				if written {
					fmt.Fprintf(out, "Locked %s at %d days.\n", m, g)
				} else {
					fmt.Fprintf(out, "%s already locked at %d days.\n", m, g)
				}
			}
			printBreakdown(cmd, goal.Compute(a.settings.Get(), m))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lock, "lock", false, "Freeze the goal at its current value")
	return cmd
}

func printBreakdown(cmd *cobra.Command, b goal.Breakdown) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Goal for %s: %d days (%s)\n", b.Month, b.Goal, b.Source)
	if b.Source != goal.SourceAuto {
		return
	}
	fmt.Fprintf(out, "  Tracked weekdays: %d\n", b.Weekdays)
	names := make([]string, len(b.Holidays))
	for i, h := range b.Holidays {
		names[i] = fmt.Sprintf("%s %s", h.Date, h.Name)
	}
	fmt.Fprintf(out, "  Holidays:         %d", len(b.Holidays))
	if len(names) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(names, ", "))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Business days:    %d\n", b.BusinessDays)
	fmt.Fprintf(out, "  PTO / sick days:  %d\n", b.PTODays)
	fmt.Fprintf(out, "  Working days:     %d\n", b.WorkingDays)
	fmt.Fprintf(out, "  Policy:           %s (%s%%)\n",
		b.Policy.Type.DisplayName(), b.Policy.RequiredPercentage().Shift(2).String())
}

func monthOrCurrent(raw string, a *app) (calendar.Month, error) {
	if raw == "" {
		return a.visits.Today().Month(), nil
	}
	return settings.ParseMonthKey(raw)
}
