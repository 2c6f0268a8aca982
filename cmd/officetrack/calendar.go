package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/settings"
)

func newHolidaysCmd(opts *rootOptions) *cobra.Command {
	var (
		year   int
		preset string
	)
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List the holidays of the configured calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if year == 0 {
				year = a.visits.Today().Year()
			}
			var (
				title    string
				holidays []calendar.Holiday
			)
			if preset != "" {
				p := calendar.Preset(preset)
				if !p.Valid() {
					return fmt.Errorf("unknown preset %q (use nyse, usFederal or none)", preset)
				}
				title, holidays = p.DisplayName(), calendar.Holidays(p, year)
			} else {
				hc := a.settings.Get().HolidayCalendar
				title, holidays = hc.Preset.DisplayName(), hc.Resolve(year)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s holidays %d:\n", title, year)
			for _, h := range holidays {
				fmt.Fprintf(out, "  %s  %-3s  %s\n", h.Date, h.Date.Weekday().String()[:3], h.Name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default current)")
	cmd.Flags().StringVar(&preset, "preset", "", "Show a preset instead of the configured calendar")
	return cmd
}

func newPTOCmd(opts *rootOptions) *cobra.Command {
	pto := &cobra.Command{
		Use:   "pto",
		Short: "Manage PTO and sick days",
	}
	pto.AddCommand(newPTOEditCmd(opts, "add", "Record a PTO or sick day", true))
	pto.AddCommand(newPTOEditCmd(opts, "remove", "Remove a PTO or sick day", false))
	return pto
}

func newPTOEditCmd(opts *rootOptions, use, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <YYYY-MM-DD>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := calendar.ParseDay(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(commandContext(cmd), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			changed := false
			saved := a.settings.Modify(commandContext(cmd), func(s *settings.Settings) {
				if add {
					changed = s.AddPTODay(day)
				} else {
					changed = s.RemovePTODay(day)
				}
			})
			if changed {
				a.widget.Publish(commandContext(cmd), a.visits)
			}

			out := cmd.OutOrStdout()
			switch {
			case changed && add:
				fmt.Fprintf(out, "Added %s.\n", day)
			case changed:
				fmt.Fprintf(out, "Removed %s.\n", day)
			case add:
				fmt.Fprintf(out, "%s already recorded.\n", day)
			default:
				fmt.Fprintf(out, "%s was not recorded.\n", day)
			}
			m := day.Month()
			fmt.Fprintf(out, "%s: %d PTO/sick day(s)\n", m, len(saved.PTODays(m)))
			return nil
		},
	}
}
