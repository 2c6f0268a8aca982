package main

import (
	"github.com/spf13/cobra"

	"github.com/warp/office-attendance/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dbPath   string
	timezone string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "officetrack",
		Short: "Office attendance tracker",
		Long: `officetrack records office visits from geofence enter/exit events and
reports progress against a monthly in-office goal derived from the company
policy, the holiday calendar and PTO days.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (env OFFICETRACK_DB)")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", "", "IANA timezone for calendar days (env OFFICETRACK_TIMEZONE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (env OFFICETRACK_LOG_LEVEL)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newEnterCmd(opts))
	root.AddCommand(newExitCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newProgressCmd(opts))
	root.AddCommand(newGoalCmd(opts))
	root.AddCommand(newHolidaysCmd(opts))
	root.AddCommand(newPTOCmd(opts))
	root.AddCommand(newCleanupCmd(opts))
	return root
}

// resolveConfig loads the environment configuration and applies flag overrides.
func (o *rootOptions) resolveConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.timezone != "" {
		cfg.Timezone = o.timezone
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}
