/*
main.go - Application entry point

PURPOSE:
  officetrack records office attendance from geofence events and reports
  progress against a monthly in-office goal.

COMMANDS:
  serve                       HTTP API plus the goal-lock scheduler
  enter / exit / status       Record and inspect presence
  progress [--month]          Progress against the goal
  goal [month] [--lock]       Goal breakdown, optional lock
  holidays [--year]           Resolved holiday calendar
  pto add|remove <date>       PTO / sick days
  cleanup                     Consolidate duplicate day records

ENVIRONMENT:
  OFFICETRACK_DB, OFFICETRACK_PORT, OFFICETRACK_TIMEZONE,
  OFFICETRACK_LOG_LEVEL, OFFICETRACK_LOCK_POLICY, OFFICETRACK_LOCK_INTERVAL.
  Flags override environment values.

EXAMPLES:
  # Run the API on port 3000 with an in-memory database
  officetrack serve --db=":memory:" --port=3000

  # Record an arrival
  officetrack enter --lat 40.7128 --lon -74.0060

SEE ALSO:
  - root.go: flag and config resolution
  - app.go: dependency wiring
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
