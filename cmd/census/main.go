/*
main.go - Application entry point

PURPOSE:
  Command line front end of the census engine: runs the HTTP server,
  imports sheets from the shell and recomputes household counts.

COMMANDS:
  serve                     HTTP API with graceful shutdown
  import members FILE       Bulk member import
  import sir FILE           Corrective roll re-sync
  import booths FILE        Polling booth backfill
  recount                   Recompute every household's counts

GLOBAL FLAGS:
  --config     Config file (default: census.yaml in . or $HOME)
  --db         SQLite database path; ":memory:" for a throwaway database
  --log-mode   "prod" for JSON logs, "dev" for console logs

ENVIRONMENT:
  Every setting can be given as CENSUS_<KEY>, e.g. CENSUS_DB,
  CENSUS_LOG_MODE, CENSUS_RECOUNT_INTERVAL. .env and .env.local are
  loaded from the working directory.

EXAMPLES:
  # Serve the API on port 3000
  census serve --port 3000

  # Preview an import; every write is rolled back
  census import members ./roll.xlsx --dry-run

  # Attach house surveys to families already imported
  census import houses ./houses.xlsx

SEE ALSO:
  - config/config.go: Settings and precedence
  - api/server.go: Router configuration
  - importer/importer.go: Sheet workflows
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
