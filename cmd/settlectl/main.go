/*
main.go - settlectl, command-line access to the settlement store

PURPOSE:
  Runs the same engine as the HTTP server against a SQLite file, for
  year-end batch work and scripting.

COMMANDS:
  statement   Print settlement statements for a billing year
  meters      Net consumption report for main meters with submeters
  import      Import a dataset document or the demo house
  migrate     Apply, roll back or inspect schema migrations

GLOBAL FLAGS:
  --db         SQLite database path (default: SQLITE_DB_PATH or ./data/settlement.db)
  --log-level  Log level (default: LOG_LEVEL or warn)

SEE ALSO:
  - cmd/server/main.go: HTTP server
  - factory/dataset.go: Import document schema
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/settlement-engine/config"
	"github.com/warp/settlement-engine/logging"
	"github.com/warp/settlement-engine/store/sqlite"
)

type options struct {
	cfg      *config.Config
	dbPath   string
	logLevel string
}

// openStore opens the database with migrations applied.
func (o *options) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}
	return store, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: config.Load()}

	rootCmd := &cobra.Command{
		Use:           "settlectl",
		Short:         "Service-charge settlement tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init("settlectl", opts.logLevel)
			opts.cfg.SQLiteDBPath = opts.dbPath
			return opts.cfg.Validate()
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", opts.cfg.SQLiteDBPath, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(
		statementCmd(opts),
		metersCmd(opts),
		importCmd(opts),
		migrateCmd(opts),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
