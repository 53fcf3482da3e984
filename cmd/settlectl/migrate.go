package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warp/settlement-engine/store/sqlite"
)

func migrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := sqlite.NewUnmigrated(opts.dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.MigrateUp(); err != nil {
					return err
				}
				return printVersion(cmd, store)
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default: 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("invalid step count %q", args[0])
					}
					steps = n
				}
				store, err := sqlite.NewUnmigrated(opts.dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.MigrateDown(steps); err != nil {
					return err
				}
				return printVersion(cmd, store)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := sqlite.NewUnmigrated(opts.dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				return printVersion(cmd, store)
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, store *sqlite.Store) error {
	version, dirty, err := store.MigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
	if dirty {
		fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
