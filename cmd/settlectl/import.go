package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/warp/settlement-engine/factory"
	"github.com/warp/settlement-engine/store/memory"
	"github.com/warp/settlement-engine/store/sqlite"
)

func importCmd(opts *options) *cobra.Command {
	var demo, reset, dryRun bool
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import a dataset document or the demo house",
		Long: `Reads a JSON dataset (building, units, tenancies, expenses, meters,
readings, payments) and writes it in one transaction. Nothing is written
when any record is rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ds *factory.Dataset
			switch {
			case demo:
				ds = factory.DemoDataset()
				reset = true
			case len(args) == 1:
				data, err := readInput(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				ds, err = factory.ParseDataset(data)
				if err != nil {
					return err
				}
			default:
				return errors.New("give a dataset file, - for stdin, or --demo")
			}

			ctx := cmd.Context()
			if dryRun {
				scratch := memory.NewMemory()
				err := scratch.WithTx(ctx, func(tx *memory.Memory) error {
					return ds.Apply(ctx, tx)
				})
				if err != nil {
					return fmt.Errorf("dry run: %w", err)
				}
				printCounts(cmd.OutOrStdout(), ds.Counts())
				return nil
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if reset {
				if err := store.Reset(ctx); err != nil {
					return err
				}
			}
			err = store.WithTx(ctx, func(tx *sqlite.Tx) error {
				return ds.Apply(ctx, tx)
			})
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			printCounts(cmd.OutOrStdout(), ds.Counts())
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "load the demo house (clears the database)")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the database before importing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "check the dataset against an in-memory store, write nothing")
	return cmd
}

func printCounts(out io.Writer, counts map[string]int) {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "%-10s %d\n", k, counts[k])
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
