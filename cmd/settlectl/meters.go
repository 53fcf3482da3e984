package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/logging"
	"github.com/warp/settlement-engine/metering"
)

func metersCmd(opts *options) *cobra.Command {
	var year int
	var from, to string
	cmd := &cobra.Command{
		Use:   "meters",
		Short: "Net consumption report for main meters with submeters",
		Long: `Prints gross, per-submeter and net consumption over the interval. Missing
readings and negative values are reported as warnings; the command still
succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval := generic.CalendarYear(year)
			if from != "" || to != "" {
				start, err := generic.ParseTimePoint(from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				end, err := generic.ParseTimePoint(to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				interval = generic.Period{Start: start, End: end}
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			svc := metering.NewService(store, logging.Component("metering"))
			results, err := svc.Report(cmd.Context(), interval)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No main meters with submeters.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s %s (%s), %s\n", r.Parent.ID, r.Parent.Number, r.Parent.Medium, r.Interval)
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "  gross\t%s\n", r.GrossParent)

				ids := make([]string, 0, len(r.PerChild))
				for id := range r.PerChild {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(w, "  - %s\t%s\n", id, r.PerChild[id])
				}
				fmt.Fprintf(w, "  net\t%s\n", r.Net)
				w.Flush()
				for _, warn := range r.Warnings {
					fmt.Fprintf(out, "  ! %v\n", warn)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", generic.Today().Year()-1, "calendar year (ignored with --from/--to)")
	cmd.Flags().StringVar(&from, "from", "", "interval start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "interval end (YYYY-MM-DD)")
	return cmd
}
