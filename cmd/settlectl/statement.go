package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/logging"
	"github.com/warp/settlement-engine/settlement"
)

func statementCmd(opts *options) *cobra.Command {
	var (
		year      int
		tenancyID string
		asJSON    bool
		archive   bool
	)
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print settlement statements for a billing year",
		Long: `Computes the statement of one tenancy (--tenancy) or of every tenancy
active in the billing year. Lines that cannot be allocated are marked and
left out of the total; the command still succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			svc := settlement.NewService(store, store, opts.cfg.Periods(), logging.Component("settlement"))
			ctx := cmd.Context()

			var stmts []settlement.Statement
			if tenancyID != "" {
				stmt, err := svc.Statement(ctx, tenancyID, year)
				if err != nil {
					return err
				}
				stmts = append(stmts, stmt)
			} else {
				stmts, err = svc.Statements(ctx, year)
				if err != nil {
					return err
				}
			}

			if archive {
				for _, s := range stmts {
					if _, err := svc.Archive(ctx, s.Settlement.TenancyID, year); err != nil {
						return err
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				snaps := make([]settlement.Snapshot, 0, len(stmts))
				for _, s := range stmts {
					snaps = append(snaps, settlement.NewSnapshot(s, generic.Today()))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snaps)
			}
			for i, s := range stmts {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printStatement(out, s)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", generic.Today().Year()-1, "billing year")
	cmd.Flags().StringVar(&tenancyID, "tenancy", "", "tenancy id (default: all active tenancies)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&archive, "archive", false, "freeze the printed statements")
	return cmd
}

func printStatement(out io.Writer, s settlement.Statement) {
	st := s.Settlement
	fmt.Fprintf(out, "%s (%s), %s, %d of %d days\n", s.TenantName, st.TenancyID, st.Period, st.OccupancyDays, st.BasisDays)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Category\tHouse total\tKey\tRatio\tShare\t")
	for _, r := range s.Breakdown.Rows {
		share := r.Share.Value.StringFixed(2)
		if r.Err != nil {
			share = "n/a"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", r.Category, r.HouseTotal.Value.StringFixed(2), r.KeyLabel, r.Ratio, share)
	}
	w.Flush()

	fmt.Fprintf(out, "Total cost:  %s\n", st.TotalCost.Value.StringFixed(2))
	fmt.Fprintf(out, "Prepayments: %s\n", st.ProratedPrepayment.Value.StringFixed(2))
	fmt.Fprintf(out, "Balance:     %s (%s)\n", st.Balance.Value.StringFixed(2), st.Outcome())
	for _, r := range s.Breakdown.Rows {
		if r.Err != nil {
			fmt.Fprintf(out, "! %s: %v\n", r.Category, r.Err)
		}
	}
}
