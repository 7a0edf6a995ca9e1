package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appscans "github.com/bryanwahyu/decision-ledger/internal/application/scans"
	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

func newParseCmd() *cobra.Command {
	var (
		resolved []int
		asJSON   bool
		currency string
	)
	cmd := &cobra.Command{
		Use:   "parse findings|opportunities FILE",
		Short: "Parse a saved model response and print records with their rollup",
		Long:  "Parse a saved model response. FILE may be - for stdin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := recordKind(args[0])
			if err != nil {
				return err
			}
			text, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			res, err := appscans.Parse(kind, text, findings.NewResolvedSet(resolved...))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printParse(out, res, currency)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&resolved, "resolved", nil, "finding ids already resolved, e.g. 1,3")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&currency, "currency", "RM", "currency prefix for amounts")
	return cmd
}

func recordKind(s string) (ai.Kind, error) {
	switch strings.ToLower(s) {
	case "findings", "finding", string(ai.KindOperational):
		return ai.KindOperational, nil
	case "opportunities", "opportunity", string(ai.KindRevenue):
		return ai.KindRevenue, nil
	}
	return "", fmt.Errorf("unknown record kind %q (allowed: findings, opportunities)", s)
}

func readInput(stdin io.Reader, path string) (string, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func printParse(out io.Writer, res appscans.ParseResult, currency string) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch res.Kind {
	case ai.KindOperational:
		fmt.Fprintln(tw, "ID\tTIER\tDAILY\tPATTERN")
		for _, f := range res.Rollup.Priority {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.Tier, findings.FormatAmount(currency, f.DailyCost), f.Pattern)
		}
		r := res.Rollup
		fmt.Fprintf(tw, "\nactive %d/%d\texposure %s\tdaily %s\thealth %s\n",
			r.ActiveCount, r.Total,
			findings.FormatAmount(currency, r.TotalExposure),
			findings.FormatAmount(currency, r.DailyExposure),
			r.Health)
	case ai.KindRevenue:
		fmt.Fprintln(tw, "ID\tPOTENTIAL\tQUICK WIN\tPATTERN")
		for _, o := range res.OpportunityRollup.RankedByValue {
			fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", o.ID, findings.FormatAmount(currency, o.MaxAmount), o.IsQuickWin, o.Pattern)
		}
		r := res.OpportunityRollup
		fmt.Fprintf(tw, "\ntotal %s\tquick wins %d (%s)\n",
			findings.FormatAmount(currency, r.TotalPotential), r.QuickWinCount,
			findings.FormatAmount(currency, r.QuickWinValue))
	}
	if w := res.Stats.Warnings(); w > 0 {
		fmt.Fprintf(tw, "warnings: %d skipped, %d dropped\n", res.Stats.Skipped, res.Stats.Dropped)
	}
}
