package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/decision-ledger/internal/application"
	appscans "github.com/bryanwahyu/decision-ledger/internal/application/scans"
	"github.com/bryanwahyu/decision-ledger/internal/bootstrap"
	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
	"github.com/bryanwahyu/decision-ledger/internal/infra/db/kvstore"
	"github.com/bryanwahyu/decision-ledger/internal/infra/tabular"
)

func newScanCmd(root *rootOptions) *cobra.Command {
	var (
		csvFiles []string
		notes    string
		demo     bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "scan operational|revenue|brief",
		Short: "Run a scan on CSV exports and store the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}

			var tables []domain.Table
			for _, path := range csvFiles {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				t, err := tabular.DecodeCSV(filepath.Base(path), f)
				f.Close()
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}

			ctx := cmd.Context()
			store, err := bootstrap.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			aiWiring, err := bootstrap.NewAI(cfg, demo)
			if err != nil {
				return err
			}
			svc := &appscans.Service{
				Repo:      kvstore.NewScanRepository(store.KV),
				Resolved:  kvstore.NewResolvedRepository(store.KV),
				AI:        aiWiring.Service,
				Clock:     application.SystemClock{},
				Currency:  cfg.AI.Currency,
				MaxRows:   cfg.AI.MaxRows,
				MaxTokens: cfg.AI.MaxTokens,
			}

			out := cmd.OutOrStdout()
			runCmd := appscans.RunCommand{Kind: kind, Text: notes, Tables: tables}
			var res appscans.Result
			if asJSON {
				res, err = svc.Run(ctx, runCmd)
			} else {
				res, err = svc.RunStream(ctx, runCmd, func(d string) { fmt.Fprint(out, d) })
				fmt.Fprintln(out)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "scan %s stored (%s mode, %d findings, %d opportunities, structured=%t)\n",
				res.Scan.ID, res.Scan.Mode, len(res.Scan.Findings), len(res.Scan.Opportunities), res.Structured)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&csvFiles, "csv", nil, "CSV export to include, repeatable")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text context for the analyst")
	cmd.Flags().BoolVar(&demo, "demo", false, "use canned demo responses")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored scan as JSON")
	return cmd
}
