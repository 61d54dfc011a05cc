package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tunitech/specrecon/internal/ingest"
	"github.com/tunitech/specrecon/internal/pipeline"
)

var reconcileFlags struct {
	sources    []string
	output     string
	format     string
	coverage   string
	tiers      []string
	provenance bool
	noStore    bool
	report     bool
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile storefront exports into one filled listing table",
	Example: `  specrecon reconcile --source tunisianet=data/tunisianet.csv --source mytek=data/mytek.xlsx
  specrecon reconcile --config prod.yaml --output out/phones.xlsx --report`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applyReconcileFlags(cmd); err != nil {
			return err
		}
		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		res, err := pipeline.New(cfg, st).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		zap.L().Info("reconcile complete",
			zap.String("run_id", res.RunID),
			zap.Int("listings", res.Report.Listings),
			zap.String("output", res.Report.Output),
		)
		if reconcileFlags.report {
			fmt.Fprint(cmd.OutOrStdout(), pipeline.FormatReport(res.Report))
		}
		return nil
	},
}

// applyReconcileFlags overrides config values with the flags that were set.
func applyReconcileFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("source") {
		sources, err := parseSourceFlags(reconcileFlags.sources)
		if err != nil {
			return err
		}
		cfg.Sources.Inputs = sources
	}
	if flags.Changed("output") {
		cfg.Output.Path = reconcileFlags.output
	}
	if flags.Changed("format") {
		cfg.Output.Format = reconcileFlags.format
	}
	if flags.Changed("coverage") {
		cfg.Output.CoveragePath = reconcileFlags.coverage
	}
	if flags.Changed("tiers") {
		cfg.Fill.Tiers = reconcileFlags.tiers
	}
	if flags.Changed("provenance") {
		cfg.Output.Provenance = reconcileFlags.provenance
	}
	if reconcileFlags.noStore {
		cfg.Store.Driver = "none"
	}
	return nil
}

// parseSourceFlags turns name=path[:format] pairs into sources.
func parseSourceFlags(values []string) ([]ingest.Source, error) {
	sources := make([]ingest.Source, 0, len(values))
	for _, v := range values {
		name, path, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		path = strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, eris.Errorf("invalid --source %q: want name=path", v)
		}
		src := ingest.Source{Name: name, Path: path}
		if i := strings.LastIndex(path, ":"); i > 0 {
			switch f := strings.ToLower(path[i+1:]); f {
			case "csv", "xlsx":
				src.Path, src.Format = path[:i], f
			}
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func init() {
	f := reconcileCmd.Flags()
	f.StringArrayVar(&reconcileFlags.sources, "source", nil, "storefront export as name=path[:csv|xlsx] (repeatable, replaces sources.inputs)")
	f.StringVarP(&reconcileFlags.output, "output", "o", "", "reconciled table path (default from config)")
	f.StringVar(&reconcileFlags.format, "format", "", "output format: csv or xlsx")
	f.StringVar(&reconcileFlags.coverage, "coverage", "", "coverage report JSON path")
	f.StringSliceVar(&reconcileFlags.tiers, "tiers", nil, "enabled fill tiers in order (match,curated,brand_stats,global_stats)")
	f.BoolVar(&reconcileFlags.provenance, "provenance", false, "add per-field provenance columns")
	f.BoolVar(&reconcileFlags.noStore, "no-store", false, "skip persisting the run")
	f.BoolVar(&reconcileFlags.report, "report", false, "print a markdown report when done")
	rootCmd.AddCommand(reconcileCmd)
}
