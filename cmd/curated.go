package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/curated"
	"github.com/tunitech/specrecon/internal/model"
)

var curatedCmd = &cobra.Command{
	Use:   "curated",
	Short: "Inspect the curated spec table",
}

var curatedValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Parse a curated table and report its version and size",
	Long:  "Parses the table at path, the configured curated.path, or the built-in table, and fails on the first malformed entry.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Curated.Path
		if len(args) == 1 {
			path = args[0]
		}
		t, err := curated.Open(path)
		if err != nil {
			return err
		}
		name := path
		if name == "" {
			name = "built-in"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: version %s, %d models\n", name, t.Version(), t.Len())
		return nil
	},
}

var curatedLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Resolve a product name against the curated table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := curated.Open(cfg.Curated.Path)
		if err != nil {
			return err
		}
		res := canonical.NewExtractor().KeyOf(args[0], "")
		if res.Key == "" {
			return eris.Errorf("curated lookup: %q has no canonical key", args[0])
		}
		rec, tier, ok := t.Lookup(res.Key)
		if !ok {
			return eris.Errorf("curated lookup: no entry for key %q", res.Key)
		}
		formatRecord(cmd.OutOrStdout(), res.Key, tier, rec)
		return nil
	},
}

// formatRecord writes a curated hit as key/value lines in field order.
func formatRecord(out io.Writer, key canonical.Key, tier model.FillTier, rec model.SpecRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "key:\t%s\n", key)
	_, _ = fmt.Fprintf(w, "entry:\t%s\n", rec.Key)
	_, _ = fmt.Fprintf(w, "tier:\t%s\n", tier)
	for _, f := range model.Fields {
		if v := rec.Get(f); v != "" {
			_, _ = fmt.Fprintf(w, "%s:\t%s\n", f, v)
		}
	}
	_ = w.Flush()
}

func init() {
	curatedCmd.AddCommand(curatedValidateCmd)
	curatedCmd.AddCommand(curatedLookupCmd)
	rootCmd.AddCommand(curatedCmd)
}
