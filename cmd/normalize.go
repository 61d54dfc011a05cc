package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/normalize"
)

var normalizeBrand string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Show the normalized form and canonical key of product names",
	Example: `  specrecon normalize "Smartphone SAMSUNG Galaxy A55 5G 8Go 256Go Bleu"
  specrecon normalize --brand xiaomi "Note 13 Pro 8/256"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatKeys(cmd.OutOrStdout(), canonical.NewExtractor(), args, normalizeBrand)
		return nil
	},
}

// formatKeys writes one row per name: normalized text, brand, key and the
// grammar that produced the key.
func formatKeys(out io.Writer, ex *canonical.Extractor, names []string, brandHint string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tNORMALIZED\tBRAND\tKEY\tGRAMMAR")
	_, _ = fmt.Fprintln(w, "----\t----------\t-----\t---\t-------")

	for _, name := range names {
		normalized := normalize.Name(name)
		brand := normalize.InferBrand(normalized)
		if brand == "" {
			brand = normalize.BrandKey(brandHint)
		}
		res := ex.ExtractResult(normalized, brandHint)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(name, 40),
			normalized,
			normalize.DisplayBrand(brand),
			res.Key,
			res.Grammar,
		)
	}
	_ = w.Flush()
}

// truncate shortens s to n runes for tabular display.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeBrand, "brand", "", "brand hint for names without a brand word")
	rootCmd.AddCommand(normalizeCmd)
}
