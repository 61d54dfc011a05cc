package pipeline

import (
	"fmt"
	"strings"

	"github.com/tunitech/specrecon/internal/emit"
	"github.com/tunitech/specrecon/internal/model"
)

// FormatReport generates a human-readable reconciliation report.
func FormatReport(r *model.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reconciliation Report: %s\n", r.RunID)
	fmt.Fprintf(&b, "Started: %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if r.Output != "" {
		fmt.Fprintf(&b, "Output: %s\n", r.Output)
	}
	b.WriteString("\n")

	// Summary.
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Listings: %d\n", r.Listings)
	fmt.Fprintf(&b, "- Sources: %d\n", len(r.Sources))
	fmt.Fprintf(&b, "- Index keys: %d\n", r.IndexSize)
	if r.CuratedVersion != "" {
		fmt.Fprintf(&b, "- Curated table: %s\n", r.CuratedVersion)
	}
	fmt.Fprintf(&b, "- Duration: %.2fs\n\n", r.DurationSeconds)

	// Sources.
	b.WriteString("## Sources\n")
	for _, s := range r.Sources {
		fmt.Fprintf(&b, "- %s: %d rows, %d keys, %d unkeyable, %d degraded\n",
			s.Name, s.Rows, s.IndexSize, s.Unkeyable, s.Degraded)
		fields := emit.SortedFields(s.Unparseable)
		if len(fields) == 0 {
			continue
		}
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = fmt.Sprintf("%s=%d", f, s.Unparseable[f])
		}
		fmt.Fprintf(&b, "  Unparseable: %s\n", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	// Matching.
	b.WriteString("## Matching\n")
	fmt.Fprintf(&b, "- Exact: %d\n", r.Match.Exact)
	fmt.Fprintf(&b, "- Fuzzy: %d\n", r.Match.Fuzzy)
	fmt.Fprintf(&b, "- Ambiguous: %d\n", r.Match.Ambiguous)
	fmt.Fprintf(&b, "- Miss: %d\n", r.Match.Miss)
	fmt.Fprintf(&b, "- Complete: %d\n", r.Match.Complete)
	fmt.Fprintf(&b, "- Unkeyable: %d\n\n", r.Match.Unkeyable)

	// Coverage per stage.
	b.WriteString("## Coverage\n")
	if len(r.Coverage) == 0 {
		b.WriteString("No coverage recorded.\n\n")
	} else {
		b.WriteString("| field |")
		for _, c := range r.Coverage {
			fmt.Fprintf(&b, " %s |", c.Stage)
		}
		b.WriteString("\n|---|")
		for range r.Coverage {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		for _, f := range model.Fields {
			fmt.Fprintf(&b, "| %s |", f)
			for _, c := range r.Coverage {
				fmt.Fprintf(&b, " %s |", percent(c.PerField[f], r.Listings))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Values supplied per tier.
	b.WriteString("## Filled Values\n")
	filled := false
	for _, tier := range model.FillTiers {
		counts := r.Filled[tier]
		total := 0
		for _, n := range counts {
			total += n
		}
		if total == 0 {
			continue
		}
		filled = true
		fmt.Fprintf(&b, "- %s: %d\n", tier, total)
		for _, f := range emit.SortedFields(counts) {
			fmt.Fprintf(&b, "  - %s: %d\n", f, counts[f])
		}
	}
	if !filled {
		b.WriteString("No values filled.\n")
	}

	// Phases.
	if len(r.Phases) > 0 {
		b.WriteString("\n## Phases\n")
		for _, p := range r.Phases {
			fmt.Fprintf(&b, "- %s: %s (%dms)\n", p.Name, p.Status, p.Duration)
			if p.Error != "" {
				fmt.Fprintf(&b, "  Error: %s\n", p.Error)
			}
		}
	}

	return b.String()
}

func percent(n, total int) string {
	if total == 0 {
		return "0 (0%)"
	}
	return fmt.Sprintf("%d (%.0f%%)", n, float64(n)*100/float64(total))
}
