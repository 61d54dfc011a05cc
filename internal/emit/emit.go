// Package emit writes the reconciled listing table and its coverage report.
package emit

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/tunitech/specrecon/internal/model"
)

// Format is the output table format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a configured format name, defaulting to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", eris.Errorf("emit: unsupported format %q", s)
}

// Column names that are always present.
const (
	ColName         = "name"
	ColBrand        = "brand"
	ColPrice        = "price"
	ColSource       = "source"
	ColURL          = "url"
	ColIs5G         = "is_5g"
	ColCanonicalKey = "canonical_key"
	ColFilled       = "filled_from"
)

type kind int

const (
	kindText kind = iota
	kindNumber
	kindBool
)

// Options controls the emitted layout.
type Options struct {
	// Provenance appends the canonical key and a per-field fill summary.
	Provenance bool
}

// Table is the rendered output: a header and one row per listing.
type Table struct {
	Header []string
	Rows   [][]string
	kinds  []kind
}

func coreColumns() ([]string, []kind) {
	header := []string{ColName, ColBrand, ColPrice, ColSource, ColURL}
	kinds := []kind{kindText, kindText, kindNumber, kindText, kindText}
	for _, f := range model.Fields {
		header = append(header, string(f))
		if f.IsNumeric() {
			kinds = append(kinds, kindNumber)
		} else {
			kinds = append(kinds, kindText)
		}
	}
	header = append(header, ColIs5G)
	kinds = append(kinds, kindBool)
	return header, kinds
}

// ExtraColumns unions the extra column lists of several sources in
// first-seen order, dropping names that collide with fixed columns.
func ExtraColumns(lists ...[]string) []string {
	header, _ := coreColumns()
	seen := make(map[string]bool, len(header))
	for _, h := range append(header, ColCanonicalKey, ColFilled) {
		seen[columnKey(h)] = true
	}
	var out []string
	for _, l := range lists {
		for _, c := range l {
			k := columnKey(c)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, c)
		}
	}
	return out
}

// Build renders listings into a table with the fixed columns, then extra,
// then the provenance columns when requested.
func Build(listings []model.ReconciledListing, extra []string, opts Options) *Table {
	header, kinds := coreColumns()
	for range extra {
		kinds = append(kinds, kindText)
	}
	header = append(header, extra...)
	if opts.Provenance {
		header = append(header, ColCanonicalKey, ColFilled)
		kinds = append(kinds, kindText, kindText)
	}

	t := &Table{Header: header, kinds: kinds, Rows: make([][]string, 0, len(listings))}
	for _, rl := range listings {
		t.Rows = append(t.Rows, row(rl, extra, opts))
	}
	return t
}

func row(rl model.ReconciledListing, extra []string, opts Options) []string {
	l := rl.Listing
	r := []string{l.Name, l.Brand, FormatPrice(l.Price), l.Source, l.URL}
	for _, f := range model.Fields {
		r = append(r, formatValue(f, rl.Get(f)))
	}
	if is5G, ok := rl.Is5G(); ok {
		r = append(r, strconv.FormatBool(is5G))
	} else {
		r = append(r, "")
	}
	for _, c := range extra {
		r = append(r, extraValue(l.Extra, c))
	}
	if opts.Provenance {
		r = append(r, rl.Key, filledSummary(rl))
	}
	return r
}

func columnKey(c string) string { return strings.ToLower(strings.TrimSpace(c)) }

// extraValue reads column c from a listing's extra values. Sources may
// spell the same header differently ("couleur", "Couleur"), so names are
// compared the way ExtraColumns merges them.
func extraValue(extra map[string]string, c string) string {
	if v, ok := extra[c]; ok {
		return v
	}
	k := columnKey(c)
	for name, v := range extra {
		if columnKey(name) == k {
			return v
		}
	}
	return ""
}

// FormatPrice renders a price without trailing zeros, or "" when unknown.
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func formatValue(f model.Field, v string) string {
	if v == "" || !f.IsNumeric() {
		return v
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return f.FormatNumber(n)
}

// filledSummary lists filled fields as "field=tier" pairs in field order.
func filledSummary(rl model.ReconciledListing) string {
	var parts []string
	for _, f := range model.Fields {
		p, ok := rl.Provenance[f]
		if !ok || p.Tier == model.TierOriginal {
			continue
		}
		parts = append(parts, string(f)+"="+string(p.Tier))
	}
	return strings.Join(parts, ";")
}

// Write renders listings and writes them to path in the given format.
// Parent directories are created.
func Write(path string, format Format, listings []model.ReconciledListing, extra []string, opts Options) error {
	t := Build(listings, extra, opts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "emit: create output dir")
	}
	var err error
	switch format {
	case FormatXLSX:
		err = WriteXLSX(path, t)
	default:
		err = writeCSVFile(path, t)
	}
	if err != nil {
		return err
	}
	zap.L().Info("reconciled table written",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("rows", len(t.Rows)),
		zap.Int("columns", len(t.Header)),
	)
	return nil
}

func writeCSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "emit: create file")
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(f.Close(), "emit: close file")
}

// WriteCSV writes t as CSV.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "emit: write header")
	}
	for _, r := range t.Rows {
		if err := cw.Write(r); err != nil {
			return eris.Wrap(err, "emit: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "emit: flush csv")
}

// WriteXLSX writes t to a single-sheet workbook. Numeric columns are
// stored as numbers and is_5g as a boolean.
func WriteXLSX(path string, t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("listings")
	if err != nil {
		return eris.Wrap(err, "emit: add sheet")
	}
	hr := sheet.AddRow()
	for _, h := range t.Header {
		hr.AddCell().SetString(h)
	}
	for _, r := range t.Rows {
		xr := sheet.AddRow()
		for i, v := range r {
			cell := xr.AddCell()
			if v == "" {
				continue
			}
			switch t.kindOf(i) {
			case kindNumber:
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cell.SetFloat(n)
					continue
				}
			case kindBool:
				cell.SetBool(v == "true")
				continue
			}
			cell.SetString(v)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "emit: save xlsx")
	}
	return nil
}

func (t *Table) kindOf(i int) kind {
	if i < len(t.kinds) {
		return t.kinds[i]
	}
	return kindText
}

// WriteCoverage writes the run report as indented JSON.
func WriteCoverage(path string, report *model.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "emit: create report dir")
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return eris.Wrap(err, "emit: marshal report")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrap(err, "emit: write report")
	}
	return nil
}

// SortedFields returns the keys of a per-field count map in field order.
func SortedFields(counts map[model.Field]int) []model.Field {
	out := make([]model.Field, 0, len(counts))
	for f := range counts {
		out = append(out, f)
	}
	order := make(map[model.Field]int, len(model.Fields))
	for i, f := range model.Fields {
		order[f] = i
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i]]
		oj, jok := order[out[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}
