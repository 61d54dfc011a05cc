package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/normalize"
)

// Source names one storefront export.
type Source struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
}

// BrandRawColumn is the extra column holding a brand label that was
// folded into a different canonical brand, e.g. "Redmi" under Xiaomi.
const BrandRawColumn = "brand_raw"

// Result is one ingested source.
type Result struct {
	Source       string
	Listings     []model.RawListing
	Report       model.SourceReport
	ExtraColumns []string
}

// Load reads and parses one source file. Only an unreadable file is an
// error; bad rows and cells are counted in the report.
func Load(ctx context.Context, src Source) (*Result, error) {
	if src.Name == "" {
		return nil, eris.Errorf("ingest: source for %s has no name", src.Path)
	}
	format, err := DetectFormat(src.Path, src.Format)
	if err != nil {
		return nil, err
	}
	t, err := ReadTable(ctx, src.Path, format)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: load %s", src.Name)
	}
	res := FromTable(src.Name, t)
	res.Report.Path = src.Path
	return res, nil
}

// FromTable converts a table into raw listings for source.
func FromTable(source string, t *Table) *Result {
	cols := ResolveColumns(t.Header)
	res := &Result{
		Source:       source,
		ExtraColumns: cols.Extra,
		Report: model.SourceReport{
			Name:        source,
			Unparseable: make(map[model.Field]int),
		},
	}
	if cols.Name < 0 {
		zap.L().Warn("source has no name column",
			zap.String("source", source),
			zap.Strings("header", t.Header),
		)
	}
	if missing := cols.Missing(); len(missing) > 0 {
		zap.L().Debug("source lacks spec columns",
			zap.String("source", source),
			zap.Int("missing", len(missing)),
		)
	}

	keptRaw := false
	for i, row := range t.Rows {
		l := listingFromRow(source, i+1, t, row, cols, res.Report.Unparseable)
		if _, ok := l.Extra[BrandRawColumn]; ok {
			keptRaw = true
		}
		res.Listings = append(res.Listings, l)
	}
	if keptRaw && !hasColumn(res.ExtraColumns, BrandRawColumn) {
		res.ExtraColumns = append(append([]string(nil), res.ExtraColumns...), BrandRawColumn)
	}
	res.Report.Rows = len(res.Listings)
	for f, n := range res.Report.Unparseable {
		if n == 0 {
			delete(res.Report.Unparseable, f)
		}
	}
	zap.L().Info("source ingested",
		zap.String("source", source),
		zap.Int("rows", res.Report.Rows),
		zap.Int("extra_columns", len(cols.Extra)),
	)
	return res
}

func listingFromRow(source string, n int, t *Table, row []string, cols Columns, unparseable map[model.Field]int) model.RawListing {
	l := model.RawListing{
		Source: source,
		Row:    n,
		Name:   t.Cell(row, cols.Name),
		URL:    t.Cell(row, cols.URL),
		Specs:  make(map[model.Field]string, len(cols.Specs)),
	}
	if p, ok := ParsePrice(t.Cell(row, cols.Price)); ok {
		l.Price = &p
	}

	label := strings.TrimSpace(t.Cell(row, cols.Brand))
	brand := normalize.BrandKey(label)
	labelled := brand != ""
	if !labelled {
		brand = normalize.InferBrand(normalize.Name(l.Name))
	}
	l.Brand = normalize.DisplayBrand(brand)
	if labelled && !strings.EqualFold(label, l.Brand) {
		l.Extra = map[string]string{BrandRawColumn: label}
	}

	for f, i := range cols.Specs {
		v, ok := ParseSpec(f, t.Cell(row, i))
		if !ok {
			unparseable[f]++
			continue
		}
		if v != "" {
			l.Specs[f] = v
		}
	}

	if len(cols.Extra) > 0 {
		if l.Extra == nil {
			l.Extra = make(map[string]string, len(cols.Extra))
		}
		for j, h := range cols.Extra {
			if v := t.Cell(row, cols.extraIndex[j]); v != "" {
				l.Extra[h] = v
			}
		}
	}
	if strings.TrimSpace(l.Name) == "" {
		zap.L().Debug("row without name", zap.String("source", source), zap.Int("row", n))
	}
	return l
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
