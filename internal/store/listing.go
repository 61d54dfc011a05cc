package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tunitech/specrecon/internal/model"
)

const (
	defaultListingLimit = 100
	maxListingLimit     = 1000
)

// listingColumns is the column order of the listings table, shared by
// inserts and selects. Spec columns follow model.Fields.
var listingColumns = func() []string {
	cols := []string{"run_id", "source", "row_num", "name", "brand", "price", "url", "canonical_key"}
	for _, f := range model.Fields {
		cols = append(cols, string(f))
	}
	return append(cols, "is_5g", "provenance", "extra")
}()

// listingConflictKeys identify a listing within a run.
var listingConflictKeys = []string{"run_id", "source", "row_num"}

// specColumnsDDL renders the spec column definitions for a dialect.
func specColumnsDDL(numericType, textType string) string {
	var b strings.Builder
	for _, f := range model.Fields {
		typ := textType
		if f.IsNumeric() {
			typ = numericType
		}
		fmt.Fprintf(&b, "\t%s %s,\n", f, typ)
	}
	return b.String()
}

// listingRow flattens a reconciled listing into listingColumns order.
// Empty values become NULL.
func listingRow(runID string, rl model.ReconciledListing) ([]any, error) {
	l := rl.Listing
	row := []any{runID, l.Source, l.Row, l.Name, l.Brand, nullFloat(l.Price), nullString(l.URL), nullString(rl.Key)}
	for _, f := range model.Fields {
		v := rl.Get(f)
		if !f.IsNumeric() {
			row = append(row, nullString(v))
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if v == "" || err != nil {
			row = append(row, nil)
			continue
		}
		row = append(row, n)
	}
	if is5G, ok := rl.Is5G(); ok {
		row = append(row, is5G)
	} else {
		row = append(row, nil)
	}

	prov, err := json.Marshal(rl.Provenance)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal provenance")
	}
	row = append(row, string(prov))

	if len(l.Extra) == 0 {
		return append(row, nil), nil
	}
	extra, err := json.Marshal(l.Extra)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal extra")
	}
	return append(row, string(extra)), nil
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

// scanListing reads one row selected with listingColumns and rebuilds the
// reconciled listing. Values whose provenance is original are restored to
// the raw listing as well.
func scanListing(row scannable) (model.ReconciledListing, error) {
	var (
		runID, source, name, brand string
		rowNum                     int
		price                      *float64
		url, key, prov, extra      *string
		is5G                       *bool
	)
	nums := make([]*float64, len(model.Fields))
	texts := make([]*string, len(model.Fields))

	dest := []any{&runID, &source, &rowNum, &name, &brand, &price, &url, &key}
	for i, f := range model.Fields {
		if f.IsNumeric() {
			dest = append(dest, &nums[i])
		} else {
			dest = append(dest, &texts[i])
		}
	}
	dest = append(dest, &is5G, &prov, &extra)
	if err := row.Scan(dest...); err != nil {
		return model.ReconciledListing{}, err
	}

	rl := model.ReconciledListing{
		Listing: model.RawListing{
			Source: source,
			Row:    rowNum,
			Name:   name,
			Brand:  brand,
			Price:  price,
			URL:    deref(url),
			Specs:  make(map[model.Field]string),
		},
		Key:        deref(key),
		Specs:      make(map[model.Field]string),
		Provenance: make(map[model.Field]model.FieldProvenance),
	}
	for i, f := range model.Fields {
		switch {
		case nums[i] != nil:
			rl.Specs[f] = f.FormatNumber(*nums[i])
		case texts[i] != nil && *texts[i] != "":
			rl.Specs[f] = *texts[i]
		}
	}

	if p := deref(prov); p != "" {
		if err := json.Unmarshal([]byte(p), &rl.Provenance); err != nil {
			return model.ReconciledListing{}, eris.Wrap(err, "store: unmarshal provenance")
		}
	}
	for f, v := range rl.Specs {
		if p, ok := rl.Provenance[f]; !ok || p.Tier == model.TierOriginal {
			rl.Listing.Specs[f] = v
		}
	}
	if e := deref(extra); e != "" {
		if err := json.Unmarshal([]byte(e), &rl.Listing.Extra); err != nil {
			return model.ReconciledListing{}, eris.Wrap(err, "store: unmarshal extra")
		}
	}
	return rl, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// placeholder renders the n-th (1-based) bind parameter of a dialect.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// listingQuery builds the filtered select for one run.
func listingQuery(runID string, f ListingFilter, ph placeholder) (string, []any) {
	var b strings.Builder
	args := []any{runID}
	fmt.Fprintf(&b, "SELECT %s FROM listings WHERE run_id = %s", strings.Join(listingColumns, ", "), ph(1))

	add := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&b, " AND "+cond, ph(len(args)))
	}
	if f.Brand != "" {
		add("lower(brand) = lower(%s)", f.Brand)
	}
	if f.Source != "" {
		add("source = %s", f.Source)
	}
	if f.MinPrice != nil {
		add("price >= %s", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= %s", *f.MaxPrice)
	}
	if f.MinRAM != nil {
		add(string(model.FieldRAM)+" >= %s", *f.MinRAM)
	}
	if f.MinStorage != nil {
		add(string(model.FieldStorage)+" >= %s", *f.MinStorage)
	}
	if f.MinBattery != nil {
		add(string(model.FieldBattery)+" >= %s", *f.MinBattery)
	}
	if f.MinCamera != nil {
		add(string(model.FieldCameraRear)+" >= %s", *f.MinCamera)
	}
	if f.Requires5G {
		add("is_5g = %s", true)
	}

	b.WriteString(" ORDER BY price IS NULL, price ASC, source, row_num")

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT %s", ph(len(args)))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET %s", ph(len(args)))
	}
	return b.String(), args
}

// brandQuery aggregates listings per brand, largest brands first.
func brandQuery(ph placeholder) string {
	return "SELECT brand, COUNT(*), MIN(price), MAX(price), AVG(price) FROM listings WHERE run_id = " +
		ph(1) + " GROUP BY brand ORDER BY COUNT(*) DESC, brand"
}
