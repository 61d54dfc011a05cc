// Package stats computes per-brand and global aggregates used as the last
// fill tiers: medians for numeric fields, modes for categorical ones.
package stats

import (
	"sort"
	"strconv"

	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/normalize"
)

// Summary is one aggregated value and the number of samples behind it.
type Summary struct {
	Value   string `json:"value"`
	Samples int    `json:"samples"`
}

// Statistics holds aggregates computed once per run. It is read-only
// after Compute returns.
type Statistics struct {
	brand  map[string]map[model.Field]Summary
	global map[model.Field]Summary
}

type samples struct {
	numbers map[model.Field][]float64
	labels  map[model.Field][]string
}

func newSamples() *samples {
	return &samples{
		numbers: make(map[model.Field][]float64),
		labels:  make(map[model.Field][]string),
	}
}

func (s *samples) add(f model.Field, v string) {
	if f.IsNumeric() {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return
		}
		s.numbers[f] = append(s.numbers[f], n)
		return
	}
	s.labels[f] = append(s.labels[f], v)
}

func (s *samples) summarize(fields []model.Field) map[model.Field]Summary {
	out := make(map[model.Field]Summary, len(fields))
	for _, f := range fields {
		if f.IsNumeric() {
			if vals := s.numbers[f]; len(vals) > 0 {
				out[f] = Summary{Value: f.FormatNumber(Median(vals)), Samples: len(vals)}
			}
			continue
		}
		if vals := s.labels[f]; len(vals) > 0 {
			out[f] = Summary{Value: Mode(vals), Samples: len(vals)}
		}
	}
	return out
}

// Compute aggregates the known values of fields across listings, per
// canonical brand and globally. Listings without a resolvable brand only
// contribute to the global aggregates.
func Compute(listings []model.RawListing, fields []model.Field) *Statistics {
	global := newSamples()
	byBrand := make(map[string]*samples)

	for _, l := range listings {
		brand := BrandOf(l)
		for _, f := range fields {
			v := l.Spec(f)
			if v == "" {
				continue
			}
			global.add(f, v)
			if brand == "" {
				continue
			}
			bs, ok := byBrand[brand]
			if !ok {
				bs = newSamples()
				byBrand[brand] = bs
			}
			bs.add(f, v)
		}
	}

	st := &Statistics{
		brand:  make(map[string]map[model.Field]Summary, len(byBrand)),
		global: global.summarize(fields),
	}
	for b, s := range byBrand {
		st.brand[b] = s.summarize(fields)
	}
	return st
}

// BrandOf resolves the canonical brand key of a listing, inferring it from
// the name when the brand column is empty.
func BrandOf(l model.RawListing) string {
	if b := normalize.BrandKey(l.Brand); b != "" {
		return b
	}
	return normalize.InferBrand(normalize.Name(l.Name))
}

// Brand returns the brand aggregate for f. ok is false when the brand has
// no known values for f.
func (s *Statistics) Brand(brand string, f model.Field) (Summary, bool) {
	if s == nil || brand == "" {
		return Summary{}, false
	}
	sum, ok := s.brand[brand][f]
	return sum, ok
}

// Global returns the dataset-wide aggregate for f.
func (s *Statistics) Global(f model.Field) (Summary, bool) {
	if s == nil {
		return Summary{}, false
	}
	sum, ok := s.global[f]
	return sum, ok
}

// Brands lists brand keys with at least one aggregate, sorted.
func (s *Statistics) Brands() []string {
	out := make([]string, 0, len(s.brand))
	for b := range s.brand {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Median returns the median of vals, averaging the two middle values for
// even counts. vals is not modified.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mode returns the most frequent value. Ties resolve to the
// lexicographically smallest value.
func Mode(vals []string) string {
	counts := make(map[string]int, len(vals))
	for _, v := range vals {
		counts[v]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}
