// Package specindex builds per-source and merged canonical-key indices of
// donor spec records.
package specindex

import (
	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/model"
)

// DefaultMinKeyLength is the shortest key admitted into an index. Shorter
// keys are too generic to identify a model.
const DefaultMinKeyLength = 5

// Index maps canonical keys to the most complete spec record seen for each
// key. Iteration order is insertion order.
type Index struct {
	source  string
	keys    []canonical.Key
	records map[canonical.Key]model.SpecRecord
	stats   BuildStats
}

// BuildStats counts what happened while building an index.
type BuildStats struct {
	Listings  int `json:"listings"`
	Unkeyable int `json:"unkeyable"`
	ShortKey  int `json:"short_key"`
	NoSpecs   int `json:"no_specs"`
	Degraded  int `json:"degraded"`
	Replaced  int `json:"replaced"`
}

// New returns an empty index labelled with source. A merged index uses an
// empty source.
func New(source string) *Index {
	return &Index{source: source, records: make(map[canonical.Key]model.SpecRecord)}
}

// Source returns the storefront this index was built from.
func (x *Index) Source() string { return x.source }

// Len is the number of distinct keys.
func (x *Index) Len() int { return len(x.keys) }

// Stats returns build counters.
func (x *Index) Stats() BuildStats { return x.stats }

// Get returns the record stored under k.
func (x *Index) Get(k canonical.Key) (model.SpecRecord, bool) {
	rec, ok := x.records[k]
	return rec, ok
}

// Keys returns keys in insertion order. The slice must not be modified.
func (x *Index) Keys() []canonical.Key { return x.keys }

// Each calls fn for every entry in insertion order until fn returns false.
func (x *Index) Each(fn func(k canonical.Key, rec model.SpecRecord) bool) {
	for _, k := range x.keys {
		if !fn(k, x.records[k]) {
			return
		}
	}
}

// Offer stores rec under k unless the current record for k has at least as
// many non-empty fields. It reports whether rec was stored.
func (x *Index) Offer(k canonical.Key, rec model.SpecRecord) bool {
	cur, ok := x.records[k]
	if !ok {
		x.keys = append(x.keys, k)
		x.records[k] = rec
		return true
	}
	if rec.Count() > cur.Count() {
		x.records[k] = rec
		x.stats.Replaced++
		return true
	}
	return false
}

// insert stores rec only when k is absent.
func (x *Index) insert(k canonical.Key, rec model.SpecRecord) bool {
	if _, ok := x.records[k]; ok {
		return false
	}
	x.keys = append(x.keys, k)
	x.records[k] = rec
	return true
}
