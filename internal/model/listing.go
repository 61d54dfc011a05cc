package model

import "strings"

// RawListing is one row from one storefront as ingested. Spec values are
// already parsed into canonical text; an absent key or empty string means
// the value is missing.
type RawListing struct {
	Source string            `json:"source"`
	Row    int               `json:"row"`
	Name   string            `json:"name"`
	Brand  string            `json:"brand"`
	Price  *float64          `json:"price,omitempty"`
	URL    string            `json:"url,omitempty"`
	Specs  map[Field]string  `json:"specs,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// Spec returns the trimmed value of f, or "" when missing.
func (l RawListing) Spec(f Field) string {
	if l.Specs == nil {
		return ""
	}
	return strings.TrimSpace(l.Specs[f])
}

// Missing lists the fields from fields that have no value on l.
func (l RawListing) Missing(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if l.Spec(f) == "" {
			out = append(out, f)
		}
	}
	return out
}

// SpecRecord is the donor-side view of a listing: the known model-level
// values under a canonical key. Only non-empty values are stored.
type SpecRecord struct {
	Key    string           `json:"key"`
	Source string           `json:"source"`
	Values map[Field]string `json:"values"`
}

// NewSpecRecord builds a record from the non-empty entries of values
// restricted to fields.
func NewSpecRecord(key, source string, values map[Field]string, fields []Field) SpecRecord {
	rec := SpecRecord{Key: key, Source: source, Values: make(map[Field]string, len(fields))}
	for _, f := range fields {
		if v := strings.TrimSpace(values[f]); v != "" {
			rec.Values[f] = v
		}
	}
	return rec
}

// Get returns the value of f or "".
func (r SpecRecord) Get(f Field) string { return r.Values[f] }

// Count is the number of non-empty values.
func (r SpecRecord) Count() int { return len(r.Values) }

// Empty reports whether the record carries no values.
func (r SpecRecord) Empty() bool { return len(r.Values) == 0 }

// ReconciledListing is a RawListing after the fill waterfall. Specs holds
// every known value, original or filled, and Provenance records where each
// value came from. The original listing is never modified.
type ReconciledListing struct {
	Listing    RawListing                `json:"listing"`
	Key        string                    `json:"key,omitempty"`
	KeyGrammar string                    `json:"key_grammar,omitempty"`
	Specs      map[Field]string          `json:"specs"`
	Provenance map[Field]FieldProvenance `json:"provenance"`
}

// NewReconciled seeds a ReconciledListing from l, marking every known
// value as original.
func NewReconciled(l RawListing) ReconciledListing {
	rl := ReconciledListing{
		Listing:    l,
		Specs:      make(map[Field]string, len(Fields)),
		Provenance: make(map[Field]FieldProvenance, len(Fields)),
	}
	for _, f := range Fields {
		if v := l.Spec(f); v != "" {
			rl.Specs[f] = v
			rl.Provenance[f] = FieldProvenance{Field: f, Tier: TierOriginal, Source: l.Source}
		}
	}
	return rl
}

// Get returns the current value of f or "".
func (r ReconciledListing) Get(f Field) string { return strings.TrimSpace(r.Specs[f]) }

// Missing lists the fields from fields still empty on r.
func (r ReconciledListing) Missing(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if r.Get(f) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Set assigns v to f with the given provenance. Set never overwrites an
// existing value and reports whether the assignment happened.
func (r *ReconciledListing) Set(f Field, v string, p FieldProvenance) bool {
	v = strings.TrimSpace(v)
	if v == "" || r.Get(f) != "" {
		return false
	}
	if r.Specs == nil {
		r.Specs = make(map[Field]string)
	}
	if r.Provenance == nil {
		r.Provenance = make(map[Field]FieldProvenance)
	}
	p.Field = f
	r.Specs[f] = v
	r.Provenance[f] = p
	return true
}

// Filled counts values contributed by tiers other than the original data.
func (r ReconciledListing) Filled() int {
	n := 0
	for _, p := range r.Provenance {
		if p.Tier != TierOriginal {
			n++
		}
	}
	return n
}

// Is5G derives the 5G flag from the network value. ok is false when the
// network is unknown.
func (r ReconciledListing) Is5G() (is5G, ok bool) {
	n := strings.ToUpper(r.Get(FieldNetwork))
	if n == "" {
		return false, false
	}
	return strings.Contains(n, "5G"), true
}

// Clone returns a deep copy of r.
func (r ReconciledListing) Clone() ReconciledListing {
	out := r
	out.Specs = make(map[Field]string, len(r.Specs))
	for k, v := range r.Specs {
		out.Specs[k] = v
	}
	out.Provenance = make(map[Field]FieldProvenance, len(r.Provenance))
	for k, v := range r.Provenance {
		out.Provenance[k] = v
	}
	return out
}
