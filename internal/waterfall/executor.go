// Package waterfall fills missing listing specifications from a strict
// priority of sources: cross-source match, curated table, brand
// statistics, then global statistics. A value already present is never
// replaced.
package waterfall

import (
	"go.uber.org/zap"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/curated"
	"github.com/tunitech/specrecon/internal/match"
	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/specindex"
	"github.com/tunitech/specrecon/internal/stats"
)

// Executor runs the waterfall over listings.
type Executor struct {
	extractor *canonical.Extractor
	tiers     []Tier
}

// Resources are the shared, read-only inputs of a run.
type Resources struct {
	Extractor *canonical.Extractor
	Index     *specindex.Index
	Matcher   *match.Matcher
	Curated   *curated.Table
	Stats     *stats.Statistics
}

// NewExecutor creates an executor with tiers in the given order.
func NewExecutor(ex *canonical.Extractor, tiers ...Tier) *Executor {
	if ex == nil {
		ex = canonical.NewExtractor()
	}
	return &Executor{extractor: ex, tiers: tiers}
}

// FromResources builds the standard tiers for the enabled stages. A stage
// whose resource is nil is skipped.
func FromResources(res Resources, stages []Stage) *Executor {
	var tiers []Tier
	for _, st := range stages {
		switch st {
		case StageMatch:
			if res.Index != nil {
				m := res.Matcher
				if m == nil {
					m = match.New()
				}
				tiers = append(tiers, &MatchTier{Index: res.Index, Matcher: m})
			}
		case StageCurated:
			if res.Curated != nil {
				tiers = append(tiers, &CuratedTier{Table: res.Curated})
			}
		case StageBrandStats:
			if res.Stats != nil {
				tiers = append(tiers, &BrandStatsTier{Stats: res.Stats})
			}
		case StageGlobalStats:
			if res.Stats != nil {
				tiers = append(tiers, &GlobalStatsTier{Stats: res.Stats})
			}
		}
	}
	return NewExecutor(res.Extractor, tiers...)
}

// Stages lists the stages of the configured tiers.
func (e *Executor) Stages() []Stage {
	out := make([]Stage, len(e.tiers))
	for i, t := range e.tiers {
		out[i] = t.Stage()
	}
	return out
}

// Fill returns a copy of rl with missing fields populated. The input is
// not modified. Fill is idempotent: filling its own output changes
// nothing.
func (e *Executor) Fill(rl model.ReconciledListing) (model.ReconciledListing, Trace) {
	out := rl.Clone()
	tr := Trace{Filled: make(map[model.Field]model.FillTier)}

	if out.Key == "" && out.KeyGrammar == "" {
		r := e.extractor.KeyOf(out.Listing.Name, out.Listing.Brand)
		out.Key, out.KeyGrammar = string(r.Key), r.Grammar
	}

	for _, t := range e.tiers {
		missing := out.Missing(t.Fields())
		if len(missing) == 0 {
			if t.Stage() == StageMatch {
				tr.Match = match.Result{Outcome: match.OutcomeComplete}
			}
			continue
		}
		if t.Stage() == StageMatch && out.Key == "" {
			tr.Match = match.Result{Outcome: match.OutcomeUnkeyable}
			continue
		}
		if t.Stage() == StageCurated && out.Key == "" {
			continue
		}
		supply := t.Prepare(&out, &tr)
		if supply == nil {
			continue
		}
		for _, f := range missing {
			v, prov, ok := supply(f)
			if !ok {
				continue
			}
			if out.Set(f, v, prov) {
				tr.Filled[f] = prov.Tier
			}
		}
	}
	return out, tr
}

// Run reconciles raw listings in order.
func (e *Executor) Run(listings []model.RawListing) ([]model.ReconciledListing, *Counters) {
	seeded := make([]model.ReconciledListing, len(listings))
	for i, l := range listings {
		seeded[i] = model.NewReconciled(l)
	}
	return e.FillAll(seeded)
}

// FillAll fills every listing in order and aggregates the traces.
func (e *Executor) FillAll(listings []model.ReconciledListing) ([]model.ReconciledListing, *Counters) {
	c := newCounters()
	out := make([]model.ReconciledListing, len(listings))
	for i, rl := range listings {
		filled, tr := e.Fill(rl)
		c.observe(rl, tr)
		out[i] = filled
	}
	zap.L().Info("waterfall complete",
		zap.Int("listings", c.Listings),
		zap.Int("exact", c.Match.Exact),
		zap.Int("fuzzy", c.Match.Fuzzy),
		zap.Int("miss", c.Match.Miss),
		zap.Int("unkeyable", c.Match.Unkeyable),
	)
	return out, c
}
