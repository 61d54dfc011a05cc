package waterfall

import (
	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/curated"
	"github.com/tunitech/specrecon/internal/match"
	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/specindex"
	"github.com/tunitech/specrecon/internal/stats"
)

// Supplier offers a value for a missing field. ok is false when the tier
// has nothing for f.
type Supplier func(f model.Field) (value string, prov model.FieldProvenance, ok bool)

// Tier is one source of fill values.
type Tier interface {
	Stage() Stage
	// Fields lists the fields this tier may fill.
	Fields() []model.Field
	// Prepare resolves per-listing state once and returns a Supplier, or
	// nil when the tier cannot help this listing.
	Prepare(rl *model.ReconciledListing, tr *Trace) Supplier
}

// MatchTier copies model-level values from the best corroborating record
// in the merged cross-source index.
type MatchTier struct {
	Index   *specindex.Index
	Matcher *match.Matcher
}

func (t *MatchTier) Stage() Stage { return StageMatch }

func (t *MatchTier) Fields() []model.Field { return model.DonorFields }

func (t *MatchTier) Prepare(rl *model.ReconciledListing, tr *Trace) Supplier {
	r := t.Matcher.Match(canonical.Key(rl.Key), t.Index)
	tr.Match = r
	if !r.Matched() {
		return nil
	}
	tr.Matched = true
	tier := model.TierExactMatch
	if r.Outcome == match.OutcomeFuzzy {
		tier = model.TierFuzzyMatch
	}
	return recordSupplier(r.Record, tier, r.Score)
}

// CuratedTier looks the key up in the curated reference table.
type CuratedTier struct {
	Table *curated.Table
}

func (t *CuratedTier) Stage() Stage { return StageCurated }

func (t *CuratedTier) Fields() []model.Field { return model.DonorFields }

func (t *CuratedTier) Prepare(rl *model.ReconciledListing, _ *Trace) Supplier {
	rec, tier, ok := t.Table.Lookup(canonical.Key(rl.Key))
	if !ok {
		return nil
	}
	return recordSupplier(rec, tier, 0)
}

func recordSupplier(rec model.SpecRecord, tier model.FillTier, score float64) Supplier {
	return func(f model.Field) (string, model.FieldProvenance, bool) {
		v := rec.Get(f)
		if v == "" {
			return "", model.FieldProvenance{}, false
		}
		return v, model.FieldProvenance{
			Tier:     tier,
			Source:   rec.Source,
			DonorKey: rec.Key,
			Score:    score,
		}, true
	}
}

// BrandStatsTier fills from the listing brand's median or mode.
type BrandStatsTier struct {
	Stats *stats.Statistics
}

func (t *BrandStatsTier) Stage() Stage { return StageBrandStats }

func (t *BrandStatsTier) Fields() []model.Field { return model.StatisticFields }

func (t *BrandStatsTier) Prepare(rl *model.ReconciledListing, _ *Trace) Supplier {
	brand := stats.BrandOf(rl.Listing)
	if brand == "" {
		return nil
	}
	return func(f model.Field) (string, model.FieldProvenance, bool) {
		s, ok := t.Stats.Brand(brand, f)
		if !ok {
			return "", model.FieldProvenance{}, false
		}
		return s.Value, model.FieldProvenance{Tier: model.TierBrandStats, Source: brand, Samples: s.Samples}, true
	}
}

// GlobalStatsTier fills from dataset-wide aggregates, but only for fields
// where the listing's brand has no known values at all.
type GlobalStatsTier struct {
	Stats *stats.Statistics
}

func (t *GlobalStatsTier) Stage() Stage { return StageGlobalStats }

func (t *GlobalStatsTier) Fields() []model.Field { return model.StatisticFields }

func (t *GlobalStatsTier) Prepare(rl *model.ReconciledListing, _ *Trace) Supplier {
	brand := stats.BrandOf(rl.Listing)
	return func(f model.Field) (string, model.FieldProvenance, bool) {
		if _, ok := t.Stats.Brand(brand, f); ok {
			return "", model.FieldProvenance{}, false
		}
		s, ok := t.Stats.Global(f)
		if !ok {
			return "", model.FieldProvenance{}, false
		}
		return s.Value, model.FieldProvenance{Tier: model.TierGlobalStats, Samples: s.Samples}, true
	}
}
