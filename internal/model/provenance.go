package model

// FillTier identifies the waterfall stage that supplied a value.
type FillTier string

const (
	TierOriginal    FillTier = "original"
	TierExactMatch  FillTier = "exact_match"
	TierFuzzyMatch  FillTier = "fuzzy_match"
	TierCurated     FillTier = "curated"
	TierCuratedBase FillTier = "curated_base"
	TierBrandStats  FillTier = "brand_stats"
	TierGlobalStats FillTier = "global_stats"
)

// FillTiers lists every tier in precedence order.
var FillTiers = []FillTier{
	TierOriginal,
	TierExactMatch,
	TierFuzzyMatch,
	TierCurated,
	TierCuratedBase,
	TierBrandStats,
	TierGlobalStats,
}

// Stage maps a tier to its waterfall stage: 0 original, 1 cross-source
// match, 2 curated table, 3 brand statistics, 4 global statistics.
func (t FillTier) Stage() int {
	switch t {
	case TierOriginal:
		return 0
	case TierExactMatch, TierFuzzyMatch:
		return 1
	case TierCurated, TierCuratedBase:
		return 2
	case TierBrandStats:
		return 3
	case TierGlobalStats:
		return 4
	}
	return -1
}

// Imputed reports whether the value is a statistical estimate rather than
// a model-specific fact.
func (t FillTier) Imputed() bool {
	return t == TierBrandStats || t == TierGlobalStats
}

// FieldProvenance records where a single field value came from.
type FieldProvenance struct {
	Field    Field    `json:"field"`
	Tier     FillTier `json:"tier"`
	Source   string   `json:"source,omitempty"`
	DonorKey string   `json:"donor_key,omitempty"`
	Score    float64  `json:"score,omitempty"`
	Samples  int      `json:"samples,omitempty"`
}
