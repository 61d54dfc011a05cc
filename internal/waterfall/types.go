package waterfall

import (
	"github.com/tunitech/specrecon/internal/match"
	"github.com/tunitech/specrecon/internal/model"
)

// Stage is one step of the fill waterfall. Stages always run in the order
// of Stages.
type Stage string

const (
	StageMatch       Stage = "match"
	StageCurated     Stage = "curated"
	StageBrandStats  Stage = "brand_stats"
	StageGlobalStats Stage = "global_stats"
)

// Stages lists every stage in precedence order.
var Stages = []Stage{StageMatch, StageCurated, StageBrandStats, StageGlobalStats}

func (s Stage) order() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// stageTiers maps a stage to the provenance tiers it can emit.
var stageTiers = map[Stage][]model.FillTier{
	StageMatch:       {model.TierExactMatch, model.TierFuzzyMatch},
	StageCurated:     {model.TierCurated, model.TierCuratedBase},
	StageBrandStats:  {model.TierBrandStats},
	StageGlobalStats: {model.TierGlobalStats},
}

// Trace records what the waterfall did for one listing.
type Trace struct {
	Match   match.Result
	Matched bool
	Filled  map[model.Field]model.FillTier
}

// Counters aggregates traces over a run. Original counts values present
// before the pass, whatever their provenance.
type Counters struct {
	Listings int                                    `json:"listings"`
	Match    model.MatchCounts                      `json:"match"`
	Original map[model.Field]int                    `json:"original"`
	Filled   map[model.FillTier]map[model.Field]int `json:"filled"`
}

func newCounters() *Counters {
	return &Counters{
		Original: make(map[model.Field]int),
		Filled:   make(map[model.FillTier]map[model.Field]int),
	}
}

func (c *Counters) observe(before model.ReconciledListing, tr Trace) {
	c.Listings++
	for f, v := range before.Specs {
		if v != "" {
			c.Original[f]++
		}
	}
	switch tr.Match.Outcome {
	case match.OutcomeExact:
		c.Match.Exact++
	case match.OutcomeFuzzy:
		c.Match.Fuzzy++
	case match.OutcomeUnkeyable:
		c.Match.Unkeyable++
	case match.OutcomeAmbiguous:
		c.Match.Ambiguous++
	case match.OutcomeMiss:
		c.Match.Miss++
	case match.OutcomeComplete:
		c.Match.Complete++
	}
	for f, tier := range tr.Filled {
		m, ok := c.Filled[tier]
		if !ok {
			m = make(map[model.Field]int)
			c.Filled[tier] = m
		}
		m[f]++
	}
}

// FilledBy returns how many values tier supplied for f.
func (c *Counters) FilledBy(tier model.FillTier, f model.Field) int {
	return c.Filled[tier][f]
}

// Coverage reports, for the original data and after each stage, how many
// listings hold a value for every field.
func (c *Counters) Coverage(fields []model.Field) []model.TierCoverage {
	current := make(map[model.Field]int, len(fields))
	for _, f := range fields {
		current[f] = c.Original[f]
	}
	out := []model.TierCoverage{snapshot(string(model.TierOriginal), fields, current)}
	for _, st := range Stages {
		for _, tier := range stageTiers[st] {
			for _, f := range fields {
				current[f] += c.Filled[tier][f]
			}
		}
		out = append(out, snapshot(string(st), fields, current))
	}
	return out
}

func snapshot(stage string, fields []model.Field, current map[model.Field]int) model.TierCoverage {
	tc := model.TierCoverage{Stage: stage, PerField: make(map[model.Field]int, len(fields))}
	for _, f := range fields {
		tc.PerField[f] = current[f]
		tc.Total += current[f]
	}
	return tc
}
