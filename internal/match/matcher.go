package match

import (
	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/specindex"
)

// DefaultThreshold is the minimum fuzzy score a candidate must exceed.
const DefaultThreshold = 0.75

// Outcome classifies a match attempt.
type Outcome string

const (
	OutcomeExact     Outcome = "exact"
	OutcomeFuzzy     Outcome = "fuzzy"
	OutcomeMiss      Outcome = "miss"
	OutcomeUnkeyable Outcome = "unkeyable"
	OutcomeAmbiguous Outcome = "ambiguous"
	// OutcomeComplete marks a listing that needed no donor.
	OutcomeComplete Outcome = "complete"
)

// Result is the outcome of matching one key against an index.
type Result struct {
	Outcome  Outcome
	Key      canonical.Key
	Record   model.SpecRecord
	Score    float64
	RunnerUp float64
}

// Matched reports whether Record is usable.
func (r Result) Matched() bool {
	return r.Outcome == OutcomeExact || r.Outcome == OutcomeFuzzy
}

// Matcher resolves keys against a spec index. A Matcher is safe for
// concurrent use once built.
type Matcher struct {
	threshold   float64
	minMargin   float64
	numberGuard bool
	rank        map[string]int
	scorer      Scorer
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the acceptance threshold. Values outside (0, 1] are
// ignored.
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// WithMinMargin rejects a fuzzy winner whose lead over the runner-up is
// smaller than margin. Zero disables the check.
func WithMinMargin(margin float64) Option {
	return func(m *Matcher) {
		if margin >= 0 {
			m.minMargin = margin
		}
	}
}

// WithPrecedence breaks equal fuzzy scores in favour of the source listed
// earlier.
func WithPrecedence(sources []string) Option {
	return func(m *Matcher) { m.rank = specindex.Rank(sources) }
}

// WithNumberGuard controls whether candidates whose model numbers differ
// from the target ("a15" against "a55") are skipped. Enabled by default.
func WithNumberGuard(on bool) Option {
	return func(m *Matcher) { m.numberGuard = on }
}

// WithScorer replaces the similarity function.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// New builds a Matcher with DefaultThreshold and Similarity.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		threshold:   DefaultThreshold,
		numberGuard: true,
		rank:        map[string]int{},
		scorer:      Similarity,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match looks key up in idx. An exact hit returns without scoring any
// candidate. Otherwise every indexed key is scored and the best one is
// accepted only if its score exceeds the threshold. Equal scores go to the
// higher-precedence source, then to the key indexed first.
func (m *Matcher) Match(key canonical.Key, idx *specindex.Index) Result {
	if key == "" {
		return Result{Outcome: OutcomeUnkeyable}
	}
	if idx == nil || idx.Len() == 0 {
		return Result{Outcome: OutcomeMiss}
	}
	if rec, ok := idx.Get(key); ok {
		return Result{Outcome: OutcomeExact, Key: key, Record: rec, Score: 1}
	}

	target := string(key)
	var (
		best     Result
		bestRank int
		found    bool
		runnerUp float64
	)
	idx.Each(func(k canonical.Key, rec model.SpecRecord) bool {
		if m.numberGuard && !sameModelNumbers(target, string(k)) {
			return true
		}
		score := m.scorer(target, string(k))
		r := m.rankOf(rec.Source)
		switch {
		case !found:
			best, bestRank, found = Result{Key: k, Record: rec, Score: score}, r, true
		case score > best.Score || (score == best.Score && r < bestRank):
			runnerUp = best.Score
			best, bestRank = Result{Key: k, Record: rec, Score: score}, r
		case score > runnerUp:
			runnerUp = score
		}
		return true
	})

	if !found || best.Score <= m.threshold {
		return Result{Outcome: OutcomeMiss, Score: best.Score}
	}
	best.RunnerUp = runnerUp
	if m.minMargin > 0 && best.Score-runnerUp < m.minMargin {
		best.Outcome = OutcomeAmbiguous
		return best
	}
	best.Outcome = OutcomeFuzzy
	return best
}

func (m *Matcher) rankOf(source string) int {
	if r, ok := m.rank[source]; ok {
		return r
	}
	return len(m.rank)
}
