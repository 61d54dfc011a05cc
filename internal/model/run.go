package model

import "time"

// RunStatus represents the current state of a reconciliation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the reconciliation pipeline.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Report    *RunReport `json:"report,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SourceReport summarises ingestion and indexing of one storefront.
type SourceReport struct {
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	Rows        int           `json:"rows"`
	Unparseable map[Field]int `json:"unparseable,omitempty"`
	Unkeyable   int           `json:"unkeyable"`
	Degraded    int           `json:"degraded"`
	IndexSize   int           `json:"index_size"`
}

// MatchCounts tallies how recipient listings resolved against the index.
type MatchCounts struct {
	Exact     int `json:"exact"`
	Fuzzy     int `json:"fuzzy"`
	Miss      int `json:"miss"`
	Unkeyable int `json:"unkeyable"`
	Ambiguous int `json:"ambiguous"`
	Complete  int `json:"complete"`
}

// TierCoverage is the per-field count of listings with a value after a
// waterfall stage completed. Counts never decrease from one stage to the
// next.
type TierCoverage struct {
	Stage    string        `json:"stage"`
	PerField map[Field]int `json:"per_field"`
	Total    int           `json:"total"`
}

// PhaseStatus is the outcome of one pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult records the timing and outcome of one pipeline phase.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// RunReport is the coverage and provenance summary of a run.
type RunReport struct {
	RunID           string                     `json:"run_id"`
	Listings        int                        `json:"listings"`
	Sources         []SourceReport             `json:"sources"`
	IndexSize       int                        `json:"index_size"`
	CuratedVersion  string                     `json:"curated_version,omitempty"`
	Match           MatchCounts                `json:"match"`
	Filled          map[FillTier]map[Field]int `json:"filled"`
	Coverage        []TierCoverage             `json:"coverage"`
	Output          string                     `json:"output,omitempty"`
	Phases          []PhaseResult              `json:"phases,omitempty"`
	StartedAt       time.Time                  `json:"started_at"`
	DurationSeconds float64                    `json:"duration_seconds"`
}
