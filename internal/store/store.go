package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tunitech/specrecon/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// ListingFilter selects reconciled listings of one run. Nil bounds are
// not applied. Results are ordered by price ascending, unpriced last.
type ListingFilter struct {
	Brand      string   `json:"brand,omitempty"`
	Source     string   `json:"source,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	MinRAM     *float64 `json:"min_ram,omitempty"`
	MinStorage *float64 `json:"min_storage,omitempty"`
	MinBattery *float64 `json:"min_battery,omitempty"`
	MinCamera  *float64 `json:"min_camera,omitempty"`
	Requires5G bool     `json:"requires_5g,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

// BrandSummary aggregates one brand's listings within a run.
type BrandSummary struct {
	Brand    string   `json:"brand"`
	Listings int      `json:"listings"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	AvgPrice *float64 `json:"avg_price,omitempty"`
}

// Store persists runs and the reconciled listing table.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, report *model.RunReport) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	// LatestRun returns the most recent complete run.
	LatestRun(ctx context.Context) (*model.Run, error)

	// Listings
	SaveListings(ctx context.Context, runID string, listings []model.ReconciledListing) (int64, error)
	ListListings(ctx context.Context, runID string, filter ListingFilter) ([]model.ReconciledListing, error)
	Brands(ctx context.Context, runID string) ([]BrandSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
