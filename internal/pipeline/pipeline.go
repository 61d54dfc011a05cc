package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/config"
	"github.com/tunitech/specrecon/internal/curated"
	"github.com/tunitech/specrecon/internal/emit"
	"github.com/tunitech/specrecon/internal/ingest"
	"github.com/tunitech/specrecon/internal/match"
	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/specindex"
	"github.com/tunitech/specrecon/internal/stats"
	"github.com/tunitech/specrecon/internal/store"
	"github.com/tunitech/specrecon/internal/waterfall"
)

// Pipeline runs one batch reconciliation: ingest every source, build the
// spec indices, fill missing values through the waterfall, then emit and
// persist the unified table.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	extractor *canonical.Extractor
}

// New creates a Pipeline. st may be nil, in which case nothing is
// persisted and run ids are generated locally.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		extractor: canonical.NewExtractor(),
	}
}

// Result is the outcome of a successful run.
type Result struct {
	RunID    string
	Listings []model.ReconciledListing
	Report   *model.RunReport
}

// errSkipped marks a phase that had nothing to do.
var errSkipped = eris.New("pipeline: phase skipped")

// Run executes the full reconciliation. Any phase error fails the run;
// per-row problems are counted in the report instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	runID, err := p.startRun(ctx)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting reconciliation", zap.Int("sources", len(p.cfg.Sources.Inputs)))

	report := &model.RunReport{
		RunID:     runID,
		StartedAt: start.UTC(),
		Output:    p.cfg.Output.Path,
	}

	trackPhase := func(name string, fn func() error) error {
		t0 := time.Now()
		fnErr := fn()
		pr := model.PhaseResult{Name: name, Status: model.PhaseStatusComplete, Duration: time.Since(t0).Milliseconds()}
		switch {
		case eris.Is(fnErr, errSkipped):
			pr.Status = model.PhaseStatusSkipped
			fnErr = nil
			log.Debug("pipeline: phase skipped", zap.String("phase", name))
		case fnErr != nil:
			pr.Status = model.PhaseStatusFailed
			pr.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Error(fnErr),
			)
		default:
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
			)
		}
		report.Phases = append(report.Phases, pr)
		return fnErr
	}

	listings, err := p.run(ctx, report, trackPhase)
	if err != nil {
		p.failRun(ctx, runID, err)
		return nil, err
	}

	report.DurationSeconds = time.Since(start).Seconds()
	if path := p.cfg.Output.CoveragePath; path != "" {
		if err := emit.WriteCoverage(path, report); err != nil {
			p.failRun(ctx, runID, err)
			return nil, err
		}
	}
	if p.store != nil {
		if err := p.store.CompleteRun(ctx, runID, report); err != nil {
			return nil, eris.Wrap(err, "pipeline: complete run")
		}
	}

	log.Info("pipeline: reconciliation complete",
		zap.Int("listings", report.Listings),
		zap.Int("index_size", report.IndexSize),
		zap.Int("exact", report.Match.Exact),
		zap.Int("fuzzy", report.Match.Fuzzy),
		zap.Int("miss", report.Match.Miss),
		zap.Float64("duration_s", report.DurationSeconds),
	)
	return &Result{RunID: runID, Listings: listings, Report: report}, nil
}

func (p *Pipeline) run(ctx context.Context, report *model.RunReport, trackPhase func(string, func() error) error) ([]model.ReconciledListing, error) {
	stages, err := waterfall.ParseStages(p.cfg.Fill.Tiers)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fill tiers")
	}
	enabled := make(map[waterfall.Stage]bool, len(stages))
	for _, st := range stages {
		enabled[st] = true
	}

	// Phase 1: ingest every source.
	var sources []*ingest.Result
	if err := trackPhase("ingest", func() error {
		sources, err = LoadSources(ctx, p.cfg.Sources.Inputs, p.cfg.Index.Concurrency)
		return err
	}); err != nil {
		return nil, err
	}

	var raw []model.RawListing
	groups := make([]specindex.Group, len(sources))
	for i, src := range sources {
		groups[i] = specindex.Group{Source: src.Source, Listings: src.Listings}
		raw = append(raw, src.Listings...)
	}

	// Phase 2: per-source spec indices, merged by precedence.
	var merged *specindex.Index
	var perSource []*specindex.Index
	if err := trackPhase("index", func() error {
		merged, perSource, err = specindex.BuildAll(ctx, groups, p.extractor, specindex.BuildOptions{
			Precedence:  p.cfg.Sources.Precedence,
			MinKeyLen:   p.cfg.Index.MinKeyLength,
			Concurrency: p.cfg.Index.Concurrency,
		})
		return err
	}); err != nil {
		return nil, err
	}
	report.Sources = SourceReports(sources, perSource)
	report.IndexSize = merged.Len()

	// Phase 3: brand and global statistics over the raw data.
	var st *stats.Statistics
	if err := trackPhase("stats", func() error {
		if !enabled[waterfall.StageBrandStats] && !enabled[waterfall.StageGlobalStats] {
			return errSkipped
		}
		st = stats.Compute(raw, model.StatisticFields)
		return nil
	}); err != nil {
		return nil, err
	}

	// Phase 4: curated reference table.
	var table *curated.Table
	if err := trackPhase("curated", func() error {
		if !enabled[waterfall.StageCurated] {
			return errSkipped
		}
		table, err = curated.Open(p.cfg.Curated.Path)
		if err != nil {
			return err
		}
		report.CuratedVersion = table.Version()
		return nil
	}); err != nil {
		return nil, err
	}

	// Phase 5: fill waterfall.
	var listings []model.ReconciledListing
	if err := trackPhase("fill", func() error {
		exec := waterfall.FromResources(waterfall.Resources{
			Extractor: p.extractor,
			Index:     merged,
			Matcher:   p.matcher(),
			Curated:   table,
			Stats:     st,
		}, stages)
		var counters *waterfall.Counters
		listings, counters = exec.Run(raw)
		report.Listings = counters.Listings
		report.Match = counters.Match
		report.Filled = counters.Filled
		report.Coverage = counters.Coverage(model.Fields)
		return ctx.Err()
	}); err != nil {
		return nil, err
	}

	// Phase 6: unified table.
	if err := trackPhase("emit", func() error {
		if p.cfg.Output.Path == "" {
			return errSkipped
		}
		format, err := p.outputFormat()
		if err != nil {
			return err
		}
		extra := make([][]string, len(sources))
		for i, src := range sources {
			extra[i] = src.ExtraColumns
		}
		return emit.Write(p.cfg.Output.Path, format, listings, emit.ExtraColumns(extra...),
			emit.Options{Provenance: p.cfg.Output.Provenance})
	}); err != nil {
		return nil, err
	}

	// Phase 7: persistence.
	if err := trackPhase("persist", func() error {
		if p.store == nil {
			return errSkipped
		}
		n, err := p.store.SaveListings(ctx, report.RunID, listings)
		if err != nil {
			return eris.Wrap(err, "pipeline: save listings")
		}
		zap.L().Debug("pipeline: listings saved", zap.Int64("rows", n))
		return nil
	}); err != nil {
		return nil, err
	}

	return listings, nil
}

func (p *Pipeline) matcher() *match.Matcher {
	return match.New(
		match.WithThreshold(p.cfg.Match.Threshold),
		match.WithMinMargin(p.cfg.Match.MinMargin),
		match.WithPrecedence(p.cfg.Sources.Precedence),
		match.WithNumberGuard(p.cfg.Match.NumberGuard),
	)
}

// outputFormat resolves the configured format, falling back to the output
// file extension.
func (p *Pipeline) outputFormat() (emit.Format, error) {
	if p.cfg.Output.Format == "" && strings.EqualFold(filepath.Ext(p.cfg.Output.Path), ".xlsx") {
		return emit.FormatXLSX, nil
	}
	return emit.ParseFormat(p.cfg.Output.Format)
}

func (p *Pipeline) startRun(ctx context.Context) (string, error) {
	if p.store == nil {
		return uuid.New().String(), nil
	}
	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: create run")
	}
	return run.ID, nil
}

func (p *Pipeline) failRun(ctx context.Context, runID string, cause error) {
	if p.store == nil {
		return
	}
	if err := p.store.FailRun(context.WithoutCancel(ctx), runID, cause.Error()); err != nil {
		zap.L().Warn("pipeline: failed to mark run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

// LoadSources ingests every source concurrently. Results keep the order of
// sources. The first unreadable source aborts the load.
func LoadSources(ctx context.Context, sources []ingest.Source, concurrency int) ([]*ingest.Result, error) {
	if len(sources) == 0 {
		return nil, eris.New("pipeline: no sources configured")
	}
	results := make([]*ingest.Result, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, src := range sources {
		g.Go(func() error {
			res, err := ingest.Load(gCtx, src)
			if err != nil {
				return eris.Wrapf(err, "pipeline: load source %s", src.Name)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SourceReports combines ingest counts with the per-source index build
// statistics.
func SourceReports(sources []*ingest.Result, indices []*specindex.Index) []model.SourceReport {
	bySource := make(map[string]*specindex.Index, len(indices))
	for _, idx := range indices {
		bySource[idx.Source()] = idx
	}
	out := make([]model.SourceReport, 0, len(sources))
	for _, src := range sources {
		sr := src.Report
		if idx, ok := bySource[src.Source]; ok {
			bs := idx.Stats()
			sr.Unkeyable = bs.Unkeyable
			sr.Degraded = bs.Degraded
			sr.IndexSize = idx.Len()
		}
		out = append(out, sr)
	}
	return out
}
