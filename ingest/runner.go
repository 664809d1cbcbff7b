package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/dedupe"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/license"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/quality"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/util"
)

// Bounds for the per-source item cap.
const (
	MinItemsPerSource     = 50
	MaxItemsPerSource     = 25000
	DefaultItemsPerSource = 1500
)

// Options configure one Runner. Zero values fall back to pipeline defaults.
type Options struct {
	// MaxLicenseRisk is the run-wide admissibility ceiling.
	MaxLicenseRisk types.LicenseRisk

	// MaxItemsPerSource caps adapter output, clamped to [50, 25000].
	MaxItemsPerSource int

	// Region tags price signals that carry no region of their own.
	Region string

	// MinQualityScore is the persistence admission threshold.
	// Zero means quality.DefaultMinScore.
	MinQualityScore float64
}

// Runner drives one end-to-end ingestion run over a fixed adapter registry.
// Processing is strictly sequential in registry order, which keeps the
// summary ordering deterministic and serializes all store writes.
type Runner struct {
	store    Store
	registry Registry
	opts     Options
	logger   *zap.SugaredLogger
}

// NewRunner creates a Runner. The registry is injected explicitly so the
// orchestrator stays unit-testable with fake adapters. logger may be nil.
func NewRunner(store Store, registry Registry, opts Options, logger *zap.SugaredLogger) *Runner {
	if opts.MaxLicenseRisk == "" {
		opts.MaxLicenseRisk = types.LicenseRiskHigh
	}
	if opts.MaxItemsPerSource == 0 {
		opts.MaxItemsPerSource = DefaultItemsPerSource
	}
	if opts.MinQualityScore == 0 {
		opts.MinQualityScore = quality.DefaultMinScore
	}
	return &Runner{
		store:    store,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
}

// Run executes one ingestion run and returns its summary.
//
// Only infrastructure failures (the run row cannot be created, or run
// completion cannot be recorded) surface as an error; every per-source
// failure is absorbed into the summary and the run continues.
func (r *Runner) Run(ctx context.Context) (*types.RunSummary, error) {
	started := time.Now()
	rc := types.RunContext{
		RunID:             newRunID(started),
		Now:               started,
		MaxItemsPerSource: util.ClampInt(r.opts.MaxItemsPerSource, MinItemsPerSource, MaxItemsPerSource),
		Region:            r.opts.Region,
	}

	if err := r.store.CreateRun(rc.RunID, started); err != nil {
		return nil, errors.Wrapf(err, "create run %s", rc.RunID)
	}

	if r.logger != nil {
		r.logger.Infow("Ingestion run started",
			"run_id", rc.RunID,
			"sources", len(r.registry),
			"max_license_risk", r.opts.MaxLicenseRisk,
			"max_items_per_source", rc.MaxItemsPerSource,
		)
	}

	summary := &types.RunSummary{
		RunID:     rc.RunID,
		Status:    types.RunStatusRunning,
		StartedAt: started.UTC().Format(time.RFC3339),
	}

	for _, adapter := range r.registry {
		summary.Sources = append(summary.Sources, r.processSource(ctx, adapter, rc))
	}

	summary.Status = types.RunStatusSuccess
	for _, src := range summary.Sources {
		if src.Status == types.SourceStatusError {
			summary.Status = types.RunStatusPartial
			break
		}
	}

	finished := time.Now()
	summary.FinishedAt = finished.UTC().Format(time.RFC3339)

	if err := r.store.CompleteRun(rc.RunID, summary.Status, finished, summary); err != nil {
		return summary, errors.Wrapf(err, "complete run %s", rc.RunID)
	}

	if r.logger != nil {
		totals := summary.Totals()
		r.logger.Infow("Ingestion run finished",
			"run_id", rc.RunID,
			"status", summary.Status,
			"products", totals.Products,
			"recipes", totals.Recipes,
			"prices", totals.Prices,
			"synonyms", totals.Synonyms,
			"duration", finished.Sub(started).String(),
		)
	}

	return summary, nil
}

// processSource runs the full per-source pipeline: license gate, adapter
// call, normalize, dedupe, quality filter, persist, snapshot. A failure at
// any step is contained within this source's outcome.
func (r *Runner) processSource(ctx context.Context, adapter Adapter, rc types.RunContext) types.SourceOutcome {
	sourceID := adapter.ID()
	risk := adapter.LicenseRisk()

	if !license.IsAdmissible(risk, r.opts.MaxLicenseRisk) {
		if r.logger != nil {
			r.logger.Infow("Source skipped by license gate",
				"source", sourceID,
				"risk", risk,
				"ceiling", r.opts.MaxLicenseRisk,
			)
		}
		return types.SourceOutcome{
			ID:     sourceID,
			Status: types.SourceStatusSkipped,
			Reason: license.SkipReason(risk),
		}
	}

	raw, err := r.invokeAdapter(ctx, adapter, rc)
	if err != nil {
		if r.logger != nil {
			r.logger.Warnw("Source failed, continuing run",
				"source", sourceID,
				"error", err,
			)
		}
		return types.SourceOutcome{
			ID:     sourceID,
			Status: types.SourceStatusError,
			Reason: err.Error(),
		}
	}

	res := normalizeResult(raw, sourceID, rc)
	res.Products = dedupe.Products(res.Products)
	res.Recipes = dedupe.Recipes(res.Recipes)

	counts, err := r.persistSource(sourceID, risk, res, rc)
	if err != nil {
		if r.logger != nil {
			r.logger.Warnw("Source persistence failed, continuing run",
				"source", sourceID,
				"error", err,
			)
		}
		return types.SourceOutcome{
			ID:     sourceID,
			Status: types.SourceStatusError,
			Reason: err.Error(),
		}
	}

	if err := r.store.RecordSourceSnapshot(sourceID, rc.RunID, counts, risk, rc.Now); err != nil {
		return types.SourceOutcome{
			ID:     sourceID,
			Status: types.SourceStatusError,
			Reason: err.Error(),
		}
	}

	if r.logger != nil {
		r.logger.Infow("Source ingested",
			"source", sourceID,
			"products", counts.Products,
			"recipes", counts.Recipes,
			"prices", counts.Prices,
			"synonyms", counts.Synonyms,
		)
	}

	return types.SourceOutcome{
		ID:       sourceID,
		Status:   types.SourceStatusOK,
		Products: counts.Products,
		Recipes:  counts.Recipes,
		Prices:   counts.Prices,
		Synonyms: counts.Synonyms,
	}
}

// invokeAdapter calls the adapter, converting a panic into an ordinary
// per-source error so one crashing source never aborts the run.
func (r *Runner) invokeAdapter(ctx context.Context, adapter Adapter, rc types.RunContext) (res *types.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = errors.Newf("adapter panic: %v", rec)
		}
	}()
	return adapter.Ingest(ctx, rc)
}

// persistSource writes every surviving record through the idempotent upsert
// surface and returns the persisted counts. Records below the quality
// threshold are dropped silently and never counted.
func (r *Runner) persistSource(sourceID string, risk types.LicenseRisk, res *types.Result, rc types.RunContext) (types.SourceCounts, error) {
	var counts types.SourceCounts

	for _, p := range res.Products {
		score := quality.ScoreProduct(p)
		if !quality.PassesThreshold(score, r.opts.MinQualityScore) {
			continue
		}
		if err := r.store.UpsertProduct(sourceID, p, score, risk, rc.Now); err != nil {
			return counts, errors.Wrapf(err, "upsert product %s:%s", sourceID, p.SourceRef)
		}
		counts.Products++
	}

	for _, rec := range res.Recipes {
		score := quality.ScoreRecipe(rec)
		if !quality.PassesThreshold(score, r.opts.MinQualityScore) {
			continue
		}
		if err := r.store.UpsertRecipe(sourceID, rec, score, risk, rc.Now); err != nil {
			return counts, errors.Wrapf(err, "upsert recipe %s:%s", sourceID, rec.SourceRef)
		}
		counts.Recipes++
	}

	for _, s := range res.PriceSignals {
		if err := r.store.InsertPriceSignal(sourceID, s); err != nil {
			return counts, errors.Wrapf(err, "insert price signal %s", s.NormalizedKey)
		}
		counts.Prices++
	}

	for _, syn := range res.Synonyms {
		if err := r.store.UpsertSynonym(sourceID, syn); err != nil {
			return counts, errors.Wrapf(err, "upsert synonym %s", syn.NormalizedKey)
		}
		counts.Synonyms++
	}

	return counts, nil
}
