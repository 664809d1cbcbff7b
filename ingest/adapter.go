// Package ingest drives one end-to-end ingestion run: license gate, adapter
// invocation, normalization, deduplication, quality filtering, and idempotent
// persistence, with per-source failure isolation.
package ingest

import (
	"context"
	"time"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

// Adapter is a pluggable source-specific unit that fetches and shapes raw
// records for the pipeline. Implementations live outside the core; the
// orchestrator only sees this contract.
//
// Ingest must either return a Result (possibly with all lists empty) or an
// error. Per-adapter timeouts and retries are the adapter's concern; the
// orchestrator has no visibility into partial progress.
type Adapter interface {
	// ID is the stable identity of the source, used as source_id in storage.
	ID() string

	// Kind declares what this source produces.
	Kind() types.Kind

	// LicenseRisk is the source's declared legal-reuse risk.
	LicenseRisk() types.LicenseRisk

	// Ingest fetches and shapes this source's records for one run. The
	// returned records are raw: unfiltered and undeduplicated.
	Ingest(ctx context.Context, rc types.RunContext) (*types.Result, error)
}

// Registry is an ordered list of adapters consulted identically every run.
// Order only matters for dedupe tie-breaks within one source's output merged
// view; there is no priority weighting beyond list position.
type Registry []Adapter

// Store is the narrow persistence surface the orchestrator needs. The
// storage package provides the SQLite implementation; tests substitute
// in-memory fakes.
type Store interface {
	CreateRun(runID string, startedAt time.Time) error
	CompleteRun(runID string, status types.RunStatus, finishedAt time.Time, summary *types.RunSummary) error

	UpsertProduct(sourceID string, p types.Product, score float64, risk types.LicenseRisk, updatedAt time.Time) error
	UpsertRecipe(sourceID string, r types.Recipe, score float64, risk types.LicenseRisk, updatedAt time.Time) error
	InsertPriceSignal(sourceID string, s types.PriceSignal) error
	UpsertSynonym(sourceID string, syn types.Synonym) error

	RecordSourceSnapshot(sourceID, runID string, counts types.SourceCounts, risk types.LicenseRisk, capturedAt time.Time) error
}
