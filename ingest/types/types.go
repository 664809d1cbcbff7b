// Package types defines the shared record model for the Vay ingestion
// pipeline: the normalized shapes adapters emit, the per-run context, and the
// run summary returned to the caller.
package types

import (
	"time"
)

// LicenseRisk is a coarse legal-reuse-risk classification attached to each
// source. Ordered low < medium < high; the ordering itself lives in the
// license package.
type LicenseRisk string

const (
	LicenseRiskLow    LicenseRisk = "low"
	LicenseRiskMedium LicenseRisk = "medium"
	LicenseRiskHigh   LicenseRisk = "high"
)

// Kind describes what a source adapter produces.
type Kind string

const (
	KindProducts Kind = "products"
	KindRecipes  Kind = "recipes"
	KindPrices   Kind = "prices"
	KindMixed    Kind = "mixed"
)

// Nutrition is a sparse per-100g nutrient map. Only the four keys below are
// meaningful; adapters may populate any subset.
type Nutrition map[string]float64

// Nutrition keys.
const (
	NutrientKcal    = "kcal"
	NutrientProtein = "protein"
	NutrientFat     = "fat"
	NutrientCarbs   = "carbs"
)

// HasAny reports whether at least one nutrient field is present.
func (n Nutrition) HasAny() bool {
	return len(n) > 0
}

// Provenance is a free-form metadata bag recording where/when/how a record
// was obtained. After normalization it always contains a "source" key.
type Provenance map[string]string

// Product is a normalized food product observation from one source.
type Product struct {
	SourceRef  string     `json:"source_ref"`
	Barcode    string     `json:"barcode,omitempty"` // digits only after normalization
	Name       string     `json:"name"`
	Brand      string     `json:"brand,omitempty"`
	Category   string     `json:"category,omitempty"`
	Nutrition  Nutrition  `json:"nutrition,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`
}

// Recipe is a normalized recipe observation from one source. Ingredient and
// instruction order is meaningful: display order and cooking sequence.
type Recipe struct {
	SourceRef        string     `json:"source_ref"`
	Title            string     `json:"title"`
	SourceURL        string     `json:"source_url"`
	SourceName       string     `json:"source_name,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	Ingredients      []string   `json:"ingredients"`
	Instructions     []string   `json:"instructions"`
	Nutrition        Nutrition  `json:"nutrition,omitempty"`
	TotalTimeMinutes int        `json:"total_time_minutes,omitempty"` // 0 = unknown
	Cuisine          string     `json:"cuisine,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Provenance       Provenance `json:"provenance,omitempty"`
}

// PriceSourceKind classifies how a price observation was obtained.
type PriceSourceKind string

const (
	PriceSourceReceipt  PriceSourceKind = "receipt"
	PriceSourceHistory  PriceSourceKind = "history"
	PriceSourceProvider PriceSourceKind = "provider"
	PriceSourceFallback PriceSourceKind = "fallback"
)

// PriceSignal is a single price observation for an ingredient.
type PriceSignal struct {
	Ingredient    string          `json:"ingredient"`
	NormalizedKey string          `json:"normalized_key"`
	PriceRub      float64         `json:"price_rub"`
	Confidence    float64         `json:"confidence"` // clamped to [0,1]
	Region        string          `json:"region,omitempty"`
	SourceKind    PriceSourceKind `json:"source_kind"`
	CapturedAt    string          `json:"captured_at"` // RFC3339
}

// Synonym maps a canonical ingredient key to an alternate spelling.
type Synonym struct {
	NormalizedKey string `json:"normalized_key"`
	Synonym       string `json:"synonym"`
}

// Result is what an adapter returns for one run. All four lists are always
// non-nil; a single-kind adapter simply leaves the others empty.
type Result struct {
	Products     []Product     `json:"products"`
	Recipes      []Recipe      `json:"recipes"`
	PriceSignals []PriceSignal `json:"price_signals"`
	Synonyms     []Synonym     `json:"synonyms"`
}

// NewResult returns an empty Result with all four lists allocated.
func NewResult() *Result {
	return &Result{
		Products:     []Product{},
		Recipes:      []Recipe{},
		PriceSignals: []PriceSignal{},
		Synonyms:     []Synonym{},
	}
}

// RunContext is the immutable per-run context handed to every adapter.
type RunContext struct {
	RunID string `json:"run_id"`

	// Now is the logical timestamp for all provenance stamps in this run.
	Now time.Time `json:"now"`

	// MaxItemsPerSource caps adapter output, clamped to [50, 25000].
	MaxItemsPerSource int `json:"max_items_per_source"`

	// Region tags price signals that do not carry their own region.
	Region string `json:"region"`
}

// NowISO returns the run's logical timestamp in RFC3339.
func (rc RunContext) NowISO() string {
	return rc.Now.UTC().Format(time.RFC3339)
}

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"

	// RunStatusFailed is reserved for infrastructure failure before any
	// source is attempted.
	RunStatusFailed RunStatus = "failed"
)

// SourceStatus is the outcome class for one source within a run.
type SourceStatus string

const (
	SourceStatusOK      SourceStatus = "ok"
	SourceStatusSkipped SourceStatus = "skipped"
	SourceStatusError   SourceStatus = "error"
)

// SourceCounts aggregates the records a source contributed after filtering.
type SourceCounts struct {
	Products int `json:"products"`
	Recipes  int `json:"recipes"`
	Prices   int `json:"prices"`
	Synonyms int `json:"synonyms"`
}

// SourceOutcome records how one source fared within a run.
type SourceOutcome struct {
	ID       string       `json:"id"`
	Status   SourceStatus `json:"status"`
	Products int          `json:"products"`
	Recipes  int          `json:"recipes"`
	Prices   int          `json:"prices"`
	Synonyms int          `json:"synonyms"`
	Reason   string       `json:"reason,omitempty"`
}

// RunSummary is the sole output of an ingestion run.
type RunSummary struct {
	RunID      string          `json:"run_id"`
	Status     RunStatus       `json:"status"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at"`
	Sources    []SourceOutcome `json:"sources"`
}

// Totals sums per-source counts across the run.
func (s *RunSummary) Totals() SourceCounts {
	var t SourceCounts
	for _, src := range s.Sources {
		t.Products += src.Products
		t.Recipes += src.Recipes
		t.Prices += src.Prices
		t.Synonyms += src.Synonyms
	}
	return t
}
