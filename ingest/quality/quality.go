// Package quality computes bounded completeness scores used as the single
// admission gate before persistence.
//
// A score is a weighted sum of independent completeness checks, clamped to
// [0, 1]. Note the deliberate asymmetry with normalization: a recipe with
// zero ingredients or instructions is not hard-rejected here, it just scores
// low enough that the default threshold usually drops it.
package quality

import (
	"strings"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/util"
)

// DefaultMinScore is the admission threshold applied before persistence.
const DefaultMinScore = 0.35

// ScoreProduct computes a completeness score for a product in [0, 1].
//
// Weights: name length>1 0.35, barcode length>=8 0.25, brand 0.10,
// category 0.10, any nutrition 0.15, non-empty provenance 0.05.
func ScoreProduct(p types.Product) float64 {
	var s float64
	if len(p.Name) > 1 {
		s += 0.35
	}
	if len(p.Barcode) >= 8 {
		s += 0.25
	}
	if p.Brand != "" {
		s += 0.10
	}
	if p.Category != "" {
		s += 0.10
	}
	if p.Nutrition.HasAny() {
		s += 0.15
	}
	if len(p.Provenance) > 0 {
		s += 0.05
	}
	return util.ClampFloat64(s, 0, 1)
}

// ScoreRecipe computes a completeness score for a recipe in [0, 1].
//
// Weights: title length>1 0.20, http(s) URL 0.10, image 0.10,
// >=3 ingredients 0.20, >=2 instructions 0.20, any nutrition 0.12,
// positive total time 0.05, non-empty provenance 0.03.
func ScoreRecipe(r types.Recipe) float64 {
	var s float64
	if len(r.Title) > 1 {
		s += 0.20
	}
	if strings.HasPrefix(r.SourceURL, "http://") || strings.HasPrefix(r.SourceURL, "https://") {
		s += 0.10
	}
	if r.ImageURL != "" {
		s += 0.10
	}
	if len(r.Ingredients) >= 3 {
		s += 0.20
	}
	if len(r.Instructions) >= 2 {
		s += 0.20
	}
	if r.Nutrition.HasAny() {
		s += 0.12
	}
	if r.TotalTimeMinutes > 0 {
		s += 0.05
	}
	if len(r.Provenance) > 0 {
		s += 0.03
	}
	return util.ClampFloat64(s, 0, 1)
}

// PassesThreshold reports whether a score clears the admission gate.
func PassesThreshold(score, min float64) bool {
	return score >= min
}
