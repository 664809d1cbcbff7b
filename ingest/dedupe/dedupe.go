// Package dedupe collapses same-kind records sharing a derived key into one
// survivor per key, evaluated within a single source's output before
// persistence. It never deduplicates against previously stored rows.
//
// Tie-break is signal strength: a heuristic richness score, not a probability
// and not the quality score. On an exact strength tie the later record in
// iteration order wins.
package dedupe

import (
	"strings"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

// ProductKey derives the dedupe key for a product: barcode when present,
// otherwise the lower-cased trimmed name.
func ProductKey(p types.Product) string {
	if p.Barcode != "" {
		return p.Barcode
	}
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// RecipeKey derives the dedupe key for a recipe: source URL when present,
// otherwise lower(title) + ":" + lower(sourceName).
func RecipeKey(r types.Recipe) string {
	if r.SourceURL != "" {
		return r.SourceURL
	}
	return strings.ToLower(r.Title) + ":" + strings.ToLower(r.SourceName)
}

// ProductStrength scores how much signal a product record carries.
func ProductStrength(p types.Product) float64 {
	var s float64
	if p.Barcode != "" {
		s += 4
	}
	if p.Brand != "" {
		s += 2
	}
	if p.Category != "" {
		s += 1
	}
	if p.Nutrition.HasAny() {
		s += 2
	}
	nameBonus := float64(len(p.Name)) / 24
	if nameBonus > 3 {
		nameBonus = 3
	}
	return s + nameBonus
}

// RecipeStrength scores how much signal a recipe record carries.
func RecipeStrength(r types.Recipe) float64 {
	var s float64
	if r.ImageURL != "" {
		s += 2
	}
	if r.TotalTimeMinutes > 0 {
		s += 1
	}
	if r.Nutrition.HasAny() {
		s += 2
	}
	s += 0.2 * float64(len(r.Ingredients))
	s += 0.25 * float64(len(r.Instructions))
	return s
}

// Products returns exactly one product per distinct key, preserving first-seen
// key order. When strengths tie exactly, the later record wins.
func Products(records []types.Product) []types.Product {
	return collapse(records, ProductKey, ProductStrength)
}

// Recipes returns exactly one recipe per distinct key, preserving first-seen
// key order. When strengths tie exactly, the later record wins.
func Recipes(records []types.Recipe) []types.Recipe {
	return collapse(records, RecipeKey, RecipeStrength)
}

func collapse[T any](records []T, key func(T) string, strength func(T) float64) []T {
	type slot struct {
		idx      int
		strength float64
	}

	order := make([]string, 0, len(records))
	best := make(map[string]slot, len(records))

	for i, rec := range records {
		k := key(rec)
		s := strength(rec)
		cur, seen := best[k]
		if !seen {
			order = append(order, k)
			best[k] = slot{idx: i, strength: s}
			continue
		}
		// >= keeps the later record on an exact tie (last write wins)
		if s >= cur.strength {
			best[k] = slot{idx: i, strength: s}
		}
	}

	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, records[best[k].idx])
	}
	return out
}
