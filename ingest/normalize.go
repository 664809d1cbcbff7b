package ingest

import (
	"math"
	"strings"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/util"
)

// normalizeResult shapes a raw adapter result into the pipeline's common
// form. It never errors: missing lists become empty ones, malformed records
// are silently dropped (the record-level validation class), and every
// surviving record's provenance carries the source id.
func normalizeResult(raw *types.Result, sourceID string, rc types.RunContext) *types.Result {
	out := types.NewResult()
	if raw == nil {
		return out
	}

	for _, p := range raw.Products {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			// Hard invariant: a nameless product never reaches persistence
			continue
		}
		p.Barcode = util.DigitsOnly(p.Barcode)
		p.Brand = strings.TrimSpace(p.Brand)
		p.Category = strings.TrimSpace(p.Category)
		p.Provenance = stampProvenance(p.Provenance, sourceID, rc)
		out.Products = append(out.Products, p)
	}

	for _, r := range raw.Recipes {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		r.SourceURL = strings.TrimSpace(r.SourceURL)
		if r.SourceName == "" {
			r.SourceName = sourceID
		}
		r.Ingredients = cleanList(r.Ingredients)
		r.Instructions = cleanList(r.Instructions)
		r.Provenance = stampProvenance(r.Provenance, sourceID, rc)
		out.Recipes = append(out.Recipes, r)
	}

	for _, s := range raw.PriceSignals {
		if math.IsNaN(s.PriceRub) || math.IsInf(s.PriceRub, 0) || s.PriceRub <= 0 {
			continue
		}
		s.Ingredient = strings.TrimSpace(s.Ingredient)
		if s.NormalizedKey == "" {
			s.NormalizedKey = util.NormalizeKey(s.Ingredient)
		}
		if s.NormalizedKey == "" {
			continue
		}
		s.Confidence = util.ClampFloat64(s.Confidence, 0, 1)
		if s.Region == "" {
			s.Region = rc.Region
		}
		if s.SourceKind == "" {
			s.SourceKind = types.PriceSourceFallback
		}
		if s.CapturedAt == "" {
			s.CapturedAt = rc.NowISO()
		}
		out.PriceSignals = append(out.PriceSignals, s)
	}

	for _, syn := range raw.Synonyms {
		key := util.NormalizeKey(syn.NormalizedKey)
		value := strings.TrimSpace(syn.Synonym)
		if key == "" || value == "" {
			continue
		}
		out.Synonyms = append(out.Synonyms, types.Synonym{NormalizedKey: key, Synonym: value})
	}

	return out
}

// cleanList trims entries and drops empty ones, preserving order.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// stampProvenance guarantees the provenance bag exists and records the
// source and the run's logical timestamp.
func stampProvenance(p types.Provenance, sourceID string, rc types.RunContext) types.Provenance {
	if p == nil {
		p = types.Provenance{}
	}
	if _, ok := p["source"]; !ok {
		p["source"] = sourceID
	}
	if _, ok := p["ingested_at"]; !ok {
		p["ingested_at"] = rc.NowISO()
	}
	if _, ok := p["run_id"]; !ok {
		p["run_id"] = rc.RunID
	}
	return p
}
