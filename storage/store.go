// Package storage provides the SQLite persistence layer for the Vay catalog.
// It owns all SQL and all JSON serialization of nested record fields; the
// rest of the pipeline only sees the native structured types.
package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/util"
)

// Query constants. Every upsert keys on the composite "source_id:source_ref"
// identity and overwrites all mutable columns on conflict: no row history is
// kept for products and recipes.
const (
	productUpsertQuery = `
		INSERT INTO products_master (id, source_id, source_ref, barcode, name, brand, category,
			nutrition_json, quality_score, license_risk, provenance_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			barcode = excluded.barcode,
			name = excluded.name,
			brand = excluded.brand,
			category = excluded.category,
			nutrition_json = excluded.nutrition_json,
			quality_score = excluded.quality_score,
			license_risk = excluded.license_risk,
			provenance_json = excluded.provenance_json,
			updated_at = excluded.updated_at`

	recipeUpsertQuery = `
		INSERT INTO recipes_corpus (id, source_id, source_ref, title, source_url, source_name,
			image_url, ingredients_json, instructions_json, nutrition_json, total_time_minutes,
			quality_score, license_risk, provenance_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source_url = excluded.source_url,
			source_name = excluded.source_name,
			image_url = excluded.image_url,
			ingredients_json = excluded.ingredients_json,
			instructions_json = excluded.instructions_json,
			nutrition_json = excluded.nutrition_json,
			total_time_minutes = excluded.total_time_minutes,
			quality_score = excluded.quality_score,
			license_risk = excluded.license_risk,
			provenance_json = excluded.provenance_json,
			updated_at = excluded.updated_at`

	recipeIngredientsDeleteQuery = `
		DELETE FROM recipe_ingredients_norm WHERE recipe_id = ?`

	recipeIngredientInsertQuery = `
		INSERT OR REPLACE INTO recipe_ingredients_norm (recipe_id, ingredient, normalized_key)
		VALUES (?, ?, ?)`

	synonymUpsertQuery = `
		INSERT INTO ingredient_synonyms_ru (normalized_key, synonym, source_id)
		VALUES (?, ?, ?)
		ON CONFLICT(normalized_key, synonym) DO UPDATE SET
			source_id = excluded.source_id`

	priceSignalInsertQuery = `
		INSERT INTO price_signals (ingredient, normalized_key, price_rub, source_id,
			source_kind, confidence, captured_at, region)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	sourceSnapshotInsertQuery = `
		INSERT INTO source_snapshots (source_id, run_id, counts_json, license_risk, captured_at)
		VALUES (?, ?, ?, ?, ?)`

	runCreateQuery = `
		INSERT INTO ingestion_runs (run_id, started_at, status)
		VALUES (?, ?, ?)`

	runCompleteQuery = `
		UPDATE ingestion_runs
		SET finished_at = ?, status = ?, summary_json = ?
		WHERE run_id = ?`

	runGetQuery = `
		SELECT run_id, started_at, COALESCE(finished_at, ''), status, COALESCE(summary_json, '')
		FROM ingestion_runs WHERE run_id = ?`

	latestRunQuery = `
		SELECT run_id, started_at, COALESCE(finished_at, ''), status, COALESCE(summary_json, '')
		FROM ingestion_runs ORDER BY started_at DESC LIMIT 1`

	latestSnapshotsQuery = `
		SELECT source_id, run_id, counts_json, license_risk, captured_at
		FROM source_snapshots ORDER BY id DESC LIMIT ?`
)

// Store implements the ingest.Store interface over an embedded SQLite
// database.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a catalog store. logger may be nil for silent operation.
func NewStore(db *sql.DB, logger *zap.SugaredLogger) *Store {
	return &Store{db: db, logger: logger}
}

// compositeID builds the primary key "source_id:source_ref".
func compositeID(sourceID, sourceRef string) string {
	return sourceID + ":" + sourceRef
}

// marshalJSON serializes v, turning an empty map/slice into a SQL NULL so
// the columns stay readable in ad-hoc queries.
func marshalJSON(v interface{}, empty bool) (interface{}, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// UpsertProduct inserts or overwrites one product row.
func (s *Store) UpsertProduct(sourceID string, p types.Product, score float64, risk types.LicenseRisk, updatedAt time.Time) error {
	nutritionJSON, err := marshalJSON(p.Nutrition, len(p.Nutrition) == 0)
	if err != nil {
		return errors.Wrap(err, "marshal nutrition")
	}
	provenanceJSON, err := marshalJSON(p.Provenance, len(p.Provenance) == 0)
	if err != nil {
		return errors.Wrap(err, "marshal provenance")
	}

	_, err = s.db.Exec(productUpsertQuery,
		compositeID(sourceID, p.SourceRef),
		sourceID,
		p.SourceRef,
		nullableString(p.Barcode),
		p.Name,
		nullableString(p.Brand),
		nullableString(p.Category),
		nutritionJSON,
		score,
		string(risk),
		provenanceJSON,
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %s", compositeID(sourceID, p.SourceRef))
	}
	return nil
}

// UpsertRecipe inserts or overwrites one recipe row and rebuilds its
// denormalized ingredient rows in the same transaction.
func (s *Store) UpsertRecipe(sourceID string, r types.Recipe, score float64, risk types.LicenseRisk, updatedAt time.Time) error {
	ingredientsJSON, err := marshalJSON(r.Ingredients, false)
	if err != nil {
		return errors.Wrap(err, "marshal ingredients")
	}
	instructionsJSON, err := marshalJSON(r.Instructions, false)
	if err != nil {
		return errors.Wrap(err, "marshal instructions")
	}
	nutritionJSON, err := marshalJSON(r.Nutrition, len(r.Nutrition) == 0)
	if err != nil {
		return errors.Wrap(err, "marshal nutrition")
	}
	provenanceJSON, err := marshalJSON(r.Provenance, len(r.Provenance) == 0)
	if err != nil {
		return errors.Wrap(err, "marshal provenance")
	}

	recipeID := compositeID(sourceID, r.SourceRef)

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin recipe upsert")
	}

	_, err = tx.Exec(recipeUpsertQuery,
		recipeID,
		sourceID,
		r.SourceRef,
		r.Title,
		nullableString(r.SourceURL),
		nullableString(r.SourceName),
		nullableString(r.ImageURL),
		ingredientsJSON,
		instructionsJSON,
		nutritionJSON,
		nullableInt(r.TotalTimeMinutes),
		score,
		string(risk),
		provenanceJSON,
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "upsert recipe %s", recipeID)
	}

	// Ingredient rows are denormalized out of the recipe row and replaced
	// wholesale on every update.
	if _, err := tx.Exec(recipeIngredientsDeleteQuery, recipeID); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "clear ingredients for %s", recipeID)
	}
	for _, ingredient := range r.Ingredients {
		key := util.NormalizeKey(ingredient)
		if key == "" {
			continue
		}
		if _, err := tx.Exec(recipeIngredientInsertQuery, recipeID, ingredient, key); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert ingredient %q for %s", ingredient, recipeID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit recipe %s", recipeID)
	}
	return nil
}

// InsertPriceSignal appends one price observation. Price signals have no
// natural dedupe key, so history accumulates.
func (s *Store) InsertPriceSignal(sourceID string, sig types.PriceSignal) error {
	_, err := s.db.Exec(priceSignalInsertQuery,
		sig.Ingredient,
		sig.NormalizedKey,
		sig.PriceRub,
		sourceID,
		string(sig.SourceKind),
		sig.Confidence,
		sig.CapturedAt,
		nullableString(sig.Region),
	)
	if err != nil {
		return errors.Wrapf(err, "insert price signal %s", sig.NormalizedKey)
	}
	return nil
}

// UpsertSynonym records an alternate spelling for an ingredient key, always
// keeping the most recent contributing source.
func (s *Store) UpsertSynonym(sourceID string, syn types.Synonym) error {
	_, err := s.db.Exec(synonymUpsertQuery, syn.NormalizedKey, syn.Synonym, sourceID)
	if err != nil {
		return errors.Wrapf(err, "upsert synonym %s=%s", syn.NormalizedKey, syn.Synonym)
	}
	return nil
}

// RecordSourceSnapshot appends the per-source counts for one run.
func (s *Store) RecordSourceSnapshot(sourceID, runID string, counts types.SourceCounts, risk types.LicenseRisk, capturedAt time.Time) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return errors.Wrap(err, "marshal counts")
	}
	_, err = s.db.Exec(sourceSnapshotInsertQuery,
		sourceID,
		runID,
		string(countsJSON),
		string(risk),
		capturedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrapf(err, "record snapshot for %s in %s", sourceID, runID)
	}
	return nil
}

// CreateRun appends the run row in the running state.
func (s *Store) CreateRun(runID string, startedAt time.Time) error {
	_, err := s.db.Exec(runCreateQuery,
		runID,
		startedAt.UTC().Format(time.RFC3339),
		string(types.RunStatusRunning),
	)
	if err != nil {
		return errors.Wrapf(err, "create run %s", runID)
	}
	return nil
}

// CompleteRun records the run's terminal status and full summary.
func (s *Store) CompleteRun(runID string, status types.RunStatus, finishedAt time.Time, summary *types.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}
	res, err := s.db.Exec(runCompleteQuery,
		finishedAt.UTC().Format(time.RFC3339),
		string(status),
		string(summaryJSON),
		runID,
	)
	if err != nil {
		return errors.Wrapf(err, "complete run %s", runID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "run %s", runID)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) interface{} {
	if n <= 0 {
		return nil
	}
	return n
}
