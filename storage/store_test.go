package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyatni4ka/ProjectVay-sub001/db"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	vaytest "github.com/pyatni4ka/ProjectVay-sub001/internal/testing"
)

func setupStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	d := vaytest.CreateTestDB(t)
	require.NoError(t, db.Migrate(d, nil))
	return NewStore(d, nil), d
}

func testProduct() types.Product {
	return types.Product{
		SourceRef: "12345",
		Barcode:   "4601234567890",
		Name:      "Молоко 3.2%",
		Brand:     "Домик в деревне",
		Category:  "молочные продукты",
		Nutrition: types.Nutrition{
			types.NutrientKcal:    58,
			types.NutrientProtein: 2.9,
		},
		Provenance: types.Provenance{"source": "offdump"},
	}
}

func TestUpsertProduct_Idempotent(t *testing.T) {
	store, d := setupStore(t)
	now := time.Now()

	p := testProduct()
	require.NoError(t, store.UpsertProduct("offdump", p, 0.70, types.LicenseRiskLow, now))
	require.NoError(t, store.UpsertProduct("offdump", p, 0.70, types.LicenseRiskLow, now))

	var count int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM products_master").Scan(&count))
	assert.Equal(t, 1, count, "same key twice must not grow the row count")

	var id string
	require.NoError(t, d.QueryRow("SELECT id FROM products_master").Scan(&id))
	assert.Equal(t, "offdump:12345", id)
}

func TestUpsertProduct_OverwritesOnLaterRun(t *testing.T) {
	store, d := setupStore(t)

	p := testProduct()
	require.NoError(t, store.UpsertProduct("offdump", p, 0.70, types.LicenseRiskLow, time.Now()))

	p.Name = "Молоко 3.2% ультрапастеризованное"
	p.Brand = ""
	require.NoError(t, store.UpsertProduct("offdump", p, 0.60, types.LicenseRiskLow, time.Now()))

	var name string
	var brand sql.NullString
	var score float64
	require.NoError(t, d.QueryRow(
		"SELECT name, brand, quality_score FROM products_master WHERE id = ?", "offdump:12345",
	).Scan(&name, &brand, &score))

	assert.Equal(t, "Молоко 3.2% ультрапастеризованное", name)
	assert.False(t, brand.Valid, "every mutable column is overwritten, including to NULL")
	assert.InDelta(t, 0.60, score, 1e-9)
}

func testRecipe() types.Recipe {
	return types.Recipe{
		SourceRef:        "borsch-1",
		Title:            "Борщ классический",
		SourceURL:        "https://example.com/r/borsch",
		SourceName:       "example",
		ImageURL:         "https://example.com/i/borsch.jpg",
		Ingredients:      []string{"Свёкла", "Капуста", "Морковь"},
		Instructions:     []string{"Нарезать", "Варить"},
		TotalTimeMinutes: 90,
		Provenance:       types.Provenance{"source": "scraper"},
	}
}

func TestUpsertRecipe_ReplacesIngredientRows(t *testing.T) {
	store, d := setupStore(t)

	r := testRecipe()
	require.NoError(t, store.UpsertRecipe("scraper", r, 0.85, types.LicenseRiskMedium, time.Now()))

	var count int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM recipe_ingredients_norm").Scan(&count))
	assert.Equal(t, 3, count)

	// Re-observe with a shorter ingredient list: rows replaced wholesale
	r.Ingredients = []string{"Свёкла"}
	require.NoError(t, store.UpsertRecipe("scraper", r, 0.85, types.LicenseRiskMedium, time.Now()))

	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM recipe_ingredients_norm").Scan(&count))
	assert.Equal(t, 1, count)

	var key string
	require.NoError(t, d.QueryRow("SELECT normalized_key FROM recipe_ingredients_norm").Scan(&key))
	assert.Equal(t, "свёкла", key)

	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM recipes_corpus").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsertRecipe_DuplicateIngredientKeys(t *testing.T) {
	store, d := setupStore(t)

	r := testRecipe()
	// "Свёкла" and "свёкла " normalize to the same key; the PK on
	// (recipe_id, normalized_key) must not abort the upsert.
	r.Ingredients = []string{"Свёкла", "свёкла "}
	require.NoError(t, store.UpsertRecipe("scraper", r, 0.85, types.LicenseRiskMedium, time.Now()))

	var count int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM recipe_ingredients_norm").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsertSynonym_KeepsLatestSource(t *testing.T) {
	store, d := setupStore(t)

	syn := types.Synonym{NormalizedKey: "свёкла", Synonym: "буряк"}
	require.NoError(t, store.UpsertSynonym("src-a", syn))
	require.NoError(t, store.UpsertSynonym("src-b", syn))

	var count int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM ingredient_synonyms_ru").Scan(&count))
	assert.Equal(t, 1, count)

	var sourceID string
	require.NoError(t, d.QueryRow("SELECT source_id FROM ingredient_synonyms_ru").Scan(&sourceID))
	assert.Equal(t, "src-b", sourceID, "most recent contributing source wins")
}

func TestInsertPriceSignal_AppendOnly(t *testing.T) {
	store, d := setupStore(t)

	sig := types.PriceSignal{
		Ingredient:    "свёкла",
		NormalizedKey: "свёкла",
		PriceRub:      49.90,
		Confidence:    0.8,
		Region:        "RU",
		SourceKind:    types.PriceSourceProvider,
		CapturedAt:    "2026-09-01T12:00:00Z",
	}
	require.NoError(t, store.InsertPriceSignal("pricefeed", sig))
	require.NoError(t, store.InsertPriceSignal("pricefeed", sig))

	var count int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM price_signals").Scan(&count))
	assert.Equal(t, 2, count, "price signals accumulate, no dedupe key")
}

func TestRunLifecycle(t *testing.T) {
	store, _ := setupStore(t)
	started := time.Now()

	require.NoError(t, store.CreateRun("run-1", started))

	rec, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusRunning, rec.Status)
	assert.Empty(t, rec.FinishedAt)
	assert.Nil(t, rec.Summary)

	summary := &types.RunSummary{
		RunID:  "run-1",
		Status: types.RunStatusPartial,
		Sources: []types.SourceOutcome{
			{ID: "src-a", Status: types.SourceStatusOK, Products: 10},
			{ID: "src-b", Status: types.SourceStatusError, Reason: "timeout"},
		},
	}
	require.NoError(t, store.CompleteRun("run-1", types.RunStatusPartial, started.Add(time.Minute), summary))

	rec, err = store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusPartial, rec.Status)
	assert.NotEmpty(t, rec.FinishedAt)
	require.NotNil(t, rec.Summary)
	assert.Len(t, rec.Summary.Sources, 2)
	assert.Equal(t, "timeout", rec.Summary.Sources[1].Reason)

	latest, err := store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.RunID)
}

func TestCompleteRun_MissingRun(t *testing.T) {
	store, _ := setupStore(t)
	err := store.CompleteRun("run-absent", types.RunStatusSuccess, time.Now(), &types.RunSummary{})
	assert.Error(t, err)
}

func TestGetRun_NotFound(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.GetRun("nope")
	assert.Error(t, err)
}

func TestRecordSourceSnapshot(t *testing.T) {
	store, d := setupStore(t)

	counts := types.SourceCounts{Products: 5, Recipes: 2, Prices: 10, Synonyms: 3}
	require.NoError(t, store.RecordSourceSnapshot("src-a", "run-1", counts, types.LicenseRiskLow, time.Now()))
	require.NoError(t, store.RecordSourceSnapshot("src-a", "run-2", counts, types.LicenseRiskLow, time.Now()))

	var n int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM source_snapshots").Scan(&n))
	assert.Equal(t, 2, n, "snapshots are append-only")

	var countsJSON string
	require.NoError(t, d.QueryRow(
		"SELECT counts_json FROM source_snapshots WHERE run_id = ?", "run-1",
	).Scan(&countsJSON))
	assert.JSONEq(t, `{"products":5,"recipes":2,"prices":10,"synonyms":3}`, countsJSON)
}

func TestLatestSnapshots(t *testing.T) {
	store, _ := setupStore(t)

	for i, source := range []string{"src-a", "src-b", "src-c"} {
		counts := types.SourceCounts{Products: i}
		require.NoError(t, store.RecordSourceSnapshot(source, "run-1", counts, types.LicenseRiskLow, time.Now()))
	}

	snapshots, err := store.LatestSnapshots(2)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "src-c", snapshots[0].SourceID, "newest first")
	assert.Equal(t, "src-b", snapshots[1].SourceID)
	assert.Equal(t, 2, snapshots[0].Counts.Products)
	assert.Equal(t, types.LicenseRiskLow, snapshots[0].LicenseRisk)
}

func TestTableCounts(t *testing.T) {
	store, _ := setupStore(t)
	require.NoError(t, store.UpsertProduct("offdump", testProduct(), 0.7, types.LicenseRiskLow, time.Now()))

	counts, err := store.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["products_master"])
	assert.Equal(t, 0, counts["recipes_corpus"])
}
