package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/httpclient"
)

func testClient() *httpclient.Client {
	return httpclient.NewWithOptions(5*time.Second, 100, httpclient.Options{AllowPrivate: true})
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_PollsFeedsAndEmitsSynonyms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"ingredient": "свёкла", "price_rub": 49.90, "captured_at": "2026-09-01T12:00:00Z"},
			{"ingredient": "капуста", "price_rub": 32.50, "confidence": 0.95, "region": "KZ"}
		]`)
	}))
	defer srv.Close()

	manifest := fmt.Sprintf(`
feeds:
  - url: %s
    kind: provider
    confidence: 0.8
    region: RU
synonyms:
  свёкла:
    - буряк
`, srv.URL)

	a := New(writeManifest(t, manifest), testClient(), nil)
	assert.Equal(t, "pricefeed", a.ID())
	assert.Equal(t, types.KindMixed, a.Kind())
	assert.Equal(t, types.LicenseRiskLow, a.LicenseRisk())

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	require.NoError(t, err)
	require.Len(t, res.PriceSignals, 2)
	require.Len(t, res.Synonyms, 1)

	first := res.PriceSignals[0]
	assert.Equal(t, "свёкла", first.Ingredient)
	assert.InDelta(t, 49.90, first.PriceRub, 1e-9)
	assert.InDelta(t, 0.8, first.Confidence, 1e-9, "feed default confidence applies")
	assert.Equal(t, "RU", first.Region, "feed default region applies")
	assert.Equal(t, types.PriceSourceProvider, first.SourceKind)
	assert.Equal(t, "2026-09-01T12:00:00Z", first.CapturedAt)

	second := res.PriceSignals[1]
	assert.InDelta(t, 0.95, second.Confidence, 1e-9, "entry confidence wins over feed default")
	assert.Equal(t, "KZ", second.Region)

	assert.Equal(t, types.Synonym{NormalizedKey: "свёкла", Synonym: "буряк"}, res.Synonyms[0])
}

func TestIngest_ToleratesPartialFeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"ingredient": "морковь", "price_rub": 25}]`)
	}))
	defer srv.Close()

	manifest := fmt.Sprintf("feeds:\n  - url: %s/bad\n  - url: %s/ok\n", srv.URL, srv.URL)
	a := New(writeManifest(t, manifest), testClient(), nil)

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	require.NoError(t, err)
	assert.Len(t, res.PriceSignals, 1)
}

func TestIngest_AllFeedsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	manifest := fmt.Sprintf("feeds:\n  - url: %s/a\n  - url: %s/b\n", srv.URL, srv.URL)
	a := New(writeManifest(t, manifest), testClient(), nil)

	_, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	assert.ErrorContains(t, err, "price feeds failed")
}

func TestIngest_MissingManifest(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "absent.yaml"), testClient(), nil)
	_, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	assert.Error(t, err)
}

func TestIngest_MalformedFeedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"not": "an array"}`)
	}))
	defer srv.Close()

	manifest := fmt.Sprintf("feeds:\n  - url: %s\n", srv.URL)
	a := New(writeManifest(t, manifest), testClient(), nil)

	_, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	assert.ErrorContains(t, err, "decode feed")
}

func TestIngest_SynonymsOnlyManifest(t *testing.T) {
	manifest := "synonyms:\n  картофель:\n    - картошка\n    - бульба\n"
	a := New(writeManifest(t, manifest), testClient(), nil)

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	require.NoError(t, err)
	assert.Empty(t, res.PriceSignals)
	assert.Len(t, res.Synonyms, 2)
}

func TestIngest_RespectsItemCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"ingredient": "a", "price_rub": 1},
			{"ingredient": "b", "price_rub": 2},
			{"ingredient": "c", "price_rub": 3}
		]`)
	}))
	defer srv.Close()

	manifest := fmt.Sprintf("feeds:\n  - url: %s\n", srv.URL)
	a := New(writeManifest(t, manifest), testClient(), nil)

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 2})
	require.NoError(t, err)
	assert.Len(t, res.PriceSignals, 2)
}
