// Package pricefeed ingests ingredient price observations from provider
// endpoints. A YAML manifest lists the endpoints to poll; each endpoint
// returns a JSON array of price entries. The manifest can also carry a
// static synonym table maintained alongside the feed configuration.
package pricefeed

import (
	"context"
	"encoding/json"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/httpclient"
)

// Manifest is the on-disk feed configuration.
type Manifest struct {
	Feeds    []Feed              `yaml:"feeds"`
	Synonyms map[string][]string `yaml:"synonyms"`
}

// Feed describes one price endpoint.
type Feed struct {
	URL string `yaml:"url"`

	// Kind tags every entry from this endpoint; defaults to "provider".
	Kind string `yaml:"kind"`

	// Confidence is the default for entries that do not carry their own.
	Confidence float64 `yaml:"confidence"`

	// Region override for this endpoint; empty means the run's region.
	Region string `yaml:"region"`
}

// priceEntry is the JSON shape endpoints return.
type priceEntry struct {
	Ingredient string  `json:"ingredient"`
	PriceRub   float64 `json:"price_rub"`
	Confidence float64 `json:"confidence"`
	Region     string  `json:"region"`
	CapturedAt string  `json:"captured_at"`
}

// Adapter polls the manifest's endpoints and emits price signals plus the
// manifest's synonym table.
type Adapter struct {
	manifestPath string
	client       *httpclient.Client
	logger       *zap.SugaredLogger
}

func New(manifestPath string, client *httpclient.Client, logger *zap.SugaredLogger) *Adapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Adapter{manifestPath: manifestPath, client: client, logger: logger}
}

func (a *Adapter) ID() string { return "pricefeed" }

func (a *Adapter) Kind() types.Kind { return types.KindMixed }

func (a *Adapter) LicenseRisk() types.LicenseRisk { return types.LicenseRiskLow }

func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "parse manifest %s", path)
	}
	return &m, nil
}

// Ingest polls every endpoint in manifest order. A failing endpoint is
// skipped; the source errors as a whole only when the manifest cannot be
// read or every endpoint failed.
func (a *Adapter) Ingest(ctx context.Context, rc types.RunContext) (*types.Result, error) {
	m, err := LoadManifest(a.manifestPath)
	if err != nil {
		return nil, err
	}

	result := types.NewResult()
	for key, values := range m.Synonyms {
		for _, value := range values {
			result.Synonyms = append(result.Synonyms, types.Synonym{
				NormalizedKey: key,
				Synonym:       value,
			})
		}
	}

	var lastErr error
	failed := 0
	for _, feed := range m.Feeds {
		if len(result.PriceSignals) >= rc.MaxItemsPerSource {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "price feed interrupted")
		}

		entries, err := a.fetchFeed(ctx, feed)
		if err != nil {
			a.logger.Warnw("Price feed fetch failed", "url", feed.URL, "error", err)
			failed++
			lastErr = err
			continue
		}
		for _, entry := range entries {
			result.PriceSignals = append(result.PriceSignals, signalFromEntry(feed, entry))
		}
	}

	if failed > 0 && failed == len(m.Feeds) {
		return nil, errors.Wrapf(lastErr, "all %d price feeds failed", failed)
	}
	if len(result.PriceSignals) > rc.MaxItemsPerSource {
		result.PriceSignals = result.PriceSignals[:rc.MaxItemsPerSource]
	}

	a.logger.Infow("Polled price feeds",
		"feeds", len(m.Feeds),
		"failed_feeds", failed,
		"prices", len(result.PriceSignals),
		"synonyms", len(result.Synonyms),
	)
	return result, nil
}

func (a *Adapter) fetchFeed(ctx context.Context, feed Feed) ([]priceEntry, error) {
	body, err := a.client.Get(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	var entries []priceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Wrapf(err, "decode feed %s", feed.URL)
	}
	return entries, nil
}

func signalFromEntry(feed Feed, entry priceEntry) types.PriceSignal {
	kind := types.PriceSourceKind(feed.Kind)
	if kind == "" {
		kind = types.PriceSourceProvider
	}
	confidence := entry.Confidence
	if confidence == 0 {
		confidence = feed.Confidence
	}
	region := entry.Region
	if region == "" {
		region = feed.Region
	}
	return types.PriceSignal{
		Ingredient: entry.Ingredient,
		PriceRub:   entry.PriceRub,
		Confidence: confidence,
		Region:     region,
		SourceKind: kind,
		CapturedAt: entry.CapturedAt,
	}
}
