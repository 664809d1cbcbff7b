// Package offdump ingests product records from an Open Food Facts style bulk
// dump. The dump is a delimited text file (tab or comma separated) with a
// header row; columns follow the openfoodfacts export naming.
package offdump

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

// Column names as they appear in the openfoodfacts CSV export.
const (
	colCode     = "code"
	colName     = "product_name"
	colBrands   = "brands"
	colCategory = "categories"
	colKcal     = "energy-kcal_100g"
	colProtein  = "proteins_100g"
	colFat      = "fat_100g"
	colCarbs    = "carbohydrates_100g"
)

// Adapter streams products out of a bulk dump file. The dump location can be
// a local path or anything hashicorp/go-getter understands (http, https,
// file, archives with auto-extraction).
type Adapter struct {
	source string
	logger *zap.SugaredLogger
}

func New(source string, logger *zap.SugaredLogger) *Adapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Adapter{source: source, logger: logger}
}

func (a *Adapter) ID() string { return "offdump" }

func (a *Adapter) Kind() types.Kind { return types.KindProducts }

func (a *Adapter) LicenseRisk() types.LicenseRisk { return types.LicenseRiskLow }

// Ingest resolves the dump to a local file, then streams rows until the
// per-source cap is reached. Rows with an empty product name are skipped
// here rather than carried to the normalizer; everything else is passed
// through raw.
func (a *Adapter) Ingest(ctx context.Context, rc types.RunContext) (*types.Result, error) {
	path, cleanup, err := a.resolveDump(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dump %s", path)
	}
	defer f.Close()

	return a.parse(ctx, f, rc.MaxItemsPerSource)
}

// resolveDump returns a local path for the dump, fetching remote sources to
// a temp directory with go-getter.
func (a *Adapter) resolveDump(ctx context.Context) (string, func(), error) {
	if _, err := os.Stat(a.source); err == nil {
		return a.source, func() {}, nil
	}

	tempDir, err := os.MkdirTemp("", "vay-offdump-*")
	if err != nil {
		return "", nil, errors.Wrap(err, "create temp dir")
	}

	dst := filepath.Join(tempDir, "dump.csv")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     a.source,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}

	a.logger.Infow("Fetching product dump",
		"source", a.source,
		"destination", dst,
	)

	if err := client.Get(); err != nil {
		os.RemoveAll(tempDir)
		return "", nil, errors.Wrapf(err, "fetch dump %s", a.source)
	}
	return dst, func() { os.RemoveAll(tempDir) }, nil
}

func (a *Adapter) parse(ctx context.Context, r io.Reader, maxItems int) (*types.Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read dump header")
	}
	// The full openfoodfacts export is tab separated; smaller extracts tend
	// to be plain CSV. Re-read the header if it did not split.
	if len(header) == 1 && strings.Contains(header[0], "\t") {
		header = strings.Split(header[0], "\t")
		reader.Comma = '\t'
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, errors.Newf("dump header missing %q column", colName)
	}

	result := types.NewResult()
	skipped := 0
	for len(result.Products) < maxItems {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "dump parse interrupted")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Bulk dumps routinely contain a handful of malformed rows.
			skipped++
			continue
		}

		name := strings.TrimSpace(field(row, cols, colName))
		if name == "" {
			skipped++
			continue
		}

		code := strings.TrimSpace(field(row, cols, colCode))
		p := types.Product{
			SourceRef: code,
			Barcode:   code,
			Name:      name,
			Brand:     firstListEntry(field(row, cols, colBrands)),
			Category:  firstListEntry(field(row, cols, colCategory)),
			Nutrition: nutritionFromRow(row, cols),
		}
		if p.SourceRef == "" {
			p.SourceRef = name
		}
		result.Products = append(result.Products, p)
	}

	a.logger.Infow("Parsed product dump",
		"products", len(result.Products),
		"skipped_rows", skipped,
	)
	return result, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// firstListEntry takes the first entry of a comma separated multi-value
// field ("brands" and "categories" in the export carry lists).
func firstListEntry(raw string) string {
	entry, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(entry)
}

func nutritionFromRow(row []string, cols map[string]int) types.Nutrition {
	n := types.Nutrition{}
	for column, key := range map[string]string{
		colKcal:    types.NutrientKcal,
		colProtein: types.NutrientProtein,
		colFat:     types.NutrientFat,
		colCarbs:   types.NutrientCarbs,
	} {
		raw := strings.TrimSpace(field(row, cols, column))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			continue
		}
		n[key] = v
	}
	if len(n) == 0 {
		return nil
	}
	return n
}
