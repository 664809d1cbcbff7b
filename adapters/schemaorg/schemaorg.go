// Package schemaorg extracts schema.org Recipe records from HTML pages. It
// reads JSON-LD blocks (the embedding most recipe sites use) and tolerates
// the usual structural looseness: top-level arrays, @graph wrappers, string
// or object images, and HowToStep instruction objects.
package schemaorg

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/httpclient"
)

// Adapter fetches a fixed list of pages and harvests every Recipe node it
// can find. Scraped HTML is the riskiest content class handled here; the
// risk level is declared per instance so operators can gate stricter feeds.
type Adapter struct {
	urls   []string
	risk   types.LicenseRisk
	client *httpclient.Client
	logger *zap.SugaredLogger
}

func New(urls []string, risk types.LicenseRisk, client *httpclient.Client, logger *zap.SugaredLogger) *Adapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Adapter{urls: urls, risk: risk, client: client, logger: logger}
}

func (a *Adapter) ID() string { return "schemaorg" }

func (a *Adapter) Kind() types.Kind { return types.KindRecipes }

func (a *Adapter) LicenseRisk() types.LicenseRisk { return a.risk }

// Ingest fetches each configured page in order. A page that fails to fetch
// or parse is logged and skipped; the source only errors as a whole when
// every page failed.
func (a *Adapter) Ingest(ctx context.Context, rc types.RunContext) (*types.Result, error) {
	result := types.NewResult()
	var lastErr error
	failed := 0

	for _, pageURL := range a.urls {
		if len(result.Recipes) >= rc.MaxItemsPerSource {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "recipe fetch interrupted")
		}

		body, err := a.client.Get(ctx, pageURL)
		if err != nil {
			a.logger.Warnw("Recipe page fetch failed", "url", pageURL, "error", err)
			failed++
			lastErr = err
			continue
		}

		recipes, err := extractRecipes(body, pageURL)
		if err != nil {
			a.logger.Warnw("Recipe page parse failed", "url", pageURL, "error", err)
			failed++
			lastErr = err
			continue
		}
		result.Recipes = append(result.Recipes, recipes...)
	}

	if failed > 0 && failed == len(a.urls) {
		return nil, errors.Wrapf(lastErr, "all %d recipe pages failed", failed)
	}
	if len(result.Recipes) > rc.MaxItemsPerSource {
		result.Recipes = result.Recipes[:rc.MaxItemsPerSource]
	}

	a.logger.Infow("Extracted recipes",
		"pages", len(a.urls),
		"failed_pages", failed,
		"recipes", len(result.Recipes),
	)
	return result, nil
}

// extractRecipes pulls every Recipe node out of the page's JSON-LD blocks.
func extractRecipes(html []byte, pageURL string) ([]types.Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	var recipes []types.Recipe
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var raw interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			return
		}
		for _, node := range recipeNodes(raw) {
			if r, ok := recipeFromNode(node, pageURL); ok {
				recipes = append(recipes, r)
			}
		}
	})
	return recipes, nil
}

// recipeNodes walks one decoded JSON-LD document and collects every node
// whose @type includes Recipe. Handles top-level arrays and @graph wrappers.
func recipeNodes(raw interface{}) []map[string]interface{} {
	var nodes []map[string]interface{}
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			nodes = append(nodes, recipeNodes(item)...)
		}
	case map[string]interface{}:
		if hasType(v["@type"], "Recipe") {
			nodes = append(nodes, v)
		}
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				nodes = append(nodes, recipeNodes(item)...)
			}
		}
	}
	return nodes
}

func hasType(v interface{}, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func recipeFromNode(node map[string]interface{}, pageURL string) (types.Recipe, bool) {
	title := strings.TrimSpace(stringValue(node["name"]))
	if title == "" {
		return types.Recipe{}, false
	}

	sourceURL := strings.TrimSpace(stringValue(node["url"]))
	if sourceURL == "" {
		sourceURL = pageURL
	}

	return types.Recipe{
		// Deterministic ref: the same page yields the same identity on
		// every run, which is what makes the upsert idempotent.
		SourceRef:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURL)).String(),
		Title:            title,
		SourceURL:        sourceURL,
		ImageURL:         imageURL(node["image"]),
		Ingredients:      stringList(node["recipeIngredient"]),
		Instructions:     instructionList(node["recipeInstructions"]),
		Nutrition:        nutritionFromNode(node["nutrition"]),
		TotalTimeMinutes: durationMinutes(stringValue(node["totalTime"])),
		Cuisine:          firstString(node["recipeCuisine"]),
		Tags:             keywordList(node["keywords"]),
	}, true
}

func firstString(v interface{}) string {
	items := stringList(v)
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// keywordList accepts both forms keywords take in the wild: an array of
// strings or one comma separated string.
func keywordList(v interface{}) []string {
	if s, ok := v.(string); ok {
		var out []string
		for _, kw := range strings.Split(s, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
		return out
	}
	return stringList(v)
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		if s := strings.TrimSpace(stringValue(v)); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(stringValue(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// instructionList flattens recipeInstructions: plain strings, HowToStep
// objects, and HowToSection objects with nested itemListElement.
func instructionList(v interface{}) []string {
	var out []string
	switch node := v.(type) {
	case string:
		if s := strings.TrimSpace(node); s != "" {
			out = append(out, s)
		}
	case []interface{}:
		for _, item := range node {
			out = append(out, instructionList(item)...)
		}
	case map[string]interface{}:
		if nested, ok := node["itemListElement"]; ok {
			out = append(out, instructionList(nested)...)
			break
		}
		if s := strings.TrimSpace(stringValue(node["text"])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func imageURL(v interface{}) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case []interface{}:
		if len(img) > 0 {
			return imageURL(img[0])
		}
	case map[string]interface{}:
		return strings.TrimSpace(stringValue(img["url"]))
	}
	return ""
}

// nutritionFromNode reads a schema.org NutritionInformation object. Values
// arrive as strings with units ("58 kcal", "2.9 g"); only the leading
// number is kept.
func nutritionFromNode(v interface{}) types.Nutrition {
	node, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	n := types.Nutrition{}
	for field, key := range map[string]string{
		"calories":            types.NutrientKcal,
		"proteinContent":      types.NutrientProtein,
		"fatContent":          types.NutrientFat,
		"carbohydrateContent": types.NutrientCarbs,
	} {
		if val, ok := leadingNumber(stringValue(node[field])); ok {
			n[key] = val
		}
	}
	if len(n) == 0 {
		return nil
	}
	return n
}

func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", "."), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// durationMinutes parses the ISO 8601 durations used by totalTime, e.g.
// "PT1H30M". Days and seconds are rare in recipe markup but handled.
func durationMinutes(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "P")
	if s == "" {
		return 0
	}
	minutes := 0.0
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r == 'T':
			inTime = true
		case r >= '0' && r <= '9' || r == '.':
			num += string(r)
		default:
			v, err := strconv.ParseFloat(num, 64)
			num = ""
			if err != nil {
				continue
			}
			switch {
			case r == 'D':
				minutes += v * 24 * 60
			case r == 'H' && inTime:
				minutes += v * 60
			case r == 'M' && inTime:
				minutes += v
			case r == 'S' && inTime:
				minutes += v / 60
			}
		}
	}
	if minutes <= 0 {
		return 0
	}
	return int(minutes + 0.5)
}
