package offdump

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const csvFixture = `code,product_name,brands,categories,energy-kcal_100g,proteins_100g,fat_100g,carbohydrates_100g
4601234567890,Молоко 3.2%,"Домик в деревне, Danone",молочные продукты,58,2.9,3.2,4.7
4609876543210,Гречка ядрица,Мистраль,крупы,343,12.6,3.3,62.1
4600000000001,,NoName,прочее,100,1,1,1
`

func TestIngest_ParsesCSVDump(t *testing.T) {
	a := New(writeDump(t, csvFixture), nil)

	assert.Equal(t, "offdump", a.ID())
	assert.Equal(t, types.KindProducts, a.Kind())
	assert.Equal(t, types.LicenseRiskLow, a.LicenseRisk())

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	require.NoError(t, err)
	require.Len(t, res.Products, 2, "nameless row is skipped")

	milk := res.Products[0]
	assert.Equal(t, "4601234567890", milk.SourceRef)
	assert.Equal(t, "4601234567890", milk.Barcode)
	assert.Equal(t, "Молоко 3.2%", milk.Name)
	assert.Equal(t, "Домик в деревне", milk.Brand, "multi-value brands keep the first entry")
	assert.Equal(t, "молочные продукты", milk.Category)
	assert.InDelta(t, 58, milk.Nutrition[types.NutrientKcal], 1e-9)
	assert.InDelta(t, 2.9, milk.Nutrition[types.NutrientProtein], 1e-9)
	assert.InDelta(t, 3.2, milk.Nutrition[types.NutrientFat], 1e-9)
	assert.InDelta(t, 62.1, res.Products[1].Nutrition[types.NutrientCarbs], 1e-9)
}

func TestIngest_TabSeparatedDump(t *testing.T) {
	tsv := "code\tproduct_name\tbrands\tcategories\tenergy-kcal_100g\tproteins_100g\tfat_100g\tcarbohydrates_100g\n" +
		"111\tХлеб бородинский\t\t\t\t\t\t\n"
	a := New(writeDump(t, tsv), nil)

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 100})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Хлеб бородинский", res.Products[0].Name)
	assert.Nil(t, res.Products[0].Nutrition)
}

func TestIngest_RespectsItemCap(t *testing.T) {
	dump := "code,product_name\n"
	for i := 0; i < 10; i++ {
		dump += "1,Item\n"
	}
	a := New(writeDump(t, dump), nil)

	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 3})
	require.NoError(t, err)
	assert.Len(t, res.Products, 3)
}

func TestIngest_MissingNameColumn(t *testing.T) {
	a := New(writeDump(t, "code,brands\n1,x\n"), nil)
	_, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 10})
	assert.ErrorContains(t, err, "product_name")
}

func TestIngest_MissingFile(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "absent.csv"), nil)
	_, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 10})
	assert.Error(t, err)
}

func TestIngest_CancelledContext(t *testing.T) {
	a := New(writeDump(t, csvFixture), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Ingest(ctx, types.RunContext{MaxItemsPerSource: 10})
	assert.Error(t, err)
}

func TestIngest_FallsBackToNameAsRef(t *testing.T) {
	a := New(writeDump(t, "code,product_name\n,Соль поваренная\n"), nil)
	res, err := a.Ingest(context.Background(), types.RunContext{MaxItemsPerSource: 10})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Соль поваренная", res.Products[0].SourceRef)
	assert.Empty(t, res.Products[0].Barcode)
}
