package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/tunitech/specrecon/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "source.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("a/b.XLSX", "")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat("a/b.csv", "")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = DetectFormat("a/b.dat", "csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = DetectFormat("a/b.json", "")
	assert.Error(t, err)
	_, err = DetectFormat("a/b.csv", "parquet")
	assert.Error(t, err)
}

func TestReadCSV_BOMAndSemicolon(t *testing.T) {
	input := "\xEF\xBB\xBFmodel;price_dt\nGalaxy A15;549,000 DT\n\n;\nRedmi 13;399,000 DT\n"
	tbl, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"model", "price_dt"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Galaxy A15", tbl.Rows[0][0])
	assert.Equal(t, "399,000 DT", tbl.Rows[1][1])
}

func TestReadCSV_RaggedAndQuoted(t *testing.T) {
	input := "name,brand,ram\n\"iPhone 15, 128GB\",Apple\nGalaxy A55,Samsung,8 Go,extra\n"
	tbl, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "iPhone 15, 128GB", tbl.Rows[0][0])
	assert.Equal(t, "", tbl.Cell(tbl.Rows[0], 2))
	assert.Equal(t, "8 Go", tbl.Cell(tbl.Rows[1], 2))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"name", "battery"},
		{"Galaxy A55", "5000 mAh"},
		{"", ""},
		{"Honor X8b", "4500"},
	})
	tbl, err := ReadXLSX(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "battery"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Honor X8b", tbl.Rows[1][0])

	_, err = ReadXLSX(path, "Missing")
	assert.Error(t, err)
}

func TestResolveColumns(t *testing.T) {
	cols := ResolveColumns([]string{"Model", "Brand", "Price_DT", "RAM", "storage_gb", "Batterie", "Couleur", "URL", "Écran", "name"})
	assert.Equal(t, 0, cols.Name)
	assert.Equal(t, 1, cols.Brand)
	assert.Equal(t, 2, cols.Price)
	assert.Equal(t, 7, cols.URL)
	assert.Equal(t, 3, cols.Specs[model.FieldRAM])
	assert.Equal(t, 4, cols.Specs[model.FieldStorage])
	assert.Equal(t, 5, cols.Specs[model.FieldBattery])
	assert.Equal(t, 8, cols.Specs[model.FieldScreen])
	assert.Equal(t, []string{"Couleur", "name"}, cols.Extra)
	assert.Contains(t, cols.Missing(), model.FieldOS)
	assert.NotContains(t, cols.Missing(), model.FieldRAM)
}

func TestFromTable(t *testing.T) {
	tbl := &Table{
		Header: []string{"model", "brand", "price_dt", "ram", "battery", "network", "color"},
		Rows: [][]string{
			{"Samsung Galaxy A55 5G 8Go 256Go", "SAMSUNG", "1.299,000 DT", "8 Go", "5000 mAh", "5G", "Bleu"},
			{"Redmi Note 13 8/256", "", "699,000 DT", "lots", "", "4G"},
			{"", "Logicom", "", "", "", "", ""},
		},
	}
	res := FromTable("mytek", tbl)
	require.Len(t, res.Listings, 3)
	assert.Equal(t, 3, res.Report.Rows)
	assert.Equal(t, map[model.Field]int{model.FieldRAM: 1}, res.Report.Unparseable)
	assert.Equal(t, []string{"color"}, res.ExtraColumns)

	a55 := res.Listings[0]
	assert.Equal(t, "mytek", a55.Source)
	assert.Equal(t, 1, a55.Row)
	assert.Equal(t, "Samsung", a55.Brand)
	require.NotNil(t, a55.Price)
	assert.InDelta(t, 1299.0, *a55.Price, 0.001)
	assert.Equal(t, "8", a55.Spec(model.FieldRAM))
	assert.Equal(t, "5000", a55.Spec(model.FieldBattery))
	assert.Equal(t, "5G", a55.Spec(model.FieldNetwork))
	assert.Equal(t, "Bleu", a55.Extra["color"])

	redmi := res.Listings[1]
	assert.Equal(t, "Xiaomi", redmi.Brand)
	assert.Empty(t, redmi.Spec(model.FieldRAM))
	assert.Equal(t, "4G", redmi.Spec(model.FieldNetwork))
	assert.Empty(t, redmi.Extra["color"])

	unnamed := res.Listings[2]
	assert.Equal(t, "Logicom", unnamed.Brand)
	assert.Nil(t, unnamed.Price)
	assert.Empty(t, unnamed.Specs)
}

func TestFromTable_KeepsFoldedBrandLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		brand   string
		raw     string
		hasRaw  bool
		columns []string
	}{
		{"sub-brand folded", "Redmi", "Xiaomi", "Redmi", true, []string{"color", BrandRawColumn}},
		{"poco folded", "POCO", "Xiaomi", "POCO", true, []string{"color", BrandRawColumn}},
		{"case only", "SAMSUNG", "Samsung", "", false, []string{"color"}},
		{"placeholder", "unknown", "Xiaomi", "", false, []string{"color"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &Table{
				Header: []string{"name", "brand", "color"},
				Rows:   [][]string{{"Redmi Note 13 8/256", tt.label, "Noir"}},
			}
			res := FromTable("spacenet", tbl)
			require.Len(t, res.Listings, 1)
			l := res.Listings[0]
			assert.Equal(t, tt.brand, l.Brand)
			raw, ok := l.Extra[BrandRawColumn]
			assert.Equal(t, tt.hasRaw, ok)
			assert.Equal(t, tt.raw, raw)
			assert.Equal(t, "Noir", l.Extra["color"])
			assert.Equal(t, tt.columns, res.ExtraColumns)
		})
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "bestphone.csv", "name,brand,price_tnd,screen_size\nHonor X8b,Honor,\"749,000 DT\",\"6,7 pouces\"\n")
	res, err := Load(context.Background(), Source{Name: "bestphone", Path: path})
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, path, res.Report.Path)
	assert.Equal(t, "6.7", res.Listings[0].Spec(model.FieldScreen))

	xlsxPath := createTestXLSX(t, [][]string{{"model", "os"}, {"iPhone 15", "iOS 17"}})
	res, err = Load(context.Background(), Source{Name: "tunisianet", Path: xlsxPath})
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, "Apple", res.Listings[0].Brand)
	assert.Equal(t, "iOS 17", res.Listings[0].Spec(model.FieldOS))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), Source{Path: "x.csv"})
	assert.Error(t, err)

	_, err = Load(context.Background(), Source{Name: "mytek", Path: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}
