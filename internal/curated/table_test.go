package curated

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/model"
)

func TestDefault_LoadsBuiltinTable(t *testing.T) {
	tbl, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, tbl.Version())
	assert.Greater(t, tbl.Len(), 100)

	rec, ok := tbl.Get("iphone 16 pro max")
	require.True(t, ok)
	assert.Equal(t, "4685", rec.Get(model.FieldBattery))
	assert.Equal(t, "6.9", rec.Get(model.FieldScreen))
	assert.Equal(t, "48", rec.Get(model.FieldCameraRear))
	assert.Equal(t, "12", rec.Get(model.FieldCameraFront))
	assert.Equal(t, "iOS 18", rec.Get(model.FieldOS))
	assert.Equal(t, "5G", rec.Get(model.FieldNetwork))
	assert.Equal(t, Source, rec.Source)
}

func TestDefault_KeysAreExtractable(t *testing.T) {
	tbl, err := Default()
	require.NoError(t, err)

	ex := canonical.NewExtractor()
	for _, k := range tbl.Keys() {
		r := ex.ExtractResult(string(k), "")
		if r.Degraded() {
			continue
		}
		assert.Equal(t, k, r.Key, "curated key %q must be its own canonical key", k)
	}
}

func TestLookup(t *testing.T) {
	tbl, err := Parse([]byte(`
version: "test-1"
models:
  - {key: "iphone 15", battery_mah: "3349", os: "iOS 17"}
  - {key: "iphone 15 pro", battery_mah: "3274"}
`))
	require.NoError(t, err)

	rec, tier, ok := tbl.Lookup("iphone 15 pro")
	require.True(t, ok)
	assert.Equal(t, model.TierCurated, tier)
	assert.Equal(t, "3274", rec.Get(model.FieldBattery))

	rec, tier, ok = tbl.Lookup("iphone 15 pro max")
	require.True(t, ok)
	assert.Equal(t, model.TierCuratedBase, tier)
	assert.Equal(t, "3349", rec.Get(model.FieldBattery))

	_, _, ok = tbl.Lookup("iphone 14")
	assert.False(t, ok)
	_, _, ok = tbl.Lookup("")
	assert.False(t, ok)

	var nilTable *Table
	_, _, ok = nilTable.Lookup("iphone 15")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "models: [", "decode yaml"},
		{"no version", "models: []", "missing version"},
		{"missing key", "version: v\nmodels:\n  - {os: \"iOS 17\"}", "missing key"},
		{"not canonical", "version: v\nmodels:\n  - {key: \"iPhone 15\", os: \"iOS 17\"}", "not canonical"},
		{"unknown field", "version: v\nmodels:\n  - {key: \"iphone 15\", colour: \"red\"}", "unknown field"},
		{"variant field", "version: v\nmodels:\n  - {key: \"iphone 15\", ram_gb: \"6\"}", "not a model-level attribute"},
		{"non numeric", "version: v\nmodels:\n  - {key: \"iphone 15\", battery_mah: \"big\"}", "not numeric"},
		{"no values", "version: v\nmodels:\n  - {key: \"iphone 15\", os: \"\"}", "no values"},
		{"duplicate", "version: v\nmodels:\n  - {key: \"iphone 15\", os: \"a\"}\n  - {key: \"iphone 15\", os: \"b\"}", "duplicate key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"local\"\nmodels:\n  - {key: \"honor x8b\", battery_mah: \"4500\"}\n"), 0o644))

	tbl, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "local", tbl.Version())
	assert.Equal(t, 1, tbl.Len())

	tbl, err = Open("")
	require.NoError(t, err)
	assert.Greater(t, tbl.Len(), 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
