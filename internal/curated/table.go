// Package curated loads the versioned reference table of manufacturer
// specifications keyed by canonical model key.
package curated

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/model"
)

//go:embed curated_specs.yaml
var builtin []byte

// Table is an immutable curated spec table.
type Table struct {
	version string
	keys    []canonical.Key
	entries map[canonical.Key]model.SpecRecord
}

// file is the on-disk YAML layout. Each model is a flat mapping holding
// "key" plus any donor field columns.
type file struct {
	Version string              `yaml:"version"`
	Models  []map[string]string `yaml:"models"`
}

// Source is the provenance label for curated values.
const Source = "curated"

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "curated: decode yaml")
	}
	if strings.TrimSpace(f.Version) == "" {
		return nil, eris.New("curated: missing version")
	}

	t := &Table{
		version: strings.TrimSpace(f.Version),
		entries: make(map[canonical.Key]model.SpecRecord, len(f.Models)),
	}
	for i, m := range f.Models {
		key, values, err := parseEntry(m)
		if err != nil {
			return nil, eris.Wrapf(err, "curated: model %d", i)
		}
		if _, dup := t.entries[key]; dup {
			return nil, eris.Errorf("curated: duplicate key %q", key)
		}
		t.keys = append(t.keys, key)
		t.entries[key] = model.NewSpecRecord(string(key), Source, values, model.DonorFields)
	}
	return t, nil
}

func parseEntry(m map[string]string) (canonical.Key, map[model.Field]string, error) {
	raw, ok := m["key"]
	if !ok || strings.TrimSpace(raw) == "" {
		return "", nil, eris.New("missing key")
	}
	key := strings.Join(strings.Fields(raw), " ")
	if key != strings.ToLower(key) || key != raw {
		return "", nil, eris.Errorf("key %q is not canonical", raw)
	}

	values := make(map[model.Field]string, len(m)-1)
	for col, v := range m {
		if col == "key" {
			continue
		}
		f, ok := model.ParseField(col)
		if !ok {
			return "", nil, eris.Errorf("%s: unknown field %q", key, col)
		}
		if !f.IsDonor() {
			return "", nil, eris.Errorf("%s: field %q is not a model-level attribute", key, col)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if f.IsNumeric() {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return "", nil, eris.Errorf("%s: %s value %q is not numeric", key, col, v)
			}
		}
		values[f] = v
	}
	if len(values) == 0 {
		return "", nil, eris.Errorf("%s: no values", key)
	}
	return canonical.Key(key), values, nil
}

// Load reads a table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "curated: read %s", path)
	}
	return Parse(data)
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return Parse(builtin)
}

// Open loads path, or the built-in table when path is empty.
func Open(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Version identifies the table content.
func (t *Table) Version() string { return t.version }

// Len is the number of models.
func (t *Table) Len() int { return len(t.keys) }

// Keys returns model keys in file order.
func (t *Table) Keys() []canonical.Key { return t.keys }

// Get is an exact lookup.
func (t *Table) Get(key canonical.Key) (model.SpecRecord, bool) {
	rec, ok := t.entries[key]
	return rec, ok
}

// Lookup resolves key exactly, then by its variant-stripped base key
// ("iphone 15 pro max" falls back to "iphone 15"). The tier reports which
// lookup hit.
func (t *Table) Lookup(key canonical.Key) (model.SpecRecord, model.FillTier, bool) {
	if t == nil || key == "" {
		return model.SpecRecord{}, "", false
	}
	if rec, ok := t.entries[key]; ok {
		return rec, model.TierCurated, true
	}
	if base, changed := canonical.StripVariant(key); changed {
		if rec, ok := t.entries[base]; ok {
			return rec, model.TierCuratedBase, true
		}
	}
	return model.SpecRecord{}, "", false
}
