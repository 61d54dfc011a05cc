package ingest

import (
	"strings"

	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/normalize"
)

// Core columns of a listing besides its specs.
const (
	ColName  = "name"
	ColBrand = "brand"
	ColPrice = "price"
	ColURL   = "url"
)

// columnAliases maps a normalized header to the column it fills. Spec
// fields are also reachable by their canonical name.
var columnAliases = map[string]string{
	"name":          ColName,
	"model":         ColName,
	"title":         ColName,
	"product":       ColName,
	"nom":           ColName,
	"brand":         ColBrand,
	"marque":        ColBrand,
	"manufacturer":  ColBrand,
	"price":         ColPrice,
	"price_dt":      ColPrice,
	"price_tnd":     ColPrice,
	"prix":          ColPrice,
	"url":           ColURL,
	"product_url":   ColURL,
	"link":          ColURL,
	"lien":          ColURL,
	"ram":           string(model.FieldRAM),
	"memoire_ram":   string(model.FieldRAM),
	"storage":       string(model.FieldStorage),
	"stockage":      string(model.FieldStorage),
	"rom":           string(model.FieldStorage),
	"battery":       string(model.FieldBattery),
	"batterie":      string(model.FieldBattery),
	"screen":        string(model.FieldScreen),
	"screen_size":   string(model.FieldScreen),
	"ecran":         string(model.FieldScreen),
	"main_camera":   string(model.FieldCameraRear),
	"rear_camera":   string(model.FieldCameraRear),
	"camera":        string(model.FieldCameraRear),
	"front_camera":  string(model.FieldCameraFront),
	"selfie_camera": string(model.FieldCameraFront),
	"reseau":        string(model.FieldNetwork),
	"os":            string(model.FieldOS),
	"systeme":       string(model.FieldOS),
	"processor":     string(model.FieldProcessorType),
	"processeur":    string(model.FieldProcessorType),
	"cpu":           string(model.FieldProcessorType),
	"chipset":       string(model.FieldProcessorType),
}

// Columns is the resolved layout of a source table.
type Columns struct {
	Name, Brand, Price, URL int
	Specs                   map[model.Field]int
	// Extra holds every unmapped column by header, in header order.
	Extra      []string
	extraIndex []int
}

// headerKey lowercases, folds accents and snakes a header cell.
func headerKey(h string) string {
	h = normalize.FoldAccents(strings.ToLower(strings.TrimSpace(h)))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.' || r == '(' || r == ')'
	}), "_")
}

// ResolveColumns maps a header row onto listing columns. The first header
// claiming a column wins; later duplicates are kept as extra columns.
// Absent columns resolve to -1.
func ResolveColumns(header []string) Columns {
	c := Columns{Name: -1, Brand: -1, Price: -1, URL: -1, Specs: make(map[model.Field]int)}
	for i, h := range header {
		key := headerKey(h)
		if key == "" {
			continue
		}
		target := key
		if alias, ok := columnAliases[key]; ok {
			target = alias
		}
		if c.claim(target, i) {
			continue
		}
		c.Extra = append(c.Extra, strings.TrimSpace(h))
		c.extraIndex = append(c.extraIndex, i)
	}
	return c
}

func (c *Columns) claim(target string, i int) bool {
	slot := func(p *int) bool {
		if *p >= 0 {
			return false
		}
		*p = i
		return true
	}
	switch target {
	case ColName:
		return slot(&c.Name)
	case ColBrand:
		return slot(&c.Brand)
	case ColPrice:
		return slot(&c.Price)
	case ColURL:
		return slot(&c.URL)
	}
	f, ok := model.ParseField(target)
	if !ok {
		return false
	}
	if _, taken := c.Specs[f]; taken {
		return false
	}
	c.Specs[f] = i
	return true
}

// Missing lists the spec fields the table has no column for.
func (c Columns) Missing() []model.Field {
	var out []model.Field
	for _, f := range model.Fields {
		if _, ok := c.Specs[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
