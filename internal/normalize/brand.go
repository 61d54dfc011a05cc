package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownBrand is the display label for listings with no resolvable brand.
const UnknownBrand = "Unknown"

// knownBrands maps lowercase brand keys to their display form.
var knownBrands = map[string]string{
	"alcatel":   "Alcatel",
	"apple":     "Apple",
	"blackview": "Blackview",
	"cubot":     "Cubot",
	"doogee":    "Doogee",
	"evertek":   "Evertek",
	"google":    "Google",
	"honor":     "Honor",
	"huawei":    "Huawei",
	"infinix":   "Infinix",
	"ipro":      "IPRO",
	"itel":      "itel",
	"lenovo":    "Lenovo",
	"logicom":   "Logicom",
	"motorola":  "Motorola",
	"nokia":     "Nokia",
	"nothing":   "Nothing",
	"oneplus":   "OnePlus",
	"oppo":      "OPPO",
	"oukitel":   "Oukitel",
	"realme":    "realme",
	"samsung":   "Samsung",
	"sony":      "Sony",
	"tcl":       "TCL",
	"tecno":     "Tecno",
	"vivo":      "vivo",
	"xiaomi":    "Xiaomi",
	"zte":       "ZTE",
}

// brandAliases maps sub-brands and product lines to their parent brand.
var brandAliases = map[string]string{
	"redmi":  "xiaomi",
	"poco":   "xiaomi",
	"iphone": "apple",
	"galaxy": "samsung",
	"moto":   "motorola",
	"pixel":  "google",
}

// IsBrandToken reports whether a normalized word names a brand or a
// brand-identifying product line.
func IsBrandToken(word string) bool {
	if _, ok := knownBrands[word]; ok {
		return true
	}
	_, ok := brandAliases[word]
	return ok
}

// BrandKey canonicalises a raw brand label to a lowercase key. Sub-brands
// fold into their parent ("Redmi" and "POCO" become "xiaomi"). Empty or
// placeholder labels yield "".
func BrandKey(raw string) string {
	s := strings.ToLower(FoldAccents(strings.TrimSpace(raw)))
	s = strings.Join(strings.Fields(nonWordRe.ReplaceAllString(s, " ")), " ")
	switch s {
	case "", "unknown", "nan", "none", "n a", "autre", "other":
		return ""
	}
	if parent, ok := brandAliases[s]; ok {
		return parent
	}
	if first, _, found := strings.Cut(s, " "); found {
		if parent, ok := brandAliases[first]; ok {
			return parent
		}
		if _, ok := knownBrands[first]; ok {
			return first
		}
	}
	return s
}

// InferBrand finds the first brand token in a normalized name and returns
// its key, or "" when the name carries no recognisable brand.
func InferBrand(normalized string) string {
	for _, w := range Tokens(normalized) {
		if parent, ok := brandAliases[w]; ok {
			return parent
		}
		if _, ok := knownBrands[w]; ok {
			return w
		}
	}
	return ""
}

// DisplayBrand renders a brand key for output.
func DisplayBrand(key string) string {
	if key == "" {
		return UnknownBrand
	}
	if d, ok := knownBrands[key]; ok {
		return d
	}
	return cases.Title(language.Und).String(key)
}
