// Package normalize reduces raw storefront product names to a comparable
// text form and canonicalises brand labels.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// storefrontPrefixes are category words storefronts put in front of the
// model name. Matched after accent folding.
var storefrontPrefixes = []string{
	"smartphone",
	"telephone portable",
	"telephone",
	"phone",
	"mobile",
	"portable",
}

// colorWords are finish and colour names in French and English, plus SIM
// qualifiers, none of which identify a model.
var colorWords = []string{
	"noir", "blanc", "bleu", "vert", "rose", "gris", "violet", "rouge",
	"orange", "cyan", "marron", "jaune", "dore", "argent", "fonce", "menthe",
	"stellaire", "satine", "marine", "titane", "naturel", "black", "white", "green", "blue",
	"pink", "grey", "gray", "purple", "red", "yellow", "gold", "silver",
	"midnight", "titanium", "twilight", "lavender", "lime", "light", "dark",
	"natural", "navy", "teal", "ultramarine", "glacier", "starlight",
	"graphite", "deep", "ice", "esim", "dual", "sim",
}

var (
	colorRe = regexp.MustCompile(`\b(?:` + strings.Join(colorWords, "|") + `)\b`)

	// memoryRe covers "256gb", "8go/256go", "8 gb + 256" and "1to".
	memoryRe = regexp.MustCompile(`\b\d+\s*(?:gb|go|tb|to)\b(?:\s*[+/]\s*\d+(?:\s*(?:gb|go|tb|to)\b)?)?`)

	// ramStorageRe covers bare RAM/storage pairs such as "8/256" or "8+256go".
	ramStorageRe = regexp.MustCompile(`\b\d+\s*[+/]\s*\d+(?:\s*(?:gb|go|tb|to)\b)?`)

	networkRe = regexp.MustCompile(`\b(?:[45]g|lte)\b`)

	// plusRe turns a trailing "+" on a model token ("s24+", "pro+") into
	// the word "plus" before punctuation is discarded.
	plusRe = regexp.MustCompile(`([\p{L}\p{N}])\+`)

	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents strips combining diacritics ("téléphone" becomes "telephone").
func FoldAccents(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// Name reduces a raw product name to its normalized form: lowercased and
// accent-folded, with storefront prefixes, colour words, memory sizes and
// network tokens removed and punctuation collapsed to single spaces.
// Name is idempotent.
func Name(raw string) string {
	s := strings.ToLower(FoldAccents(strings.TrimSpace(raw)))
	// A removal can expose a new prefix or token ("noir smartphone x"),
	// so passes repeat until the text is stable.
	for i := 0; i < maxPasses && s != ""; i++ {
		next := pass(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

const maxPasses = 4

func pass(s string) string {
	s = stripPrefixes(s)
	s = ramStorageRe.ReplaceAllString(s, " ")
	s = memoryRe.ReplaceAllString(s, " ")
	s = networkRe.ReplaceAllString(s, " ")
	s = colorRe.ReplaceAllString(s, " ")
	s = plusRe.ReplaceAllString(s, "$1 plus ")
	s = nonWordRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	words = dropRepeatedBrand(words)
	return stripPrefixes(strings.Join(words, " "))
}

// Tokens splits a normalized name into words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

func stripPrefixes(s string) string {
	for {
		trimmed := strings.TrimLeft(s, " -:|")
		matched := false
		for _, p := range storefrontPrefixes {
			if trimmed == p {
				return ""
			}
			if strings.HasPrefix(trimmed, p+" ") {
				trimmed = trimmed[len(p)+1:]
				matched = true
				break
			}
		}
		s = trimmed
		if !matched {
			return s
		}
	}
}

// dropRepeatedBrand collapses "samsung samsung galaxy" style duplication.
func dropRepeatedBrand(words []string) []string {
	for len(words) > 1 && words[0] == words[1] && IsBrandToken(words[0]) {
		words = words[1:]
	}
	return words
}
