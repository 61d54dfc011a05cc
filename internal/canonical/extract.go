package canonical

import (
	"strings"

	"github.com/tunitech/specrecon/internal/normalize"
)

// FallbackGrammar names keys taken verbatim from the normalized name
// because no grammar recognised it.
const FallbackGrammar = "fallback"

// Result is an extracted key with the grammar that produced it.
type Result struct {
	Key     Key    `json:"key"`
	Grammar string `json:"grammar"`
}

// Degraded reports whether the key fell back to the normalized name.
func (r Result) Degraded() bool { return r.Grammar == FallbackGrammar }

// Extractor applies an ordered grammar list to normalized names. The first
// grammar that recognises the text wins.
type Extractor struct {
	grammars []Grammar
}

// NewExtractor builds an Extractor. With no grammars it uses
// DefaultGrammars.
func NewExtractor(grammars ...Grammar) *Extractor {
	if len(grammars) == 0 {
		grammars = DefaultGrammars()
	}
	return &Extractor{grammars: grammars}
}

// Grammars returns the evaluation order.
func (e *Extractor) Grammars() []Grammar { return e.grammars }

// Extract returns the canonical key for a normalized name. An empty name
// yields an empty key.
func (e *Extractor) Extract(normalized, brandHint string) Key {
	return e.ExtractResult(normalized, brandHint).Key
}

// ExtractResult is Extract plus the grammar that produced the key. When
// the name carries no brand word, the brand hint is prepended and the
// grammars are tried again before falling back to the name itself.
func (e *Extractor) ExtractResult(normalized, brandHint string) Result {
	text := strings.TrimSpace(normalized)
	if text == "" {
		return Result{}
	}
	if r, ok := e.try(text); ok {
		return r
	}
	if hint := normalize.BrandKey(brandHint); hint != "" && normalize.InferBrand(text) == "" {
		if r, ok := e.try(hint + " " + text); ok {
			return r
		}
	}
	return Result{Key: Key(text), Grammar: FallbackGrammar}
}

func (e *Extractor) try(text string) (Result, bool) {
	for _, g := range e.grammars {
		if k, ok := g.Extract(text); ok {
			return Result{Key: k, Grammar: g.Name()}, true
		}
	}
	return Result{}, false
}

// KeyOf normalizes a raw product name and extracts its key.
func (e *Extractor) KeyOf(rawName, brandHint string) Result {
	return e.ExtractResult(normalize.Name(rawName), brandHint)
}

// variantWords are the suffixes removed to reach a model's base key.
var variantWords = map[string]bool{
	"pro": true, "plus": true, "max": true, "mini": true,
	"lite": true, "ultra": true, "fe": true,
}

// StripVariant removes variant suffix words from k ("iphone 15 pro max"
// becomes "iphone 15"). The boolean is false when nothing was removed.
func StripVariant(k Key) (Key, bool) {
	words := strings.Fields(string(k))
	kept := words[:0:0]
	for _, w := range words {
		if !variantWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == len(words) || len(kept) == 0 {
		return k, false
	}
	return Key(strings.Join(kept, " ")), true
}
