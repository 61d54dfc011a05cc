// Package canonical derives model-level identity keys from normalized
// product names using per-brand grammars.
package canonical

import (
	"regexp"
	"strings"
)

// Key is the canonical identity of a phone model, e.g. "iphone 16 pro max"
// or "samsung galaxy a55". Memory, colour and network variants share a key.
type Key string

func (k Key) String() string { return string(k) }

// Grammar recognises one brand's naming scheme inside a normalized name.
type Grammar interface {
	// Name identifies the grammar in reports.
	Name() string
	// Extract returns the key for text, or false when the grammar does not
	// recognise it.
	Extract(text string) (Key, bool)
}

// variantOrder lists the suffix words a grammar may carry into a key, in
// the order they appear in the key.
type variantOrder [][]string

// pick returns the first group of variant words fully present in tail.
// Each group is tried in order so "pro plus" wins over "pro".
func (v variantOrder) pick(tail []string) string {
	present := make(map[string]bool, len(tail))
	for _, w := range tail {
		present[w] = true
	}
	for _, group := range v {
		all := true
		for _, w := range group {
			if !present[w] {
				all = false
				break
			}
		}
		if all {
			return strings.Join(group, " ")
		}
	}
	return ""
}

// regexGrammar matches a brand pattern and builds a key from its capture
// groups plus an optional variant suffix read from the words that follow.
type regexGrammar struct {
	name     string
	re       *regexp.Regexp
	build    func(m []string) string
	variants variantOrder
}

func (g *regexGrammar) Name() string { return g.name }

func (g *regexGrammar) Extract(text string) (Key, bool) {
	loc := g.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", false
	}
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	base := g.build(m)
	if base == "" {
		return "", false
	}
	if suffix := g.variants.pick(strings.Fields(text[loc[1]:])); suffix != "" {
		base += " " + suffix
	}
	return Key(base), true
}

var spaceRe = regexp.MustCompile(`\s+`)

func squash(s string) string { return spaceRe.ReplaceAllString(s, "") }

// IPhone recognises Apple iPhone numbering ("iphone 16 pro max",
// "iphone 16e", "iphone se 2022").
func IPhone() Grammar {
	return &regexGrammar{
		name: "iphone",
		re:   regexp.MustCompile(`\biphone\s*(\d{1,2}e?|se(?:\s+(?:20\d\d))?|xr|xs|x)\b`),
		build: func(m []string) string {
			return "iphone " + spaceRe.ReplaceAllString(m[1], " ")
		},
		variants: variantOrder{{"pro", "max"}, {"pro"}, {"plus"}, {"mini"}, {"max"}},
	}
}

// Galaxy recognises Samsung Galaxy A/S/M/Z lines, with or without the
// "galaxy" or "samsung" word. Keys are always prefixed "samsung galaxy".
func Galaxy() Grammar {
	return &regexGrammar{
		name: "galaxy",
		re:   regexp.MustCompile(`\b(?:samsung\s*(?:galaxy\s*)?|galaxy\s*)(z\s*(?:fold|flip)\s*\d+|[asmz]\s*\d{1,3}[a-z]?)\b`),
		build: func(m []string) string {
			model := m[1]
			if strings.HasPrefix(model, "z") && (strings.Contains(model, "fold") || strings.Contains(model, "flip")) {
				rest := squash(strings.TrimPrefix(model, "z"))
				return "samsung galaxy z " + rest
			}
			return "samsung galaxy " + squash(model)
		},
		variants: variantOrder{{"ultra"}, {"plus"}, {"fe"}, {"edge"}},
	}
}

// RedmiNote recognises Xiaomi Redmi Note numbering.
func RedmiNote() Grammar {
	return &regexGrammar{
		name: "redmi_note",
		re:   regexp.MustCompile(`\b(?:xiaomi\s+)?redmi\s*note\s*(\d{1,2}[a-z]?)\b`),
		build: func(m []string) string {
			return "redmi note " + m[1]
		},
		variants: variantOrder{{"pro", "plus"}, {"pro"}, {"plus"}},
	}
}

// Xiaomi recognises the numbered Redmi, POCO and Xiaomi lines that are not
// Redmi Note ("redmi 13c", "poco x6 pro", "xiaomi 14t pro").
func Xiaomi() Grammar {
	return &regexGrammar{
		name: "xiaomi",
		re:   regexp.MustCompile(`\b(?:xiaomi\s+)?(redmi|poco)\s*([a-z]?\d{1,2}[a-z]?)\b|\bxiaomi\s*(\d{1,2}t?)\b`),
		build: func(m []string) string {
			if m[3] != "" {
				return "xiaomi " + m[3]
			}
			return m[1] + " " + m[2]
		},
		variants: variantOrder{{"pro", "plus"}, {"pro"}, {"ultra"}, {"lite"}, {"plus"}},
	}
}

// Honor recognises Honor numbered, X and Magic lines.
func Honor() Grammar {
	return &regexGrammar{
		name: "honor",
		re:   regexp.MustCompile(`\bhonor\s*(magic\s*\d+|x\s*\d+[a-z]?|\d+[a-z]?)\b`),
		build: func(m []string) string {
			return "honor " + squash(m[1])
		},
		variants: variantOrder{{"pro"}, {"lite"}, {"plus"}, {"smart"}},
	}
}

// Infinix recognises the Hot, Note, Zero and Smart lines.
func Infinix() Grammar {
	return &regexGrammar{
		name: "infinix",
		re:   regexp.MustCompile(`\binfinix\s*(hot|note|zero|smart)\s*(\d{1,2}[a-z]?)\b`),
		build: func(m []string) string {
			return "infinix " + m[1] + " " + m[2]
		},
		variants: variantOrder{{"pro", "plus"}, {"pro"}, {"play"}, {"plus"}, {"ultra"}},
	}
}

// Oppo recognises the A, Reno and Find lines.
func Oppo() Grammar {
	return &regexGrammar{
		name: "oppo",
		re:   regexp.MustCompile(`\boppo\s*(a\s*\d{1,3}[a-z]?|reno\s*\d{1,2}[a-z]?|find\s*x\s*\d+)\b`),
		build: func(m []string) string {
			model := m[1]
			switch {
			case strings.HasPrefix(model, "find"):
				return "oppo find " + squash(strings.TrimPrefix(model, "find"))
			default:
				return "oppo " + squash(model)
			}
		},
		variants: variantOrder{{"pro", "plus"}, {"pro"}, {"ultra"}, {"lite"}, {"plus"}},
	}
}

// Series recognises "<brand> <line> <number>" names for brands whose lines
// follow that shape, such as Tecno Spark or realme C.
func Series(brand string, lines ...string) Grammar {
	alt := strings.Join(lines, "|")
	return &regexGrammar{
		name: brand,
		re:   regexp.MustCompile(`\b` + brand + `\s*(` + alt + `)\s*(\d{1,3}[a-z]?)\b`),
		build: func(m []string) string {
			if len(m[1]) == 1 {
				return brand + " " + m[1] + m[2]
			}
			return brand + " " + m[1] + " " + m[2]
		},
		variants: variantOrder{{"pro", "plus"}, {"pro"}, {"plus"}, {"ultra"}, {"lite"}, {"go"}},
	}
}

// DefaultGrammars returns the built-in grammars in evaluation order. More
// specific grammars come first.
func DefaultGrammars() []Grammar {
	return []Grammar{
		IPhone(),
		Galaxy(),
		RedmiNote(),
		Xiaomi(),
		Honor(),
		Infinix(),
		Oppo(),
		Series("tecno", "spark", "camon", "pova", "pop"),
		Series("realme", "c", "gt", "note"),
		Series("vivo", "y", "v", "x"),
		Series("itel", "a", "p", "s"),
	}
}
