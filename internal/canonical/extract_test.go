package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_DefaultGrammars(t *testing.T) {
	ex := NewExtractor()

	tests := []struct {
		text    string
		want    Key
		grammar string
	}{
		{"iphone 16 pro max", "iphone 16 pro max", "iphone"},
		{"iphone 16", "iphone 16", "iphone"},
		{"iphone 15 plus", "iphone 15 plus", "iphone"},
		{"apple iphone 13 mini", "iphone 13 mini", "iphone"},
		{"iphone se 2022", "iphone se 2022", "iphone"},
		{"iphone 16e", "iphone 16e", "iphone"},
		{"samsung galaxy a55", "samsung galaxy a55", "galaxy"},
		{"galaxy s24 ultra", "samsung galaxy s24 ultra", "galaxy"},
		{"samsung galaxy s24 plus", "samsung galaxy s24 plus", "galaxy"},
		{"samsung galaxy s24 fe", "samsung galaxy s24 fe", "galaxy"},
		{"galaxy z fold6 shadow", "samsung galaxy z fold6", "galaxy"},
		{"galaxy z flip 6", "samsung galaxy z flip6", "galaxy"},
		{"samsung a05s", "samsung galaxy a05s", "galaxy"},
		{"redmi note 14", "redmi note 14", "redmi_note"},
		{"redmi note 14 pro", "redmi note 14 pro", "redmi_note"},
		{"xiaomi redmi note 13 pro plus", "redmi note 13 pro plus", "redmi_note"},
		{"xiaomi redmi 13c", "redmi 13c", "xiaomi"},
		{"poco x6 pro", "poco x6 pro", "xiaomi"},
		{"xiaomi 14t pro", "xiaomi 14t pro", "xiaomi"},
		{"honor magic6 lite", "honor magic6 lite", "honor"},
		{"honor x8b", "honor x8b", "honor"},
		{"honor 200 lite", "honor 200 lite", "honor"},
		{"infinix hot 40 pro", "infinix hot 40 pro", "infinix"},
		{"oppo a18", "oppo a18", "oppo"},
		{"oppo reno 12 pro", "oppo reno12 pro", "oppo"},
		{"oppo find x7 ultra", "oppo find x7 ultra", "oppo"},
		{"tecno spark 20 pro plus", "tecno spark 20 pro plus", "tecno"},
		{"vivo y36", "vivo y36", "vivo"},
		{"itel a70", "itel a70", "itel"},
		{"nokia 105", "nokia 105", FallbackGrammar},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := ex.ExtractResult(tt.text, "")
			assert.Equal(t, tt.want, r.Key)
			assert.Equal(t, tt.grammar, r.Grammar)
		})
	}
}

func TestExtractor_VariantsStayDistinct(t *testing.T) {
	ex := NewExtractor()

	assert.NotEqual(t, ex.Extract("redmi note 14", ""), ex.Extract("redmi note 14 pro", ""))
	assert.NotEqual(t, ex.Extract("iphone 16 pro", ""), ex.Extract("iphone 16 pro max", ""))
	assert.NotEqual(t, ex.Extract("samsung galaxy s24", ""), ex.Extract("samsung galaxy s24 ultra", ""))
}

func TestExtractor_EmptyName(t *testing.T) {
	ex := NewExtractor()

	r := ex.ExtractResult("   ", "Samsung")
	assert.Empty(t, r.Key)
	assert.False(t, r.Degraded())
}

func TestExtractor_BrandHint(t *testing.T) {
	ex := NewExtractor()

	assert.Equal(t, Key("samsung galaxy a55"), ex.Extract("a55", "Samsung"))
	assert.Equal(t, Key("infinix hot 40"), ex.Extract("hot 40", "INFINIX"))

	// A hint never overrides a brand already present in the name.
	assert.Equal(t, Key("oppo a18"), ex.Extract("oppo a18", "Samsung"))

	r := ex.ExtractResult("spark go", "Tecno")
	assert.True(t, r.Degraded())
	assert.Equal(t, Key("spark go"), r.Key)
}

func TestExtractor_KeyOf(t *testing.T) {
	ex := NewExtractor()

	r := ex.KeyOf("Smartphone Samsung Galaxy A55 5G 8Go 256Go Bleu", "")
	assert.Equal(t, Key("samsung galaxy a55"), r.Key)

	r = ex.KeyOf("iPhone 16 Pro Max 256GB — Black", "Apple")
	assert.Equal(t, Key("iphone 16 pro max"), r.Key)
}

type stubGrammar struct{ key Key }

func (s stubGrammar) Name() string { return "stub" }

func (s stubGrammar) Extract(string) (Key, bool) { return s.key, s.key != "" }

func TestExtractor_CustomGrammarOrder(t *testing.T) {
	ex := NewExtractor(stubGrammar{key: "fixed key"}, IPhone())

	r := ex.ExtractResult("iphone 16", "")
	assert.Equal(t, Key("fixed key"), r.Key)
	assert.Equal(t, "stub", r.Grammar)
	assert.Len(t, ex.Grammars(), 2)
}

func TestStripVariant(t *testing.T) {
	tests := []struct {
		in      Key
		want    Key
		changed bool
	}{
		{"iphone 15 pro max", "iphone 15", true},
		{"samsung galaxy s24 ultra", "samsung galaxy s24", true},
		{"honor magic6 lite", "honor magic6", true},
		{"samsung galaxy a55", "samsung galaxy a55", false},
		{"pro max", "pro max", false},
	}
	for _, tt := range tests {
		got, changed := StripVariant(tt.in)
		assert.Equal(t, tt.want, got, string(tt.in))
		assert.Equal(t, tt.changed, changed, string(tt.in))
	}
}
