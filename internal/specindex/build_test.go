package specindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/tunitech/specrecon/internal/canonical"
	"github.com/tunitech/specrecon/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func listing(source, name string, specs map[model.Field]string) model.RawListing {
	return model.RawListing{Source: source, Name: name, Specs: specs}
}

func TestBuild_MostCompleteWins(t *testing.T) {
	ex := canonical.NewExtractor()
	listings := []model.RawListing{
		listing("mytek", "Samsung Galaxy A55 8Go 128Go Noir", map[model.Field]string{
			model.FieldBattery: "5000",
			model.FieldScreen:  "6.6",
		}),
		listing("mytek", "Samsung Galaxy A55 8Go 256Go Bleu", map[model.Field]string{
			model.FieldBattery:    "5000",
			model.FieldScreen:     "6.6",
			model.FieldCameraRear: "50",
			model.FieldOS:         "Android 14",
		}),
		listing("mytek", "Samsung Galaxy A55 12Go 256Go", map[model.Field]string{
			model.FieldBattery: "5000",
		}),
	}

	idx := Build("mytek", listings, ex, DefaultMinKeyLength)

	require.Equal(t, 1, idx.Len())
	rec, ok := idx.Get("samsung galaxy a55")
	require.True(t, ok)
	assert.Equal(t, 4, rec.Count())
	assert.Equal(t, "Android 14", rec.Get(model.FieldOS))
	assert.Equal(t, 1, idx.Stats().Replaced)
}

func TestBuild_TieKeepsFirst(t *testing.T) {
	ex := canonical.NewExtractor()
	listings := []model.RawListing{
		listing("spacenet", "iPhone 15 128Go", map[model.Field]string{model.FieldOS: "iOS 17"}),
		listing("spacenet", "iPhone 15 256Go", map[model.Field]string{model.FieldOS: "iOS 18"}),
	}

	idx := Build("spacenet", listings, ex, 0)
	rec, ok := idx.Get("iphone 15")
	require.True(t, ok)
	assert.Equal(t, "iOS 17", rec.Get(model.FieldOS))
}

func TestBuild_SkipsUnkeyableShortAndEmpty(t *testing.T) {
	ex := canonical.NewExtractor()
	listings := []model.RawListing{
		listing("bestphone", "Smartphone 5G Noir", map[model.Field]string{model.FieldOS: "Android 14"}),
		listing("bestphone", "Zoom", map[model.Field]string{model.FieldOS: "Android 13"}),
		listing("bestphone", "Honor X8b 8Go 128Go", map[model.Field]string{model.FieldRAM: "8"}),
		listing("bestphone", "Honor 200 Lite", map[model.Field]string{model.FieldBattery: "4500"}),
	}

	idx := Build("bestphone", listings, ex, DefaultMinKeyLength)

	assert.Equal(t, 1, idx.Len())
	_, ok := idx.Get("honor 200 lite")
	assert.True(t, ok)
	st := idx.Stats()
	assert.Equal(t, 4, st.Listings)
	assert.Equal(t, 1, st.Unkeyable)
	assert.Equal(t, 1, st.ShortKey)
	assert.Equal(t, 1, st.NoSpecs, "ram is not a donor field")
}

func TestMerge_Precedence(t *testing.T) {
	tunisianet := New("tunisianet")
	tunisianet.Offer("iphone 16", model.SpecRecord{Key: "iphone 16", Source: "tunisianet", Values: map[model.Field]string{model.FieldOS: "iOS 18"}})

	mytek := New("mytek")
	mytek.Offer("iphone 16", model.SpecRecord{Key: "iphone 16", Source: "mytek", Values: map[model.Field]string{
		model.FieldOS:      "iOS 17",
		model.FieldBattery: "3561",
	}})
	mytek.Offer("redmi note 14", model.SpecRecord{Key: "redmi note 14", Source: "mytek", Values: map[model.Field]string{model.FieldBattery: "5500"}})

	merged := Merge([]string{"tunisianet", "mytek"}, []*Index{mytek, tunisianet})

	require.Equal(t, 2, merged.Len())
	rec, _ := merged.Get("iphone 16")
	assert.Equal(t, "tunisianet", rec.Source, "higher-precedence source wins even with fewer fields")
	assert.Equal(t, []canonical.Key{"iphone 16", "redmi note 14"}, merged.Keys())
}

func TestOrdered_UnlistedSourcesLast(t *testing.T) {
	a, b, c := New("zeta"), New("alpha"), New("mytek")
	out := Ordered([]string{"mytek"}, []*Index{a, b, c})

	got := make([]string, len(out))
	for i, x := range out {
		got[i] = x.Source()
	}
	assert.Equal(t, []string{"mytek", "alpha", "zeta"}, got)
}

func TestBuildAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	groups := []Group{
		{Source: "mytek", Listings: []model.RawListing{
			listing("mytek", "Redmi Note 14 8/256", map[model.Field]string{model.FieldBattery: "5500"}),
		}},
		{Source: "tunisianet", Listings: []model.RawListing{
			listing("tunisianet", "Xiaomi Redmi Note 14 6Go 128Go", map[model.Field]string{model.FieldBattery: "5460", model.FieldOS: "Android 14"}),
			listing("tunisianet", "iPhone 16 Pro", map[model.Field]string{model.FieldOS: "iOS 18"}),
		}},
	}

	merged, per, err := BuildAll(context.Background(), groups, canonical.NewExtractor(), BuildOptions{
		Precedence:  []string{"tunisianet", "mytek"},
		Concurrency: 2,
	})
	require.NoError(t, err)
	require.Len(t, per, 2)
	assert.Equal(t, "tunisianet", per[0].Source())
	assert.Equal(t, 2, merged.Len())

	rec, ok := merged.Get("redmi note 14")
	require.True(t, ok)
	assert.Equal(t, "5460", rec.Get(model.FieldBattery))
}

func TestBuildAll_CanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := BuildAll(ctx, []Group{{Source: "mytek"}}, canonical.NewExtractor(), BuildOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specindex: build mytek")
}
