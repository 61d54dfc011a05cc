package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunitech/specrecon/internal/model"
)

func phone(brand, name string, specs map[model.Field]string) model.RawListing {
	return model.RawListing{Brand: brand, Name: name, Specs: specs}
}

func TestCompute_BrandAndGlobal(t *testing.T) {
	listings := []model.RawListing{
		phone("Samsung", "Galaxy A15", map[model.Field]string{model.FieldBattery: "5000", model.FieldNetwork: "4G"}),
		phone("Samsung", "Galaxy A55", map[model.Field]string{model.FieldBattery: "5000", model.FieldNetwork: "5G"}),
		phone("Samsung", "Galaxy S24", map[model.Field]string{model.FieldBattery: "4000", model.FieldNetwork: "5G"}),
		phone("Redmi", "Redmi 13C", map[model.Field]string{model.FieldBattery: "5000", model.FieldScreen: "6.74"}),
		phone("Poco", "Poco X6", map[model.Field]string{model.FieldBattery: "5100", model.FieldScreen: "6.67"}),
		phone("", "Nokia 105", map[model.Field]string{model.FieldBattery: "1000"}),
	}

	st := Compute(listings, model.StatisticFields)

	s, ok := st.Brand("samsung", model.FieldBattery)
	require.True(t, ok)
	assert.Equal(t, "5000", s.Value)
	assert.Equal(t, 3, s.Samples)

	s, ok = st.Brand("samsung", model.FieldNetwork)
	require.True(t, ok)
	assert.Equal(t, "5G", s.Value)

	s, ok = st.Brand("xiaomi", model.FieldBattery)
	require.True(t, ok, "redmi and poco fold into xiaomi")
	assert.Equal(t, "5050", s.Value)
	s, _ = st.Brand("xiaomi", model.FieldScreen)
	assert.Equal(t, "6.71", s.Value)

	_, ok = st.Brand("samsung", model.FieldScreen)
	assert.False(t, ok)

	s, ok = st.Brand("nokia", model.FieldBattery)
	require.True(t, ok, "brand inferred from the name")
	assert.Equal(t, "1000", s.Value)

	g, ok := st.Global(model.FieldBattery)
	require.True(t, ok)
	assert.Equal(t, "5000", g.Value)
	assert.Equal(t, 6, g.Samples)

	_, ok = st.Global(model.FieldOS)
	assert.False(t, ok, "no samples yields no statistic")

	assert.Equal(t, []string{"nokia", "samsung", "xiaomi"}, st.Brands())
}

func TestCompute_SkipsUnparseableNumbers(t *testing.T) {
	st := Compute([]model.RawListing{
		phone("Honor", "Honor X8b", map[model.Field]string{model.FieldRAM: "eight"}),
		phone("Honor", "Honor X8b", map[model.Field]string{model.FieldRAM: "8"}),
	}, []model.Field{model.FieldRAM})

	s, ok := st.Brand("honor", model.FieldRAM)
	require.True(t, ok)
	assert.Equal(t, 1, s.Samples)
}

func TestStatistics_NilSafe(t *testing.T) {
	var st *Statistics
	_, ok := st.Brand("samsung", model.FieldOS)
	assert.False(t, ok)
	_, ok = st.Global(model.FieldOS)
	assert.False(t, ok)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestMode(t *testing.T) {
	assert.Equal(t, "", Mode(nil))
	assert.Equal(t, "5G", Mode([]string{"4G", "5G", "5G"}))
	assert.Equal(t, "4G", Mode([]string{"5G", "4G"}), "ties resolve to the smallest value")
}
