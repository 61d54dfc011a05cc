package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tunitech/specrecon/internal/model"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1 299,000 DT", 1299, true},
		{"1.299,000 DT", 1299, true},
		{"549,000 DT", 549, true},
		{"159.000", 159, true},
		{"1299", 1299, true},
		{"1,299.99", 1299.99, true},
		{"2 499,000 TND", 2499, true},
		{"", 0, false},
		{"-", 0, false},
		{"Prix sur demande", 0, false},
		{"0,000 DT", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestParseSpec_Numeric(t *testing.T) {
	tests := []struct {
		field model.Field
		raw   string
		want  string
		ok    bool
	}{
		{model.FieldRAM, "8 Go", "8", true},
		{model.FieldRAM, "512 Mo", "0.5", true},
		{model.FieldRAM, "8", "8", true},
		{model.FieldRAM, "Oui", "", false},
		{model.FieldStorage, "256GB", "256", true},
		{model.FieldStorage, "1 To", "1024", true},
		{model.FieldBattery, "5000 mAh", "5000", true},
		{model.FieldBattery, "5 000 mAh", "5000", true},
		{model.FieldBattery, "12", "", false},
		{model.FieldScreen, "6,7 pouces", "6.7", true},
		{model.FieldScreen, "6.67\"", "6.67", true},
		{model.FieldScreen, "17 cm", "6.69", true},
		{model.FieldCameraRear, "50 MP + 8 MP + 2 MP", "50", true},
		{model.FieldCameraRear, "200MP", "200", true},
		{model.FieldCameraFront, "32.0", "32", true},
		{model.FieldCameraFront, "n/a", "", true},
		{model.FieldCameraFront, "", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.raw, func(t *testing.T) {
			got, ok := ParseSpec(tt.field, tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpec_Categorical(t *testing.T) {
	tests := []struct {
		field model.Field
		raw   string
		want  string
		ok    bool
	}{
		{model.FieldNetwork, "5G", "5G", true},
		{model.FieldNetwork, "4G LTE", "4G", true},
		{model.FieldNetwork, "LTE", "4G", true},
		{model.FieldNetwork, "2G/3G/4G", "4G", true},
		{model.FieldNetwork, "GSM", "2G", true},
		{model.FieldNetwork, "Wi-Fi", "", false},
		{model.FieldOS, "Android 14", "Android 14", true},
		{model.FieldOS, "android 14.0", "Android 14", true},
		{model.FieldOS, "iOS 18", "iOS 18", true},
		{model.FieldOS, "iOS", "iOS", true},
		{model.FieldOS, "HarmonyOS 4", "HarmonyOS", true},
		{model.FieldOS, "One UI 6.1", "Android", true},
		{model.FieldOS, "Windows", "", false},
		{model.FieldProcessorType, "Processeur : Octa-Core", "Octa-Core", true},
		{model.FieldProcessorType, "  Helio   G99  ", "Helio G99", true},
		{model.FieldProcessorType, "N/A", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.raw, func(t *testing.T) {
			got, ok := ParseSpec(tt.field, tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, raw := range []string{"", " ", "NaN", "N/A", "-", "Non spécifié"} {
		assert.True(t, IsPlaceholder(raw), raw)
	}
	assert.False(t, IsPlaceholder("0"))
	assert.False(t, IsPlaceholder("5G"))
}
