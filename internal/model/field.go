package model

import (
	"math"
	"strconv"
	"strings"
)

// Field names a reconcilable specification attribute of a listing.
type Field string

const (
	FieldRAM           Field = "ram_gb"
	FieldStorage       Field = "storage_gb"
	FieldBattery       Field = "battery_mah"
	FieldScreen        Field = "screen_inches"
	FieldCameraRear    Field = "camera_rear_mp"
	FieldCameraFront   Field = "camera_front_mp"
	FieldNetwork       Field = "network"
	FieldOS            Field = "os"
	FieldProcessorType Field = "processor_type"
)

// FieldKind separates numeric fields (median-aggregated) from categorical
// fields (mode-aggregated).
type FieldKind int

const (
	Numeric FieldKind = iota
	Categorical
)

// Fields is the fixed, ordered set of specification fields. Output columns
// follow this order.
var Fields = []Field{
	FieldRAM,
	FieldStorage,
	FieldBattery,
	FieldScreen,
	FieldCameraRear,
	FieldCameraFront,
	FieldNetwork,
	FieldOS,
	FieldProcessorType,
}

// DonorFields are model-level attributes that may be copied between
// listings sharing a canonical key. RAM and storage are excluded because
// a single model ships in several memory variants.
var DonorFields = []Field{
	FieldBattery,
	FieldScreen,
	FieldCameraRear,
	FieldCameraFront,
	FieldNetwork,
	FieldOS,
	FieldProcessorType,
}

// StatisticFields are filled by the brand and global aggregate tiers.
// Processor type is left out: a brand-wide mode says nothing about a
// specific model's chipset.
var StatisticFields = []Field{
	FieldRAM,
	FieldStorage,
	FieldBattery,
	FieldScreen,
	FieldCameraRear,
	FieldCameraFront,
	FieldNetwork,
	FieldOS,
}

// Kind reports whether f is numeric or categorical.
func (f Field) Kind() FieldKind {
	switch f {
	case FieldNetwork, FieldOS, FieldProcessorType:
		return Categorical
	default:
		return Numeric
	}
}

// IsNumeric is shorthand for f.Kind() == Numeric.
func (f Field) IsNumeric() bool { return f.Kind() == Numeric }

// IsDonor reports whether f is a model-level attribute.
func (f Field) IsDonor() bool {
	for _, d := range DonorFields {
		if d == f {
			return true
		}
	}
	return false
}

func (f Field) String() string { return string(f) }

// FormatNumber renders v in the canonical text form for f: battery
// capacity as a whole number, everything else with at most two decimals
// and no trailing zeros.
func (f Field) FormatNumber(v float64) string {
	if f == FieldBattery {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// ParseField resolves a field by its canonical column name.
func ParseField(s string) (Field, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}
