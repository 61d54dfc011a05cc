package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/normalize"
)

// placeholders are cell values the storefronts use for "unknown".
var placeholders = map[string]bool{
	"":              true,
	"-":             true,
	"--":            true,
	"/":             true,
	"?":             true,
	"n/a":           true,
	"na":            true,
	"nan":           true,
	"none":          true,
	"null":          true,
	"nc":            true,
	"non specifie":  true,
	"non communique": true,
}

// IsPlaceholder reports whether raw carries no information.
func IsPlaceholder(raw string) bool {
	return placeholders[normalize.FoldAccents(strings.ToLower(strings.TrimSpace(raw)))]
}

var (
	currencyRe = regexp.MustCompile(`(?i)\b(?:dt|tnd|dinars?)\b|د\.ت`)
	spaceRe    = regexp.MustCompile(`[\s\x{00a0}\x{202f}]+`)
	numberRe   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	groupedRe  = regexp.MustCompile(`(\d)[\s\x{00a0}\x{202f}](\d{3})\b`)
)

// ParsePrice parses a storefront price such as "1 299,000 DT",
// "1.299,000 DT" or "159.000" into dinars. ok is false for placeholders and
// text without a positive amount.
func ParsePrice(raw string) (price float64, ok bool) {
	if IsPlaceholder(raw) {
		return 0, false
	}
	s := currencyRe.ReplaceAllString(raw, "")
	s = spaceRe.ReplaceAllString(s, "")
	s = strings.Trim(s, ".,")

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return math.Round(v*1000) / 1000, true
}

// plausible bounds per numeric field; values outside are unparseable.
var plausible = map[model.Field][2]float64{
	model.FieldRAM:         {0.5, 32},
	model.FieldStorage:     {2, 2048},
	model.FieldBattery:     {500, 20000},
	model.FieldScreen:      {1, 10},
	model.FieldCameraRear:  {0.3, 250},
	model.FieldCameraFront: {0.3, 100},
}

var (
	teraRe = regexp.MustCompile(`(?i)\d\s*(?:tb|to)\b`)
	megaRe = regexp.MustCompile(`(?i)\d\s*(?:mb|mo)\b`)
	cmRe   = regexp.MustCompile(`(?i)\d\s*cm\b`)

	networkGenRe = regexp.MustCompile(`(?i)\b([2-5])\s*g\b`)
	lteRe        = regexp.MustCompile(`(?i)\blte\b`)
	gsmRe        = regexp.MustCompile(`(?i)\b(?:gsm|edge)\b`)

	androidRe = regexp.MustCompile(`(?i)\bandroid\s*(\d+(?:\.\d+)?)?`)
	iosRe     = regexp.MustCompile(`(?i)\bios\s*(\d+(?:\.\d+)?)?`)
	harmonyRe = regexp.MustCompile(`(?i)\bharmony\s*os\b`)
	skinRe    = regexp.MustCompile(`(?i)\b(?:one\s*ui|miui|hyperos|coloros|funtouch|realme\s*ui|magic\s*os|magicui|xos|hios|emui|oxygenos)\b`)

	processorPrefixRe = regexp.MustCompile(`(?i)^(?:processeur|processor|cpu|chipset)\s*:?\s*`)
)

// ParseSpec parses the raw text of field f into its canonical value. An
// empty value with ok true means the cell was blank; ok false means text
// was present but did not match any expected pattern.
func ParseSpec(f model.Field, raw string) (value string, ok bool) {
	raw = strings.TrimSpace(raw)
	if IsPlaceholder(raw) {
		return "", true
	}
	var v string
	switch f {
	case model.FieldNetwork:
		v = parseNetwork(raw)
	case model.FieldOS:
		v = parseOS(raw)
	case model.FieldProcessorType:
		v = parseProcessor(raw)
	default:
		v = parseNumeric(f, raw)
	}
	return v, v != ""
}

func parseNumeric(f model.Field, raw string) string {
	s := raw
	if f == model.FieldBattery {
		s = groupedRe.ReplaceAllString(s, "$1$2")
	}
	m := numberRe.FindString(s)
	if m == "" {
		return ""
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return ""
	}
	switch f {
	case model.FieldStorage, model.FieldRAM:
		if teraRe.MatchString(s) {
			v *= 1024
		} else if megaRe.MatchString(s) {
			v /= 1024
		}
	case model.FieldScreen:
		if cmRe.MatchString(s) {
			v /= 2.54
		}
	}
	bounds, known := plausible[f]
	if !known || v < bounds[0] || v > bounds[1] {
		return ""
	}
	return f.FormatNumber(v)
}

func parseNetwork(raw string) string {
	best := 0
	for _, m := range networkGenRe.FindAllStringSubmatch(raw, -1) {
		if g := int(m[1][0] - '0'); g > best {
			best = g
		}
	}
	if best < 4 && lteRe.MatchString(raw) {
		best = 4
	}
	if best == 0 && gsmRe.MatchString(raw) {
		best = 2
	}
	if best == 0 {
		return ""
	}
	return strconv.Itoa(best) + "G"
}

func parseOS(raw string) string {
	if m := iosRe.FindStringSubmatch(raw); m != nil {
		return versioned("iOS", m[1])
	}
	if m := androidRe.FindStringSubmatch(raw); m != nil {
		return versioned("Android", m[1])
	}
	if harmonyRe.MatchString(raw) {
		return "HarmonyOS"
	}
	if skinRe.MatchString(raw) {
		return "Android"
	}
	return ""
}

func versioned(name, version string) string {
	if version == "" {
		return name
	}
	version = strings.TrimSuffix(version, ".0")
	return name + " " + version
}

func parseProcessor(raw string) string {
	s := processorPrefixRe.ReplaceAllString(raw, "")
	s = strings.Join(strings.Fields(s), " ")
	if IsPlaceholder(s) {
		return ""
	}
	return s
}
