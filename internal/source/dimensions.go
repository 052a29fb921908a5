package source

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/pkg/perenual"
)

// Range is a size range in centimeters. Either end may be missing.
type Range struct {
	MinCM *float64
	MaxCM *float64
}

// Empty reports whether neither end is set.
func (r Range) Empty() bool {
	return r.MinCM == nil && r.MaxCM == nil
}

const unitPattern = `feet|foot|ft|inches|inch|in|centimeters|centimetres|cm|meters|metres|m|'|"`

var (
	rangeRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(` + unitPattern + `)?\.?\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)\s*(` + unitPattern + `)(?:\b|\s|$)`)
	singleRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(` + unitPattern + `)(?:\b|\s|$)`)
	labelRe  = regexp.MustCompile(`(?i)\b(height|spread|width)\b\s*:?`)
)

// ParseRange parses free text such as "2 to 3 feet", "12-18 inches" or
// "1.5 m" into centimeters. A range without a leading unit takes the
// trailing one.
func ParseRange(text string) (Range, bool) {
	if m := rangeRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[3], 64)
		loUnit := m[2]
		if loUnit == "" {
			loUnit = m[4]
		}
		loCM, ok1 := toCM(lo, loUnit)
		hiCM, ok2 := toCM(hi, m[4])
		if !ok1 || !ok2 {
			return Range{}, false
		}
		if loCM > hiCM {
			loCM, hiCM = hiCM, loCM
		}
		return Range{MinCM: model.Float(loCM), MaxCM: model.Float(hiCM)}, true
	}
	if m := singleRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		cm, ok := toCM(v, m[2])
		if !ok {
			return Range{}, false
		}
		return Range{MinCM: model.Float(cm), MaxCM: model.Float(cm)}, true
	}
	return Range{}, false
}

// ParseDimensionText splits labelled text ("Height: 2-3 feet, Spread: 18
// inches") into height and spread ranges. Unlabelled text is a height.
func ParseDimensionText(text string) (height, spread Range) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Range{}, Range{}
	}

	locs := labelRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		height, _ = ParseRange(text)
		return height, Range{}
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		r, ok := ParseRange(text[loc[1]:end])
		if !ok {
			continue
		}
		switch strings.ToLower(text[loc[2]:loc[3]]) {
		case "height":
			if height.Empty() {
				height = r
			}
		default:
			if spread.Empty() {
				spread = r
			}
		}
	}
	return height, spread
}

// dimensionsFromDetails reads structured dimensions first and falls back to
// the free-text dimension string.
func dimensionsFromDetails(d *perenual.SpeciesDetails) model.Dimensions {
	var height, spread Range
	for _, dim := range d.Dimensions {
		r := structuredRange(dim)
		if r.Empty() {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(dim.Type)) {
		case "height":
			if height.Empty() {
				height = r
			}
		case "spread", "width":
			if spread.Empty() {
				spread = r
			}
		}
	}

	if height.Empty() || spread.Empty() {
		h, s := ParseDimensionText(d.Dimension)
		if height.Empty() {
			height = h
		}
		if spread.Empty() {
			spread = s
		}
	}

	dims := model.Dimensions{
		HeightMinCM: height.MinCM,
		HeightMaxCM: height.MaxCM,
		SpreadMinCM: spread.MinCM,
		SpreadMaxCM: spread.MaxCM,
	}
	dims.DeriveInches()
	return dims
}

func structuredRange(dim perenual.Dimension) Range {
	var r Range
	if dim.MinValue != nil {
		if cm, ok := toCM(*dim.MinValue, dim.Unit); ok {
			r.MinCM = model.Float(cm)
		}
	}
	if dim.MaxValue != nil {
		if cm, ok := toCM(*dim.MaxValue, dim.Unit); ok {
			r.MaxCM = model.Float(cm)
		}
	}
	return r
}

func toCM(v float64, unit string) (float64, bool) {
	var mul float64
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "feet", "foot", "ft", "'":
		mul = 30.48
	case "inches", "inch", "in", `"`:
		mul = model.CentimetersPerInch
	case "centimeters", "centimetres", "cm":
		mul = 1
	case "meters", "metres", "m":
		mul = 100
	default:
		return 0, false
	}
	return math.Round(v*mul*10) / 10, true
}
