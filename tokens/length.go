package tokens

import (
	"brandcss/css"
)

// Length is a parsed CSS dimension.
type Length struct {
	Value float64
	Unit  string // lower case, "" for a bare number
}

// pxPerUnit converts absolute CSS units to pixels.
var pxPerUnit = map[string]float64{
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"cm": 96.0 / 2.54,
	"mm": 96.0 / 25.4,
	"q":  96.0 / 101.6,
}

// lengthUnits are units a literal zero value may drop without changing
// meaning. Time, angle and frequency units must keep their unit even at zero.
var lengthUnits = map[string]bool{
	"px": true, "em": true, "rem": true, "ex": true, "ch": true,
	"vw": true, "vh": true, "vmin": true, "vmax": true,
	"pt": true, "pc": true, "in": true, "cm": true, "mm": true, "q": true,
}

// IsLengthUnit reports whether unit is a CSS length unit.
func IsLengthUnit(unit string) bool {
	return lengthUnits[unit]
}

// ParseLength parses a single dimension or number value like "16px", "1rem"
// or "0". Anything else (keywords, multi component values, percentages)
// fails.
func ParseLength(raw string) (Length, bool) {
	var found *css.ValuePart
	for _, p := range css.ParseValue(raw) {
		switch p.Kind {
		case css.PartWhitespace, css.PartComment:
			continue
		case css.PartDimension, css.PartNumber:
			if found != nil {
				return Length{}, false
			}
			pp := p
			found = &pp
		default:
			return Length{}, false
		}
	}
	if found == nil {
		return Length{}, false
	}
	if found.Kind == css.PartDimension && !IsLengthUnit(found.Unit) {
		return Length{}, false
	}
	return Length{Value: found.Number, Unit: found.Unit}, true
}

// CanonicalPx converts the length to pixels where the conversion does not
// depend on layout context: absolute units always, rem against the configured
// root font size, and the literal zero. Context dependent units (em, ex, ch,
// viewport units) do not canonicalize and only ever match themselves.
func (l Length) CanonicalPx(rootPx float64) (float64, bool) {
	switch {
	case l.Unit == "":
		if l.Value == 0 {
			return 0, true
		}
		return 0, false
	case l.Unit == "rem":
		return l.Value * rootPx, true
	default:
		if f, ok := pxPerUnit[l.Unit]; ok {
			return l.Value * f, true
		}
		return 0, false
	}
}
