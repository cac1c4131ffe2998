package tokens

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a parsed CSS color with alpha.
type Color struct {
	C colorful.Color
	A float64
}

// Key returns the normalized form used for exact matching: lower case
// #rrggbb, with alpha appended as #rrggbbaa when not fully opaque.
func (c Color) Key() string {
	r, g, b := c.C.RGB255()
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, int(math.Round(c.A*255)))
}

// Luminance returns WCAG relative luminance of the color.
func (c Color) Luminance() float64 {
	r, g, b := c.C.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Opaque returns true when the color has no transparency.
func (c Color) Opaque() bool {
	return c.A >= 1
}

// Contrast returns the WCAG contrast ratio between two colors, always >= 1.
func Contrast(a, b Color) float64 {
	la, lb := a.Luminance(), b.Luminance()
	if lb > la {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// Distance returns a normalized color difference in [0, 1], 0 for identical
// colors and 1 for black against white.
func Distance(a, b Color) float64 {
	return a.C.DistanceRgb(b.C) / math.Sqrt(3)
}

// colorKeywords covers the CSS basic color set plus a few common extras.
var colorKeywords = map[string][3]uint8{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 128, 0},
	"blue":    {0, 0, 255},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
	"silver":  {192, 192, 192},
	"maroon":  {128, 0, 0},
	"navy":    {0, 0, 128},
	"teal":    {0, 128, 128},
	"olive":   {128, 128, 0},
	"purple":  {128, 0, 128},
	"fuchsia": {255, 0, 255},
	"magenta": {255, 0, 255},
	"aqua":    {0, 255, 255},
	"cyan":    {0, 255, 255},
	"lime":    {0, 255, 0},
	"yellow":  {255, 255, 0},
	"orange":  {255, 165, 0},
	"brown":   {165, 42, 42},
	"pink":    {255, 192, 203},
}

// ParseColor parses a CSS color value.
// Supports: #RGB, #RGBA, #RRGGBB, #RRGGBBAA, rgb()/rgba(), hsl()/hsla(),
// color keywords and "transparent".
func ParseColor(raw string) (Color, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Color{}, false
	}

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}

	low := strings.ToLower(s)
	if strings.HasSuffix(low, ")") {
		switch {
		case strings.HasPrefix(low, "rgba(") || strings.HasPrefix(low, "rgb("):
			return parseRGBFunc(low)
		case strings.HasPrefix(low, "hsla(") || strings.HasPrefix(low, "hsl("):
			return parseHSLFunc(low)
		}
		return Color{}, false
	}

	if low == "transparent" {
		return Color{A: 0}, true
	}
	if rgb, ok := colorKeywords[low]; ok {
		return rgb255(int(rgb[0]), int(rgb[1]), int(rgb[2]), 1), true
	}
	return Color{}, false
}

func rgb255(r, g, b int, a float64) Color {
	clamp := func(v int) float64 {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return float64(v) / 255
	}
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return Color{C: colorful.Color{R: clamp(r), G: clamp(g), B: clamp(b)}, A: a}
}

func parseHexColor(hex string) (Color, bool) {
	hexByte := func(s string) (int, bool) {
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	dup := func(c byte) string { return string(c) + string(c) }

	switch len(hex) {
	case 3, 4:
		r, ok1 := hexByte(dup(hex[0]))
		g, ok2 := hexByte(dup(hex[1]))
		b, ok3 := hexByte(dup(hex[2]))
		if !ok1 || !ok2 || !ok3 {
			return Color{}, false
		}
		a := 1.0
		if len(hex) == 4 {
			av, ok := hexByte(dup(hex[3]))
			if !ok {
				return Color{}, false
			}
			a = float64(av) / 255
		}
		return rgb255(r, g, b, a), true
	case 6, 8:
		r, ok1 := hexByte(hex[0:2])
		g, ok2 := hexByte(hex[2:4])
		b, ok3 := hexByte(hex[4:6])
		if !ok1 || !ok2 || !ok3 {
			return Color{}, false
		}
		a := 1.0
		if len(hex) == 8 {
			av, ok := hexByte(hex[6:8])
			if !ok {
				return Color{}, false
			}
			a = float64(av) / 255
		}
		return rgb255(r, g, b, a), true
	}
	return Color{}, false
}

// funcArgs splits the inside of a color function on commas or whitespace,
// with the modern "/ alpha" form normalized into a fourth argument.
func funcArgs(low string) []string {
	open := strings.IndexByte(low, '(')
	inner := strings.TrimSuffix(low[open+1:], ")")
	inner = strings.ReplaceAll(inner, "/", " ")
	if strings.Contains(inner, ",") {
		parts := strings.Split(inner, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return strings.Fields(inner)
}

func parseChannel(s string) (int, bool) {
	if v, ok := parsePct(s); ok {
		return int(math.Round(v * 255)), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

// parsePct parses "55%" into 0.55.
func parsePct(s string) (float64, bool) {
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return f / 100, true
}

func parseAlpha(s string) (float64, bool) {
	if v, ok := parsePct(s); ok {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseRGBFunc(low string) (Color, bool) {
	args := funcArgs(low)
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	var ch [3]int
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i])
		if !ok {
			return Color{}, false
		}
		ch[i] = v
	}
	a := 1.0
	if len(args) == 4 {
		v, ok := parseAlpha(args[3])
		if !ok {
			return Color{}, false
		}
		a = v
	}
	return rgb255(ch[0], ch[1], ch[2], a), true
}

func parseHSLFunc(low string) (Color, bool) {
	args := funcArgs(low)
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return Color{}, false
	}
	s, ok := parsePct(args[1])
	if !ok {
		return Color{}, false
	}
	l, ok := parsePct(args[2])
	if !ok {
		return Color{}, false
	}
	a := 1.0
	if len(args) == 4 {
		v, aok := parseAlpha(args[3])
		if !aok {
			return Color{}, false
		}
		a = v
	}
	c := colorful.Hsl(h, s, l).Clamped()
	// Round through 8-bit channels so hsl(210, 100%, 50%) and its hex twin
	// produce the same matching key.
	r, g, b := c.RGB255()
	return rgb255(int(r), int(g), int(b), a), true
}
