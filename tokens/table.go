package tokens

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"brandcss/common"
)

// Token is one resolved design token from a brand pack.
type Token struct {
	Role     string               // Dot path within the pack, e.g. "spacing.md"
	Category common.TokenCategory // Matching category
	Value    string               // Literal value as authored, e.g. "1rem"
	Var      string               // CSS custom property name, e.g. "--spacing-md"

	color    Color
	hasColor bool
	length   Length
	px       float64
	hasPx    bool
	literal  string
}

// VarRef returns the value form a substitution writes out.
func (t *Token) VarRef() string {
	return "var(" + t.Var + ")"
}

// ColorValue returns the parsed color for color tokens.
func (t *Token) ColorValue() (Color, bool) {
	return t.color, t.hasColor
}

// Table is an immutable set of tokens with lookup indexes for matching.
// A nil or empty table matches nothing, which is the degraded mode the
// pipeline falls back to when pack resolution fails.
type Table struct {
	Brand   string
	Version string
	RootPx  float64 // rem to px conversion base used for all length matching
	Tokens  []*Token

	byRole   map[string]*Token
	colors   map[string]*Token
	px       map[common.TokenCategory]map[int64]*Token
	units    map[common.TokenCategory]map[string]*Token
	literals map[common.TokenCategory]map[string]*Token
}

// Empty reports whether the table has no tokens to match against.
func (t *Table) Empty() bool {
	return t == nil || len(t.Tokens) == 0
}

// Lookup returns the token for a normalized role path.
func (t *Table) Lookup(role string) (*Token, bool) {
	if t == nil {
		return nil, false
	}
	tok, ok := t.byRole[role]
	return tok, ok
}

func pxKey(v float64) int64 {
	return int64(math.Round(v * 10000))
}

func unitKey(l Length) string {
	return l.Unit + ":" + strconv.FormatFloat(math.Round(l.Value*10000)/10000, 'f', -1, 64)
}

// NormalizeLiteral folds a whole-value literal (shadow lists and the like)
// into a comparable form: lower case, collapsed whitespace, no space around
// commas and parentheses.
func NormalizeLiteral(s string) string {
	out := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	for _, r := range []struct{ from, to string }{
		{", ", ","}, {" ,", ","}, {"( ", "("}, {" )", ")"},
	} {
		out = strings.ReplaceAll(out, r.from, r.to)
	}
	return out
}

// ExactColor returns the token whose color equals c, alpha included.
func (t *Table) ExactColor(c Color) (*Token, bool) {
	if t == nil {
		return nil, false
	}
	tok, ok := t.colors[c.Key()]
	return tok, ok
}

// NearestColor returns the color token closest to c and the normalized
// distance in [0, 1]. Transparency differences are not bridged: only tokens
// with matching opacity are considered.
func (t *Table) NearestColor(c Color) (*Token, float64, bool) {
	if t == nil {
		return nil, 0, false
	}
	var best *Token
	bestDist := math.Inf(1)
	for _, tok := range t.Tokens {
		if !tok.hasColor || tok.Category != common.TokenCategoryColor {
			continue
		}
		if tok.color.Opaque() != c.Opaque() {
			continue
		}
		if d := Distance(tok.color, c); d < bestDist {
			best, bestDist = tok, d
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestDist, true
}

// ExactLength returns the token equal to l within the category: by canonical
// pixel value when both sides convert, otherwise by identical unit and value.
func (t *Table) ExactLength(cat common.TokenCategory, l Length) (*Token, bool) {
	if t == nil {
		return nil, false
	}
	if px, ok := l.CanonicalPx(t.RootPx); ok {
		if tok, ok := t.px[cat][pxKey(px)]; ok {
			return tok, true
		}
		return nil, false
	}
	tok, ok := t.units[cat][unitKey(l)]
	return tok, ok
}

// NearestLength returns the category token closest to l and the relative
// difference |a-b|/|b|. Canonicalizable lengths compare in pixels, context
// dependent units only against tokens of the same unit. Zero valued targets
// never match near (relative distance is undefined at zero).
func (t *Table) NearestLength(cat common.TokenCategory, l Length) (*Token, float64, bool) {
	if t == nil {
		return nil, 0, false
	}
	var best *Token
	bestRel := math.Inf(1)

	if px, ok := l.CanonicalPx(t.RootPx); ok {
		if px == 0 {
			return nil, 0, false
		}
		for _, tok := range t.Tokens {
			if tok.Category != cat || !tok.hasPx || tok.px == 0 {
				continue
			}
			if rel := math.Abs(px-tok.px) / math.Abs(tok.px); rel < bestRel {
				best, bestRel = tok, rel
			}
		}
	} else {
		if l.Value == 0 {
			return nil, 0, false
		}
		for _, tok := range t.Tokens {
			if tok.Category != cat || tok.hasPx || tok.length.Unit != l.Unit || tok.length.Value == 0 {
				continue
			}
			if rel := math.Abs(l.Value-tok.length.Value) / math.Abs(tok.length.Value); rel < bestRel {
				best, bestRel = tok, rel
			}
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best, bestRel, true
}

// ExactLiteral returns the token whose whole-value literal matches the
// normalized form, used for shadow/elevation values.
func (t *Table) ExactLiteral(cat common.TokenCategory, norm string) (*Token, bool) {
	if t == nil {
		return nil, false
	}
	tok, ok := t.literals[cat][norm]
	return tok, ok
}

// newTable indexes tokens for matching. Length tokens are canonicalized
// against rootPx here, once. When two tokens normalize to the same key the
// first one in pack order wins and the collision is logged.
func newTable(brand, version string, rootPx float64, toks []*Token, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	if rootPx <= 0 {
		rootPx = DefaultRootFontSize
	}
	t := &Table{
		Brand:    brand,
		Version:  version,
		RootPx:   rootPx,
		Tokens:   toks,
		byRole:   make(map[string]*Token, len(toks)),
		colors:   make(map[string]*Token),
		px:       make(map[common.TokenCategory]map[int64]*Token),
		units:    make(map[common.TokenCategory]map[string]*Token),
		literals: make(map[common.TokenCategory]map[string]*Token),
	}
	for _, tok := range toks {
		t.byRole[tok.Role] = tok

		if tok.Category == common.TokenCategorySpacing || tok.Category == common.TokenCategoryRadius {
			if px, ok := tok.length.CanonicalPx(rootPx); ok {
				tok.px = px
				tok.hasPx = true
			}
		}

		switch {
		case tok.hasColor:
			key := tok.color.Key()
			if prev, dup := t.colors[key]; dup {
				log.Debug("Duplicate token value, first role wins",
					zap.String("value", key), zap.String("kept", prev.Role), zap.String("dropped", tok.Role))
				continue
			}
			t.colors[key] = tok
		case tok.hasPx:
			m := t.px[tok.Category]
			if m == nil {
				m = make(map[int64]*Token)
				t.px[tok.Category] = m
			}
			key := pxKey(tok.px)
			if prev, dup := m[key]; dup {
				log.Debug("Duplicate token value, first role wins",
					zap.String("value", tok.Value), zap.String("kept", prev.Role), zap.String("dropped", tok.Role))
				continue
			}
			m[key] = tok
		case tok.literal != "":
			m := t.literals[tok.Category]
			if m == nil {
				m = make(map[string]*Token)
				t.literals[tok.Category] = m
			}
			if _, dup := m[tok.literal]; !dup {
				m[tok.literal] = tok
			}
		default:
			m := t.units[tok.Category]
			if m == nil {
				m = make(map[string]*Token)
				t.units[tok.Category] = m
			}
			key := unitKey(tok.length)
			if _, dup := m[key]; !dup {
				m[key] = tok
			}
		}
	}
	return t
}
