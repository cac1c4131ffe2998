package enhance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"brandcss/common"
	"brandcss/css"
	"brandcss/tokens"
)

// ignoreMarker suppresses enhancement for its enclosing scope: the whole
// file when it appears in a top-level comment, a single rule when it
// appears inside the rule body.
const ignoreMarker = "agentic:ignore"

const (
	hierarchyConfidence = 0.85
	hierarchyMinUses    = 3
)

// Property families gate which token categories a declaration may draw
// from. Ungated properties pass through untouched.
var spacingProps = map[string]bool{
	"margin": true, "margin-top": true, "margin-right": true,
	"margin-bottom": true, "margin-left": true,
	"padding": true, "padding-top": true, "padding-right": true,
	"padding-bottom": true, "padding-left": true,
	"gap": true, "row-gap": true, "column-gap": true,
	"grid-gap": true, "grid-row-gap": true, "grid-column-gap": true,
}

var radiusProps = map[string]bool{
	"border-radius":              true,
	"border-top-left-radius":     true,
	"border-top-right-radius":    true,
	"border-bottom-left-radius":  true,
	"border-bottom-right-radius": true,
}

var colorProps = map[string]bool{
	"color": true, "background-color": true, "background": true,
	"border-color": true, "border-top-color": true, "border-right-color": true,
	"border-bottom-color": true, "border-left-color": true,
	"outline-color": true, "text-decoration-color": true,
	"caret-color": true, "accent-color": true, "column-rule-color": true,
	"fill": true, "stroke": true,
}

var colorFuncs = map[string]bool{
	"rgb": true, "rgba": true, "hsl": true, "hsla": true,
}

func lengthCategory(property string) (common.TokenCategory, bool) {
	switch {
	case spacingProps[property]:
		return common.TokenCategorySpacing, true
	case radiusProps[property]:
		return common.TokenCategoryRadius, true
	}
	return 0, false
}

func hasIgnoreMarker(comments []string) bool {
	for _, c := range comments {
		if strings.Contains(c, ignoreMarker) {
			return true
		}
	}
	return false
}

// Matcher proposes token substitutions for parsed sheets.
type Matcher struct {
	policy Policy
	log    *zap.Logger
}

func NewMatcher(policy Policy, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{policy: policy.normalize(), log: log.Named("matcher")}
}

// Propose walks the sheet and returns candidates in source order:
// declaration rewrites first, hierarchy-addition suggestions last.
// Candidates inside ignored scopes are still proposed, flagged, and left
// for the guard to reject with a reason.
func (m *Matcher) Propose(sheet *css.Sheet, table *tokens.Table) []*candidate {
	if table.Empty() {
		return nil
	}
	w := &proposeWalk{m: m, tbl: table, stats: make(map[string]*literalStat)}
	w.nodes(sheet.Nodes, hasIgnoreMarker(sheet.TopComments()))
	w.hierarchy()
	return w.cands
}

// literalStat tracks how often an unmatched tokenizable literal occurs,
// feeding hierarchy-addition suggestions.
type literalStat struct {
	display string
	cat     common.TokenCategory
	prop    string
	line    int
	count   int
}

// literalMiss is one unmatched but tokenizable component of a declaration.
type literalMiss struct {
	cat     common.TokenCategory
	key     string
	display string
}

func missKey(cat common.TokenCategory, norm string) string {
	return cat.String() + "|" + norm
}

func lengthMissKey(tbl *tokens.Table, cat common.TokenCategory, l tokens.Length) string {
	if px, ok := l.CanonicalPx(tbl.RootPx); ok {
		return missKey(cat, strconv.FormatFloat(px, 'f', 4, 64)+"px")
	}
	return missKey(cat, strconv.FormatFloat(l.Value, 'f', 4, 64)+l.Unit)
}

type proposeWalk struct {
	m     *Matcher
	tbl   *tokens.Table
	cands []*candidate
	stats map[string]*literalStat
	order []string
}

func (w *proposeWalk) nodes(nodes []css.Node, ignored bool) {
	for _, n := range nodes {
		if n.Rule == nil {
			continue
		}
		rule := n.Rule
		ruleIgnored := ignored || hasIgnoreMarker(rule.Comments())
		for _, bn := range rule.Body {
			if bn.Decl != nil {
				w.decl(rule, bn.Decl, ruleIgnored)
			}
		}
		w.nodes(rule.Body, ruleIgnored)
	}
}

func (w *proposeWalk) decl(rule *css.Rule, d *css.Declaration, ignored bool) {
	cand, misses := w.m.match(w.tbl, rule, d, ignored)
	if cand != nil {
		w.cands = append(w.cands, cand)
	}
	if ignored {
		return
	}
	// a literal counts once per declaration, not once per component
	var seen map[string]bool
	for _, ms := range misses {
		if seen[ms.key] {
			continue
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		seen[ms.key] = true
		st := w.stats[ms.key]
		if st == nil {
			st = &literalStat{display: ms.display, cat: ms.cat, prop: d.Property, line: d.Line}
			w.stats[ms.key] = st
			w.order = append(w.order, ms.key)
		}
		st.count++
	}
}

// hierarchy emits one advisory suggestion per literal that occurred in
// enough distinct declarations without any token close to it.
func (w *proposeWalk) hierarchy() {
	for _, key := range w.order {
		st := w.stats[key]
		if st.count < hierarchyMinUses {
			continue
		}
		name := fmt.Sprintf("--%s-%s", st.cat, slug.Make(st.display))
		w.cands = append(w.cands, &candidate{
			change: Change{
				Kind:           common.ChangeKindHierarchyAddition,
				Property:       st.prop,
				Before:         st.display,
				After:          fmt.Sprintf("%s: %s", name, st.display),
				Selector:       ":root",
				Line:           st.line,
				Confidence:     hierarchyConfidence,
				SuggestionOnly: true,
			},
		})
	}
}

// match inspects one declaration and produces at most one candidate plus
// the unmatched literals for hierarchy tracking. When several components
// of a multi-component value match, the rewrite covers all of them and
// confidence is the minimum over the components.
func (m *Matcher) match(tbl *tokens.Table, rule *css.Rule, d *css.Declaration, ignored bool) (*candidate, []literalMiss) {
	prop := d.Property
	if strings.HasPrefix(prop, "--") {
		// custom property definitions are authored values, never rewritten
		return nil, nil
	}

	isColor := colorProps[prop]
	lengthCat, hasLength := lengthCategory(prop)
	isShadow := prop == "box-shadow"
	if !isColor && !hasLength && !isShadow {
		return nil, nil
	}

	parts := css.ParseValue(d.Value)
	if css.ContainsVar(parts) {
		// already tokenized, touching it again would break idempotency
		return nil, nil
	}

	if isShadow {
		return m.matchShadow(tbl, rule, d, parts, ignored)
	}

	exact := make(map[int]string)
	advisory := make(map[int]string)
	var (
		sawToken    bool
		advConf     = 1.0
		colorTok    *tokens.Token
		advColorTok *tokens.Token
		misses      []literalMiss
	)

	for i, pt := range parts {
		switch pt.Kind {
		case css.PartHash, css.PartIdent, css.PartFunction:
			if !isColor {
				continue
			}
			if pt.Kind == css.PartFunction && !colorFuncs[pt.Name] {
				continue
			}
			col, ok := tokens.ParseColor(pt.Raw)
			if !ok {
				continue
			}
			if tok, ok := tbl.ExactColor(col); ok {
				exact[i] = tok.VarRef()
				sawToken = true
				if colorTok == nil {
					colorTok = tok
				}
				continue
			}
			if tok, dist, ok := tbl.NearestColor(col); ok {
				if conf := m.policy.toleranceConfidence(dist); conf > 0 {
					advisory[i] = tok.VarRef()
					if conf < advConf {
						advConf = conf
					}
					if advColorTok == nil {
						advColorTok = tok
					}
					continue
				}
			}
			misses = append(misses, literalMiss{cat: common.TokenCategoryColor, key: missKey(common.TokenCategoryColor, col.Key()), display: pt.Raw})

		case css.PartDimension:
			if !hasLength {
				continue
			}
			if pt.IsZero() && tokens.IsLengthUnit(pt.Unit) {
				// the one permitted unit strip: a literal zero length
				exact[i] = "0"
				continue
			}
			l, ok := tokens.ParseLength(pt.Raw)
			if !ok {
				continue
			}
			if tok, ok := tbl.ExactLength(lengthCat, l); ok {
				exact[i] = tok.VarRef()
				sawToken = true
				continue
			}
			if tok, rel, ok := tbl.NearestLength(lengthCat, l); ok && rel <= m.policy.Tolerance {
				if conf := m.policy.toleranceConfidence(rel); conf > 0 {
					advisory[i] = tok.VarRef()
					if conf < advConf {
						advConf = conf
					}
					continue
				}
			}
			misses = append(misses, literalMiss{cat: lengthCat, key: lengthMissKey(tbl, lengthCat, l), display: pt.Raw})

		case css.PartPercentage:
			if hasLength && pt.Number == 0 {
				exact[i] = "0"
			}
		}
	}

	sel := rule.Selector()
	if len(exact) > 0 {
		// automatic components win the declaration, advisory ones wait
		// for a later run
		after := css.RebuildValue(parts, exact)
		kind := common.ChangeKindOptimization
		if sawToken {
			kind = common.ChangeKindTokenSubstitution
		}
		cand := &candidate{
			change: Change{
				Kind:       kind,
				Property:   d.Property,
				Before:     d.Value,
				After:      after,
				Selector:   sel,
				Line:       d.Line,
				Confidence: 1.0,
			},
			decl:    d,
			value:   after,
			rule:    rule,
			ignored: ignored,
		}
		if colorTok != nil {
			if c, ok := colorTok.ColorValue(); ok {
				cand.color, cand.hasColor = c, true
			}
		}
		return cand, misses
	}
	if len(advisory) > 0 {
		after := css.RebuildValue(parts, advisory)
		cand := &candidate{
			change: Change{
				Kind:           common.ChangeKindTokenSubstitution,
				Property:       d.Property,
				Before:         d.Value,
				After:          after,
				Selector:       sel,
				Line:           d.Line,
				Confidence:     advConf,
				SuggestionOnly: true,
			},
			decl:    d,
			value:   after,
			rule:    rule,
			ignored: ignored,
		}
		if advColorTok != nil {
			if c, ok := advColorTok.ColorValue(); ok {
				cand.color, cand.hasColor = c, true
			}
		}
		return cand, misses
	}
	return nil, misses
}

// matchShadow matches box-shadow values as whole literals against
// elevation tokens.
func (m *Matcher) matchShadow(tbl *tokens.Table, rule *css.Rule, d *css.Declaration, parts []css.ValuePart, ignored bool) (*candidate, []literalMiss) {
	val := strings.TrimSpace(d.Value)
	if val == "" || strings.EqualFold(val, "none") {
		return nil, nil
	}
	norm := tokens.NormalizeLiteral(val)
	if tok, ok := tbl.ExactLiteral(common.TokenCategoryElevation, norm); ok {
		after := tok.VarRef()
		return &candidate{
			change: Change{
				Kind:       common.ChangeKindTokenSubstitution,
				Property:   d.Property,
				Before:     d.Value,
				After:      after,
				Selector:   rule.Selector(),
				Line:       d.Line,
				Confidence: 1.0,
			},
			decl:    d,
			value:   after,
			rule:    rule,
			ignored: ignored,
		}, nil
	}
	// only shadow-shaped values (offset/blur dimensions present) feed the
	// hierarchy suggestions
	for _, pt := range parts {
		if pt.Kind == css.PartDimension {
			return nil, []literalMiss{{cat: common.TokenCategoryElevation, key: missKey(common.TokenCategoryElevation, norm), display: val}}
		}
	}
	return nil, nil
}
