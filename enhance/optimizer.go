package enhance

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"brandcss/common"
	"brandcss/css"
	"brandcss/tokens"
)

// Pass names accepted by NewOptimizer.
const (
	PassDedupe    = "dedupe"
	PassShorthand = "shorthand"
	PassSelectors = "selectors"
	PassZeros     = "zeros"
)

type optPass struct {
	name string
	fn   func(*css.Sheet) ([]Change, int)
}

// Optimizer runs the optional cleanup passes over an already enhanced
// sheet: rule de-duplication, margin/padding shorthand merging, selector
// whitespace cleanup and zero-value normalization.
type Optimizer struct {
	log    *zap.Logger
	passes []optPass
}

// NewOptimizer builds an optimizer running the named passes in the given
// order. An empty list selects all passes. Unknown names are skipped.
func NewOptimizer(names []string, log *zap.Logger) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Optimizer{log: log.Named("optimizer")}
	if len(names) == 0 {
		names = []string{PassDedupe, PassShorthand, PassSelectors, PassZeros}
	}
	for _, name := range names {
		switch name {
		case PassDedupe:
			o.passes = append(o.passes, optPass{name, dedupePass})
		case PassShorthand:
			o.passes = append(o.passes, optPass{name, shorthandPass})
		case PassSelectors:
			o.passes = append(o.passes, optPass{name, selectorsPass})
		case PassZeros:
			o.passes = append(o.passes, optPass{name, zerosPass})
		default:
			o.log.Warn("Unknown optimization pass ignored", zap.String("pass", name))
		}
	}
	return o
}

// Apply runs the configured passes and returns the recorded rewrites.
// Each pass validates its own output against a pre-pass snapshot (brace
// balance, selector count, no unit loss) and rolls back on any failure;
// a rolled back pass is logged and skipped, never fatal.
func (o *Optimizer) Apply(sheet *css.Sheet) []Change {
	if hasIgnoreMarker(sheet.TopComments()) {
		return nil
	}
	var applied []Change
	for _, p := range o.passes {
		snap := sheet.Clone()
		changes, merged := p.fn(sheet)
		if len(changes) == 0 {
			continue
		}
		if err := validateRewrite(snap, sheet, merged); err != nil {
			sheet.Nodes = snap.Nodes
			o.log.Warn("Optimization pass rolled back",
				zap.String("pass", p.name), zap.Error(err))
			continue
		}
		applied = append(applied, changes...)
		o.log.Debug("Optimization pass applied",
			zap.String("pass", p.name), zap.Int("changes", len(changes)))
	}
	return applied
}

// validateRewrite checks that a pass kept the sheet structurally sound:
// the output still parses with balanced braces, the selector count only
// dropped by the explicitly merged amount, and no non-zero number lost
// its unit (a new bare number can only come from unit stripping).
func validateRewrite(before, after *css.Sheet, merged int) error {
	if _, err := css.NewParser(nil).Parse(after.Bytes()); err != nil {
		return fmt.Errorf("output no longer parses: %w", err)
	}
	was := before.SelectorCount()
	want := was - merged
	if got := after.SelectorCount(); got != want {
		return fmt.Errorf("selector count changed: %d -> %d, want %d", was, got, want)
	}
	if got, had := bareNumbers(after), bareNumbers(before); got > had {
		return fmt.Errorf("bare numbers appeared: %d -> %d", had, got)
	}
	return nil
}

// bareNumbers counts non-zero unitless numeric components across all
// declarations.
func bareNumbers(s *css.Sheet) int {
	n := 0
	s.Walk(func(r *css.Rule) {
		for _, d := range r.Declarations() {
			for _, pt := range css.ParseValue(d.Value) {
				if pt.Kind == css.PartNumber && pt.Number != 0 {
					n++
				}
			}
		}
	})
	return n
}

// dedupePass drops later duplicates of rules that are provably identical:
// same normalized prelude, same declaration list, same enclosing scope,
// no nested rules. Dropping the later twin never changes the cascade.
func dedupePass(sheet *css.Sheet) ([]Change, int) {
	var changes []Change
	merged := 0
	sheet.Nodes = dedupeNodes(sheet.Nodes, &changes, &merged)
	return changes, merged
}

func dedupeNodes(nodes []css.Node, changes *[]Change, merged *int) []css.Node {
	seen := make(map[string]bool)
	out := nodes[:0]
	for _, n := range nodes {
		if n.Rule == nil {
			out = append(out, n)
			continue
		}
		r := n.Rule
		if r.IsAt() {
			// at-rule bodies form their own scope
			r.Body = dedupeNodes(r.Body, changes, merged)
			out = append(out, n)
			continue
		}
		key, safe := ruleKey(r)
		if safe && !hasIgnoreMarker(r.Comments()) && seen[key] {
			*merged += r.SelectorCount()
			*changes = append(*changes, Change{
				Kind:       common.ChangeKindOptimization,
				Before:     r.Selector(),
				After:      "",
				Selector:   r.Selector(),
				Line:       r.Line,
				Confidence: 1,
			})
			continue
		}
		if safe {
			seen[key] = true
		}
		out = append(out, n)
	}
	return out
}

// ruleKey fingerprints a style rule for duplicate detection. Rules with
// nested children are never considered mergeable.
func ruleKey(r *css.Rule) (string, bool) {
	var sb strings.Builder
	sb.WriteString(strings.Join(strings.Fields(r.Prelude), " "))
	sb.WriteString("\x00")
	for _, n := range r.Body {
		switch {
		case n.Rule != nil:
			return "", false
		case n.Decl != nil:
			d := n.Decl
			sb.WriteString("d\x00")
			sb.WriteString(d.Property)
			sb.WriteString("\x00")
			sb.WriteString(strings.TrimSpace(d.Value))
			if d.Important {
				sb.WriteString("!")
			}
			sb.WriteString("\x00")
		case n.Raw != nil:
			if txt := strings.TrimSpace(n.Raw.Text); txt != "" {
				sb.WriteString("r\x00")
				sb.WriteString(txt)
				sb.WriteString("\x00")
			}
		}
	}
	return sb.String(), true
}

var shorthandFamilies = []struct {
	name      string
	longhands [4]string // top right bottom left
}{
	{"margin", [4]string{"margin-top", "margin-right", "margin-bottom", "margin-left"}},
	{"padding", [4]string{"padding-top", "padding-right", "padding-bottom", "padding-left"}},
}

// shorthandPass merges complete margin/padding longhand quartets into the
// four-value shorthand, raw values copied verbatim.
func shorthandPass(sheet *css.Sheet) ([]Change, int) {
	var changes []Change
	sheet.Walk(func(r *css.Rule) {
		if r.IsAt() || hasIgnoreMarker(r.Comments()) {
			return
		}
		for _, fam := range shorthandFamilies {
			mergeShorthand(r, fam.name, fam.longhands, &changes)
		}
	})
	return changes, 0
}

func mergeShorthand(r *css.Rule, name string, longhands [4]string, changes *[]Change) {
	idx := [4]int{-1, -1, -1, -1}
	for i, n := range r.Body {
		d := n.Decl
		if d == nil {
			continue
		}
		if d.Property == name {
			// an existing shorthand already participates in the cascade
			return
		}
		for j, lh := range longhands {
			if d.Property == lh {
				if idx[j] >= 0 {
					return // repeated longhand, cascade order matters
				}
				idx[j] = i
			}
		}
	}
	for _, i := range idx {
		if i < 0 {
			return
		}
	}
	imp := r.Body[idx[0]].Decl.Important
	var vals [4]string
	for j, i := range idx {
		d := r.Body[i].Decl
		if d.Important != imp || !simpleValue(d.Value) {
			return
		}
		vals[j] = strings.TrimSpace(d.Value)
	}

	first := idx[0]
	for _, i := range idx {
		if i < first {
			first = i
		}
	}
	combined := strings.Join(vals[:], " ")
	repl := css.MakeDeclaration(leadOf(r.Body[first].Decl.Raw), name, combined, imp)
	repl.Line = r.Body[first].Decl.Line

	drop := map[int]bool{idx[0]: true, idx[1]: true, idx[2]: true, idx[3]: true}
	out := r.Body[:0]
	for i, n := range r.Body {
		if i == first {
			out = append(out, css.Node{Decl: repl})
			continue
		}
		if drop[i] {
			continue
		}
		out = append(out, n)
	}
	r.Body = out

	*changes = append(*changes, Change{
		Kind:       common.ChangeKindOptimization,
		Property:   name,
		Before:     strings.Join(longhands[:], " + "),
		After:      name + ": " + combined,
		Selector:   r.Selector(),
		Line:       repl.Line,
		Confidence: 1,
	})
}

// simpleValue accepts exactly one component that is safe to reorder into
// a shorthand: a dimension, number, percentage, "auto", var() or calc().
func simpleValue(v string) bool {
	n := 0
	for _, pt := range css.ParseValue(v) {
		switch pt.Kind {
		case css.PartWhitespace, css.PartComment:
		case css.PartDimension, css.PartNumber, css.PartPercentage:
			n++
		case css.PartIdent:
			if pt.Name != "auto" {
				return false
			}
			n++
		case css.PartFunction:
			if pt.Name != "var" && pt.Name != "calc" {
				return false
			}
			n++
		default:
			return false
		}
	}
	return n == 1
}

func leadOf(raw string) string {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return raw[:i]
		}
	}
	return raw
}

// selectorsPass normalizes selector whitespace: runs collapse to a single
// space, commas get exactly one space after and none before. Strings and
// comments inside preludes are left alone, as is leading indentation.
func selectorsPass(sheet *css.Sheet) ([]Change, int) {
	var changes []Change
	sheet.Walk(func(r *css.Rule) {
		if r.IsAt() || hasIgnoreMarker(r.Comments()) {
			return
		}
		before := r.Selector()
		norm := normalizePrelude(r.Prelude)
		if norm == r.Prelude {
			return
		}
		r.Prelude = norm
		changes = append(changes, Change{
			Kind:       common.ChangeKindOptimization,
			Before:     before,
			After:      r.Selector(),
			Selector:   r.Selector(),
			Line:       r.Line,
			Confidence: 1,
		})
	})
	return changes, 0
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func normalizePrelude(p string) string {
	i := 0
	for i < len(p) && isSpaceByte(p[i]) {
		i++
	}
	lead, rest := p[:i], p[i:]
	if rest == "" {
		return p
	}

	var sb strings.Builder
	sb.Grow(len(p))
	sb.WriteString(lead)
	pending := false
	flush := func() {
		if pending {
			sb.WriteByte(' ')
			pending = false
		}
	}
	for j := 0; j < len(rest); j++ {
		c := rest[j]
		switch {
		case c == '\\':
			flush()
			sb.WriteByte(c)
			if j+1 < len(rest) {
				j++
				sb.WriteByte(rest[j])
			}
		case c == '"' || c == '\'':
			flush()
			end := j + 1
			for end < len(rest) && rest[end] != c {
				if rest[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(rest) {
				end = len(rest) - 1
			}
			sb.WriteString(rest[j : end+1])
			j = end
		case c == '/' && j+1 < len(rest) && rest[j+1] == '*':
			flush()
			end := j + 2
			for end+1 < len(rest) && !(rest[end] == '*' && rest[end+1] == '/') {
				end++
			}
			if end+1 < len(rest) {
				end++
			}
			sb.WriteString(rest[j : end+1])
			j = end
		case isSpaceByte(c):
			pending = true
		case c == ',':
			pending = false
			sb.WriteByte(',')
			pending = true
		default:
			flush()
			sb.WriteByte(c)
		}
	}
	if pending {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// zeroProps extends the matcher families with length properties the zeros
// pass may also normalize. flex-basis is deliberately absent: 0 and 0%
// resolve differently there.
var zeroProps = map[string]bool{
	"width": true, "height": true,
	"min-width": true, "min-height": true,
	"max-width": true, "max-height": true,
	"top": true, "right": true, "bottom": true, "left": true, "inset": true,
	"border-width": true, "border-spacing": true,
	"text-indent": true, "outline-offset": true,
}

func zeroGated(prop string) bool {
	return spacingProps[prop] || radiusProps[prop] || zeroProps[prop]
}

// zerosPass rewrites zero lengths to the bare zero across the gated
// property families, catching what the matcher's change cap left behind.
func zerosPass(sheet *css.Sheet) ([]Change, int) {
	var changes []Change
	sheet.Walk(func(r *css.Rule) {
		if hasIgnoreMarker(r.Comments()) {
			return
		}
		for _, d := range r.Declarations() {
			if !zeroGated(d.Property) {
				continue
			}
			parts := css.ParseValue(d.Value)
			repl := make(map[int]string)
			for i, pt := range parts {
				if pt.Kind == css.PartDimension && pt.IsZero() && tokens.IsLengthUnit(pt.Unit) {
					repl[i] = "0"
				}
				if pt.Kind == css.PartPercentage && pt.Number == 0 {
					repl[i] = "0"
				}
			}
			if len(repl) == 0 {
				continue
			}
			before := d.Value
			after := css.RebuildValue(parts, repl)
			d.SetValue(after)
			changes = append(changes, Change{
				Kind:       common.ChangeKindOptimization,
				Property:   d.Property,
				Before:     before,
				After:      after,
				Selector:   r.Selector(),
				Line:       d.Line,
				Confidence: 1,
			})
		}
	})
	return changes, 0
}
