package enhance

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"brandcss/common"
	"brandcss/css"
	"brandcss/tokens"
)

// Guard enforces the per-file safety rails over matcher proposals.
type Guard struct {
	policy Policy
	log    *zap.Logger
}

func NewGuard(policy Policy, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{policy: policy.normalize(), log: log.Named("guard")}
}

// Filter applies the rails in order: path exclusion, ignore markers,
// one change per (selector, property), contrast preservation, auto-apply
// mode, change cap. Accepted candidates come back in source order;
// everything else is returned as a rejection with its reason.
func (g *Guard) Filter(path string, cands []*candidate) ([]*candidate, []Rejection) {
	if len(cands) == 0 {
		return nil, nil
	}

	var rejected []Rejection
	reject := func(c *candidate, r common.SuppressReason) {
		rejected = append(rejected, Rejection{Change: c.change, Reason: r})
	}

	excluded := g.policy.Excluded(path)

	kept := make([]*candidate, 0, len(cands))
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		switch {
		case excluded:
			reject(c, common.SuppressReasonExcludedPath)
		case c.ignored:
			reject(c, common.SuppressReasonIgnoredScope)
		default:
			key := strings.Join(strings.Fields(c.change.Selector), " ") + "\x00" + c.change.Property
			if seen[key] {
				reject(c, common.SuppressReasonDuplicate)
				continue
			}
			seen[key] = true
			kept = append(kept, c)
		}
	}

	kept = g.contrast(kept, reject)

	for _, c := range kept {
		if !g.policy.automatic(c.change) {
			c.change.SuggestionOnly = true
		}
	}

	// cap keeps the highest-confidence changes, source order breaking ties
	if g.policy.MaxChanges > 0 && len(kept) > g.policy.MaxChanges {
		idx := make([]int, len(kept))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return kept[idx[a]].change.Confidence > kept[idx[b]].change.Confidence
		})
		drop := make(map[int]bool, len(kept)-g.policy.MaxChanges)
		for _, i := range idx[g.policy.MaxChanges:] {
			drop[i] = true
		}
		pruned := kept[:0]
		for i, c := range kept {
			if drop[i] {
				reject(c, common.SuppressReasonCapExceeded)
			} else {
				pruned = append(pruned, c)
			}
		}
		kept = pruned
	}

	if len(rejected) > 0 {
		g.log.Debug("Guard filtered proposals",
			zap.String("path", path),
			zap.Int("accepted", len(kept)),
			zap.Int("rejected", len(rejected)))
	}
	return kept, rejected
}

const (
	sideNone = iota
	sideFg
	sideBg
)

// colorSide classifies a property for the contrast rail.
func colorSide(property string) int {
	switch property {
	case "color":
		return sideFg
	case "background-color", "background":
		return sideBg
	}
	return sideNone
}

// declColor extracts the first parseable color component of a declaration.
func declColor(d *css.Declaration) (tokens.Color, bool) {
	for _, pt := range css.ParseValue(d.Value) {
		switch pt.Kind {
		case css.PartHash, css.PartIdent:
		case css.PartFunction:
			if !colorFuncs[pt.Name] {
				continue
			}
		default:
			continue
		}
		if col, ok := tokens.ParseColor(pt.Raw); ok {
			return col, true
		}
	}
	return tokens.Color{}, false
}

type rulePair struct {
	lit  [3]*tokens.Color // declared literal per side, cascade order
	cand [3]*candidate    // surviving substitution per side
}

// contrast rejects any color substitution on a foreground/background pair
// whose resulting ratio fails the policy floor. Candidates are evaluated
// sequentially, so when one side is rejected later checks fall back to its
// literal value. Pairs with a transparent or invisible side are skipped:
// without the backdrop there is nothing sound to compute.
func (g *Guard) contrast(kept []*candidate, reject func(*candidate, common.SuppressReason)) []*candidate {
	pairs := make(map[*css.Rule]*rulePair)
	out := kept[:0]
	for _, c := range kept {
		side := sideNone
		if c.hasColor && c.rule != nil && c.color.Opaque() {
			side = colorSide(c.change.Property)
		}
		if side == sideNone {
			out = append(out, c)
			continue
		}

		p := pairs[c.rule]
		if p == nil {
			p = &rulePair{}
			for _, d := range c.rule.Declarations() {
				ds := colorSide(d.Property)
				if ds == sideNone {
					continue
				}
				if col, ok := declColor(d); ok {
					cc := col
					p.lit[ds] = &cc
				}
			}
			pairs[c.rule] = p
		}

		other := sideFg
		if side == sideFg {
			other = sideBg
		}
		var counter *tokens.Color
		if oc := p.cand[other]; oc != nil {
			counter = &oc.color
		} else {
			counter = p.lit[other]
		}
		if counter != nil && counter.Opaque() {
			if ratio := tokens.Contrast(c.color, *counter); ratio < g.policy.MinContrast {
				g.log.Debug("Contrast below floor, change rejected",
					zap.String("selector", c.change.Selector),
					zap.String("property", c.change.Property),
					zap.Float64("ratio", ratio))
				reject(c, common.SuppressReasonContrastViolation)
				continue
			}
		}
		p.cand[side] = c
		out = append(out, c)
	}
	return out
}
