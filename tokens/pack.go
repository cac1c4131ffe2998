// Package tokens loads brand design token packs and builds the lookup tables
// the enhancement pipeline matches literal style values against.
package tokens

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"brandcss/common"
)

// Pack is the on-disk YAML shape of a brand pack. Token groups nest
// arbitrarily deep; a leaf is either a scalar or a map carrying a "value"
// key (extra keys like "comment" are allowed and ignored).
type Pack struct {
	Brand   string         `yaml:"brand"`
	Version string         `yaml:"version"`
	Tokens  map[string]any `yaml:"tokens"`
}

// LoadPack decodes a brand pack, rejecting unknown top-level fields.
func LoadPack(data []byte) (*Pack, error) {
	var pack Pack
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pack); err != nil {
		return nil, fmt.Errorf("unable to decode brand pack: %w", err)
	}
	if pack.Brand == "" {
		return nil, fmt.Errorf("brand pack has no brand name")
	}
	return &pack, nil
}

// groupCategories maps top-level group names (and their common aliases) to
// token categories. Roles are always recorded under the canonical name, so
// "space.md" and "spacing.md" name the same role.
var groupCategories = map[string]common.TokenCategory{
	"color":     common.TokenCategoryColor,
	"colors":    common.TokenCategoryColor,
	"spacing":   common.TokenCategorySpacing,
	"space":     common.TokenCategorySpacing,
	"radius":    common.TokenCategoryRadius,
	"radii":     common.TokenCategoryRadius,
	"elevation": common.TokenCategoryElevation,
	"shadow":    common.TokenCategoryElevation,
	"shadows":   common.TokenCategoryElevation,
}

// BuildTable flattens a pack into an indexed table, canonicalizing rem
// lengths against rootPx (DefaultRootFontSize when <= 0). Unknown groups and
// unparsable leaf values are logged and skipped; duplicate roles are an
// error because silently losing a token invites wrong substitutions.
func BuildTable(pack *Pack, rootPx float64, log *zap.Logger) (*Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("tokens")

	var toks []*Token
	for _, group := range sortedKeys(pack.Tokens) {
		cat, ok := groupCategories[strings.ToLower(group)]
		if !ok {
			log.Warn("Unknown token group, skipping", zap.String("group", group))
			continue
		}
		var err error
		toks, err = flattenGroup(toks, cat, cat.String(), pack.Tokens[group], log)
		if err != nil {
			return nil, err
		}
	}

	log.Debug("Brand pack flattened",
		zap.String("brand", pack.Brand), zap.String("version", pack.Version), zap.Int("tokens", len(toks)))
	return newTable(pack.Brand, pack.Version, rootPx, toks, log), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func flattenGroup(toks []*Token, cat common.TokenCategory, role string, v any, log *zap.Logger) ([]*Token, error) {
	switch vv := v.(type) {
	case map[string]any:
		if val, ok := vv["value"]; ok {
			return appendLeaf(toks, cat, role, val, log)
		}
		for _, k := range sortedKeys(vv) {
			var err error
			toks, err = flattenGroup(toks, cat, role+"."+k, vv[k], log)
			if err != nil {
				return nil, err
			}
		}
		return toks, nil
	default:
		return appendLeaf(toks, cat, role, v, log)
	}
}

func appendLeaf(toks []*Token, cat common.TokenCategory, rawRole string, v any, log *zap.Logger) ([]*Token, error) {
	role, err := common.NormalizeRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("token %q: %w", rawRole, err)
	}
	for _, t := range toks {
		if t.Role == role {
			return nil, fmt.Errorf("duplicate token role %q", role)
		}
	}

	var value string
	switch s := v.(type) {
	case string:
		value = strings.TrimSpace(s)
	case int, int64, uint64, float64, bool:
		value = fmt.Sprintf("%v", s)
	default:
		return nil, fmt.Errorf("token %q: unsupported value of type %T", role, v)
	}
	if value == "" {
		return nil, fmt.Errorf("token %q has an empty value", role)
	}

	tok := &Token{
		Role:     role,
		Category: cat,
		Value:    value,
		Var:      varName(role),
	}

	switch cat {
	case common.TokenCategoryColor:
		c, ok := ParseColor(value)
		if !ok {
			log.Warn("Unparsable color token, skipping", zap.String("role", role), zap.String("value", value))
			return toks, nil
		}
		tok.color = c
		tok.hasColor = true
	case common.TokenCategorySpacing, common.TokenCategoryRadius:
		l, ok := ParseLength(value)
		if !ok {
			log.Warn("Unparsable length token, skipping", zap.String("role", role), zap.String("value", value))
			return toks, nil
		}
		tok.length = l
	case common.TokenCategoryElevation:
		tok.literal = NormalizeLiteral(value)
	}

	return append(toks, tok), nil
}

// DefaultRootFontSize is the rem to px conversion base used when no override
// is configured.
const DefaultRootFontSize = 16.0

// varName derives the CSS custom property name for a role path:
// "spacing.md" becomes "--spacing-md".
func varName(role string) string {
	segs := strings.Split(role, ".")
	for i, s := range segs {
		segs[i] = slug.Make(s)
	}
	return "--" + strings.Join(segs, "-")
}
