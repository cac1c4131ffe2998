// Package enhance rewrites literal style values into design token
// references. The pipeline is matcher -> guard -> optimizer: the matcher
// proposes substitutions against a token table, the guard enforces the
// per-file safety rails (change cap, ignore markers, contrast), and the
// optimizer optionally cleans up the result under structural validation.
package enhance

import (
	"brandcss/common"
	"brandcss/css"
	"brandcss/tokens"
)

// Change is one rewrite proposed for a source file. Once recorded in a
// result it is immutable.
type Change struct {
	Kind       common.ChangeKind `json:"kind"`
	Property   string            `json:"property,omitempty"`
	Before     string            `json:"before"`
	After      string            `json:"after"`
	Selector   string            `json:"selector"`
	Line       int               `json:"line"`
	Confidence float64           `json:"confidence"`

	// SuggestionOnly changes are reported but never touch the output code.
	SuggestionOnly bool `json:"suggestion_only,omitempty"`
}

// Rejection is a proposed change the guard refused, with the reason.
// Suppressed changes are ordinary data, not errors.
type Rejection struct {
	Change Change                `json:"change"`
	Reason common.SuppressReason `json:"reason"`
}

// Result is the outcome of enhancing one file.
type Result struct {
	Code       string      `json:"code"`
	Changes    []Change    `json:"changes"`
	Suppressed []Rejection `json:"suppressed,omitempty"`

	// Degraded is set when no token table was available and the input
	// passed through untouched.
	Degraded bool `json:"degraded,omitempty"`

	// CacheHit and Signature are filled by EnhanceCached.
	CacheHit  bool   `json:"cache_hit,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Applied counts the changes that actually modified the output code.
func (r *Result) Applied() int {
	n := 0
	for _, c := range r.Changes {
		if !c.SuggestionOnly {
			n++
		}
	}
	return n
}

// Request carries one cached enhancement call. Every field except Table
// participates in the cache signature.
type Request struct {
	Code           string
	FilePath       string
	Table          *tokens.Table
	BrandPackID    string
	BrandVersion   string
	RulesetVersion string
	Overrides      map[string]string
	ComponentType  string
	EnvFlags       []string
}

// candidate pairs a proposed change with the declaration it rewrites, so
// accepted rewrites can be applied surgically after guard filtering.
// Advisory candidates (and hierarchy additions, which have no declaration)
// carry decl == nil or SuggestionOnly and are never applied.
type candidate struct {
	change Change
	decl   *css.Declaration
	value  string // replacement for the whole declaration value

	// rule the declaration belongs to, nil for hierarchy additions
	rule *css.Rule
	// parsed color a substitution writes in, for contrast checking
	color    tokens.Color
	hasColor bool
	// enclosing scope carries the ignore marker
	ignored bool
}
