// Package css implements a lossless CSS object model. A parsed Sheet keeps
// every byte of the input, so an unmodified Sheet serializes back to exactly
// the text it was parsed from. Modifications are surgical: only the value
// span of a touched declaration is replaced, everything around it survives
// verbatim.
package css

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is reported when brace depth does not balance. Callers are
// expected to abort and keep the original input untouched.
var ErrMalformed = errors.New("malformed css")

// SyntaxError describes where brace tracking failed.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("css syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

// Declaration is a single "property: value" entry inside a rule body.
//
// Raw holds the declaration exactly as written, including surrounding
// whitespace, comments and the trailing semicolon when present. Value starts
// out as the exact value span of Raw; SetValue replaces it while the rest of
// Raw survives byte-for-byte.
type Declaration struct {
	Raw       string // Verbatim source text of the declaration
	Property  string // Property name, lower case (custom properties keep case)
	Value     string // Current value text, "!important" excluded
	Important bool   // true when the value carries !important
	Line      int    // 1-based source line of the property name

	valStart int // Value span within Raw
	valEnd   int
	dirty    bool
}

// SetValue replaces the declaration value. The replacement keeps the
// surrounding text (property, colon, !important, semicolon) untouched.
func (d *Declaration) SetValue(v string) {
	if v == d.Value {
		return
	}
	d.Value = v
	d.dirty = true
}

// Modified returns true once SetValue changed the original value.
func (d *Declaration) Modified() bool {
	return d.dirty
}

func (d *Declaration) text() string {
	if !d.dirty {
		return d.Raw
	}
	return d.Raw[:d.valStart] + d.Value + d.Raw[d.valEnd:]
}

// RawText is a verbatim pass-through segment: comments and whitespace between
// rules, statement at-rules like @import or @charset, and anything the parser
// decided not to interpret.
type RawText struct {
	Text string
	Line int
}

// Comments returns the comment bodies contained in the segment.
func (t *RawText) Comments() []string {
	return collectComments(t.Text)
}

// Rule is a braced construct: a style rule, a conditional group like @media,
// or any other at-rule with a block. Prelude is everything before the opening
// brace, verbatim. Tail is trailing body whitespace before the closing brace.
type Rule struct {
	Prelude   string // Verbatim text before "{", selectors or at-rule preamble
	AtKeyword string // Lower case keyword without "@" for at-rules, "" for style rules
	Body      []Node // Declarations, nested rules and raw segments in source order
	Tail      string // Verbatim whitespace between the last body node and "}"
	Line      int    // 1-based source line where the prelude starts
	Depth     int    // Nesting depth, 0 for top-level rules
}

// IsAt returns true for at-rules (@media, @supports, @font-face, ...).
func (r *Rule) IsAt() bool {
	return r.AtKeyword != ""
}

// Selector returns the prelude with comments stripped and whitespace
// collapsed, suitable for reporting.
func (r *Rule) Selector() string {
	return strings.Join(strings.Fields(stripComments(r.Prelude)), " ")
}

// SelectorCount counts the comma separated selectors of a style rule
// prelude. At-rules count zero.
func (r *Rule) SelectorCount() int {
	if r.IsAt() {
		return 0
	}
	return countSelectors(r.Prelude)
}

// BodyString renders the rule body exactly as it appears between the
// braces, byte for byte.
func (r *Rule) BodyString() string {
	var sb strings.Builder
	if _, err := writeNodes(&sb, r.Body); err != nil {
		return ""
	}
	return sb.String()
}

// Declarations returns the rule's direct declarations in source order.
func (r *Rule) Declarations() []*Declaration {
	var decls []*Declaration
	for _, n := range r.Body {
		if n.Decl != nil {
			decls = append(decls, n.Decl)
		}
	}
	return decls
}

// Comments returns comment bodies attached directly to this rule: in the
// prelude, between body declarations and in the tail. Comments of nested
// rules belong to those rules and are not included.
func (r *Rule) Comments() []string {
	out := collectComments(r.Prelude)
	for _, n := range r.Body {
		switch {
		case n.Raw != nil:
			out = append(out, n.Raw.Comments()...)
		case n.Decl != nil:
			out = append(out, collectComments(n.Decl.Raw)...)
		}
	}
	out = append(out, collectComments(r.Tail)...)
	return out
}

func (r *Rule) writeTo(w io.Writer) (int64, error) {
	var total int64
	n, err := io.WriteString(w, r.Prelude)
	total += int64(n)
	if err != nil {
		return total, err
	}
	n, err = io.WriteString(w, "{")
	total += int64(n)
	if err != nil {
		return total, err
	}
	nn, err := writeNodes(w, r.Body)
	total += nn
	if err != nil {
		return total, err
	}
	n, err = io.WriteString(w, r.Tail)
	total += int64(n)
	if err != nil {
		return total, err
	}
	n, err = io.WriteString(w, "}")
	total += int64(n)
	return total, err
}

func (r *Rule) clone() *Rule {
	c := *r
	c.Body = cloneNodes(r.Body)
	return &c
}

// Node is a single item in a sheet or rule body.
// Exactly one of Rule, Decl, or Raw is non-nil.
type Node struct {
	Rule *Rule
	Decl *Declaration
	Raw  *RawText
}

func cloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		switch {
		case n.Rule != nil:
			out[i].Rule = n.Rule.clone()
		case n.Decl != nil:
			d := *n.Decl
			out[i].Decl = &d
		case n.Raw != nil:
			t := *n.Raw
			out[i].Raw = &t
		}
	}
	return out
}

func writeNodes(w io.Writer, nodes []Node) (int64, error) {
	var total int64
	for _, n := range nodes {
		switch {
		case n.Rule != nil:
			nn, err := n.Rule.writeTo(w)
			total += nn
			if err != nil {
				return total, err
			}
		case n.Decl != nil:
			nn, err := io.WriteString(w, n.Decl.text())
			total += int64(nn)
			if err != nil {
				return total, err
			}
		case n.Raw != nil:
			nn, err := io.WriteString(w, n.Raw.Text)
			total += int64(nn)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Sheet is a parsed stylesheet. Nodes hold every top-level construct in
// source order.
type Sheet struct {
	Nodes []Node
}

// WriteTo writes the stylesheet to w, implementing io.WriterTo. Output is
// byte-for-byte identical to the parsed input unless declarations were
// modified or nodes added/removed.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	return writeNodes(w, s.Nodes)
}

// String returns the CSS text of the stylesheet.
func (s *Sheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// Bytes returns the CSS text of the stylesheet.
func (s *Sheet) Bytes() []byte {
	return []byte(s.String())
}

// Clone returns a deep copy, used for rollback snapshots.
func (s *Sheet) Clone() *Sheet {
	return &Sheet{Nodes: cloneNodes(s.Nodes)}
}

// Walk visits every rule in the sheet depth-first in source order, nested
// rules included.
func (s *Sheet) Walk(fn func(*Rule)) {
	walkNodes(s.Nodes, fn)
}

func walkNodes(nodes []Node, fn func(*Rule)) {
	for _, n := range nodes {
		if n.Rule != nil {
			fn(n.Rule)
			walkNodes(n.Rule.Body, fn)
		}
	}
}

// TopComments returns comment bodies that live at the top level of the sheet,
// outside any rule.
func (s *Sheet) TopComments() []string {
	var out []string
	for _, n := range s.Nodes {
		if n.Raw != nil {
			out = append(out, n.Raw.Comments()...)
		}
	}
	return out
}

// SelectorCount counts individual selectors across all style rules, splitting
// grouped preludes on top-level commas. At-rule preambles do not count.
func (s *Sheet) SelectorCount() int {
	count := 0
	s.Walk(func(r *Rule) {
		count += r.SelectorCount()
	})
	return count
}

// MakeDeclaration builds a fresh declaration with the given leading
// whitespace, used when the optimizer replaces or inserts declarations.
func MakeDeclaration(lead, property, value string, important bool) *Declaration {
	prop := property
	if !strings.HasPrefix(prop, "--") {
		prop = strings.ToLower(prop)
	}
	var sb strings.Builder
	sb.WriteString(lead)
	sb.WriteString(prop)
	sb.WriteString(": ")
	valStart := sb.Len()
	sb.WriteString(value)
	valEnd := sb.Len()
	if important {
		sb.WriteString(" !important")
	}
	sb.WriteString(";")
	return &Declaration{
		Raw:       sb.String(),
		Property:  prop,
		Value:     value,
		Important: important,
		valStart:  valStart,
		valEnd:    valEnd,
	}
}

// countSelectors counts comma separated selectors in a prelude, ignoring
// commas inside parentheses, brackets, strings and comments.
func countSelectors(prelude string) int {
	count := 0
	seen := false
	paren := 0
	for i := 0; i < len(prelude); i++ {
		c := prelude[i]
		switch c {
		case '\\':
			i++
			seen = true
		case '"', '\'':
			i = skipString(prelude, i)
			seen = true
		case '/':
			if i+1 < len(prelude) && prelude[i+1] == '*' {
				i = skipComment(prelude, i)
			} else {
				seen = true
			}
		case '(', '[':
			paren++
			seen = true
		case ')', ']':
			if paren > 0 {
				paren--
			}
			seen = true
		case ',':
			if paren == 0 {
				if seen {
					count++
				}
				seen = false
			} else {
				seen = true
			}
		case ' ', '\t', '\n', '\r', '\f':
		default:
			seen = true
		}
	}
	if seen {
		count++
	}
	return count
}

// skipString returns the index of the closing quote (or the char before an
// unescaped newline, per CSS bad-string recovery; or the last index on EOF).
func skipString(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			return i - 1
		}
	}
	return len(s) - 1
}

// skipComment returns the index of the final '/' of a comment starting at
// start (or the last index when the comment is unterminated).
func skipComment(s string, start int) int {
	for i := start + 2; i+1 < len(s); i++ {
		if s[i] == '*' && s[i+1] == '/' {
			return i + 1
		}
	}
	return len(s) - 1
}

// stripComments removes comment spans from s, string content is left alone.
func stripComments(s string) string {
	if !strings.Contains(s, "/*") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			sb.WriteByte(c)
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			}
		case '"', '\'':
			end := skipString(s, i)
			sb.WriteString(s[i : end+1])
			i = end
		case '/':
			if i+1 < len(s) && s[i+1] == '*' {
				i = skipComment(s, i)
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// collectComments extracts comment bodies (text between markers, trimmed)
// from s, skipping string content.
func collectComments(s string) []string {
	if !strings.Contains(s, "/*") {
		return nil
	}
	var out []string
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"', '\'':
			i = skipString(s, i)
		case '/':
			if i+1 < len(s) && s[i+1] == '*' {
				end := skipComment(s, i)
				var body string
				if end >= i+3 && s[end] == '/' && s[end-1] == '*' {
					body = s[i+2 : end-1]
				} else {
					body = s[i+2:] // unterminated comment runs to the end
					end = len(s) - 1
				}
				out = append(out, strings.TrimSpace(body))
				i = end
			}
		}
	}
	return out
}
