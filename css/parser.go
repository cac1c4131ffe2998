package css

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into a lossless Sheet.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Sheet.
// The optional source parameter identifies what's being parsed (for debug logging).
//
// Brace depth is tracked character by character, with strings, comments and
// escapes honored, so rules spanning multiple lines and nested blocks are
// bounded correctly. The only hard failure is brace imbalance, reported as a
// SyntaxError wrapping ErrMalformed. Anything else the parser does not
// understand is carried through verbatim as raw segments.
func (p *Parser) Parse(data []byte, source ...string) (*Sheet, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	s := &scanner{data: string(data), line: 1}
	nodes, _, err := s.parseNodes(false, 0)
	if err != nil {
		p.log.Debug("CSS parse error", zap.Error(err))
		return nil, err
	}
	return &Sheet{Nodes: nodes}, nil
}

type scanner struct {
	data      string
	pos       int
	line      int
	lineStart int
}

// parseNodes scans a rule list (top level) or a rule body until EOF or the
// matching closing brace. For bodies the closing brace is consumed and the
// blank run before it is returned as tail.
func (s *scanner) parseNodes(inBody bool, depth int) ([]Node, string, error) {
	var nodes []Node

	pendStart := s.pos
	pendLine := s.line
	paren := 0

	reset := func() {
		pendStart = s.pos
		pendLine = s.line
	}

	for s.pos < len(s.data) {
		switch c := s.data[s.pos]; c {
		case '\n':
			s.pos++
			s.line++
			s.lineStart = s.pos
		case '\\':
			s.skipEscape()
		case '"', '\'':
			s.skipString()
		case '/':
			if s.peek(1) != '*' {
				s.pos++
				continue
			}
			blankBefore := isBlank(s.data[pendStart:s.pos])
			s.skipComment()
			if !inBody && blankBefore {
				// Standalone comment outside any rule: keep it as its own
				// node so stylesheet scoped markers are addressable.
				nodes = append(nodes, Node{Raw: &RawText{Text: s.data[pendStart:s.pos], Line: pendLine}})
				reset()
			}
		case '(':
			paren++
			s.pos++
		case ')':
			if paren > 0 {
				paren--
			}
			s.pos++
		case ';':
			if paren > 0 {
				s.pos++
				continue
			}
			s.pos++
			seg := s.data[pendStart:s.pos]
			if inBody {
				if d := parseDeclaration(seg, pendLine); d != nil {
					nodes = append(nodes, Node{Decl: d})
				} else {
					nodes = append(nodes, Node{Raw: &RawText{Text: seg, Line: pendLine}})
				}
			} else {
				// Statement at-rule (@import, @charset, ...) or stray content,
				// passed through verbatim either way.
				nodes = append(nodes, Node{Raw: &RawText{Text: seg, Line: pendLine}})
			}
			reset()
		case '{':
			if inBody && isCustomPropStart(s.data[pendStart:s.pos]) {
				// Brace belongs to a custom property value, swallow the
				// balanced block and keep the declaration going.
				s.skipValueBlock()
				continue
			}
			prelude := s.data[pendStart:s.pos]
			ruleLine := pendLine
			s.pos++
			body, tail, err := s.parseNodes(true, depth+1)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, Node{Rule: &Rule{
				Prelude:   prelude,
				AtKeyword: atKeyword(prelude),
				Body:      body,
				Tail:      tail,
				Line:      ruleLine,
				Depth:     depth,
			}})
			paren = 0
			reset()
		case '}':
			if !inBody {
				return nil, "", s.errorf("unbalanced braces, unexpected '}'")
			}
			seg := s.data[pendStart:s.pos]
			s.pos++
			tail := ""
			switch {
			case isBlank(seg):
				tail = seg
			default:
				// Final declaration without a semicolon, or leftover content.
				if d := parseDeclaration(seg, pendLine); d != nil {
					nodes = append(nodes, Node{Decl: d})
				} else {
					nodes = append(nodes, Node{Raw: &RawText{Text: seg, Line: pendLine}})
				}
			}
			return nodes, tail, nil
		default:
			s.pos++
		}
	}

	if inBody {
		return nil, "", s.errorf("unbalanced braces, %d block(s) left open at end of input", depth)
	}
	if s.pos > pendStart {
		nodes = append(nodes, Node{Raw: &RawText{Text: s.data[pendStart:], Line: pendLine}})
	}
	return nodes, "", nil
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.data) {
		return s.data[s.pos+n]
	}
	return 0
}

// skipEscape consumes a backslash and the escaped character.
func (s *scanner) skipEscape() {
	s.pos++
	if s.pos < len(s.data) {
		if s.data[s.pos] == '\n' {
			s.line++
			s.lineStart = s.pos + 1
		}
		s.pos++
	}
}

// skipString consumes a quoted string. Per CSS bad-string recovery an
// unescaped newline terminates the string; the newline itself is left for the
// main loop.
func (s *scanner) skipString() {
	quote := s.data[s.pos]
	s.pos++
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '\\':
			s.skipEscape()
		case quote:
			s.pos++
			return
		case '\n':
			return
		default:
			s.pos++
		}
	}
}

// skipComment consumes a comment. An unterminated comment runs to the end of
// input.
func (s *scanner) skipComment() {
	s.pos += 2
	for s.pos < len(s.data) {
		if s.data[s.pos] == '*' && s.peek(1) == '/' {
			s.pos += 2
			return
		}
		if s.data[s.pos] == '\n' {
			s.line++
			s.lineStart = s.pos + 1
		}
		s.pos++
	}
}

// skipValueBlock consumes a balanced brace block, strings and comments
// honored. Entered with the scanner at the opening brace.
func (s *scanner) skipValueBlock() {
	depth := 0
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '\\':
			s.skipEscape()
		case '"', '\'':
			s.skipString()
		case '/':
			if s.peek(1) == '*' {
				s.skipComment()
			} else {
				s.pos++
			}
		case '\n':
			s.pos++
			s.line++
			s.lineStart = s.pos
		case '{':
			depth++
			s.pos++
		case '}':
			depth--
			s.pos++
			if depth == 0 {
				return
			}
		default:
			s.pos++
		}
	}
}

func (s *scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Line: s.line, Col: s.pos - s.lineStart + 1, Msg: fmt.Sprintf(format, args...)}
}

func isBlank(seg string) bool {
	return strings.TrimSpace(seg) == ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// isCustomPropStart reports whether the pending segment opens a custom
// property declaration ("--name:"), in which case a following brace starts an
// object-like value rather than a nested rule.
func isCustomPropStart(seg string) bool {
	t := strings.TrimSpace(stripComments(seg))
	return strings.HasPrefix(t, "--") && strings.Contains(t, ":")
}

// atKeyword extracts the lower case at-rule keyword from a prelude, or ""
// when the prelude opens a style rule.
func atKeyword(prelude string) string {
	t := strings.TrimSpace(stripComments(prelude))
	if !strings.HasPrefix(t, "@") {
		return ""
	}
	end := 1
	for end < len(t) {
		c := t[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			end++
			continue
		}
		break
	}
	return strings.ToLower(t[1:end])
}

// parseDeclaration interprets a verbatim body segment as a declaration.
// Returns nil when the segment does not look like "property: value", in which
// case the caller passes it through as raw text.
func parseDeclaration(raw string, startLine int) *Declaration {
	colon := -1
scan:
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case '"', '\'':
			i = skipString(raw, i)
		case '/':
			if i+1 < len(raw) && raw[i+1] == '*' {
				i = skipComment(raw, i)
			}
		case ':':
			colon = i
			break scan
		}
	}
	if colon <= 0 {
		return nil
	}

	prop := strings.TrimSpace(stripComments(raw[:colon]))
	if prop == "" || strings.ContainsAny(prop, " \t\n\r\f") {
		return nil
	}
	if !strings.HasPrefix(prop, "--") {
		prop = strings.ToLower(prop)
	}

	propStart := 0
	for propStart < colon {
		c := raw[propStart]
		if isSpace(c) {
			propStart++
			continue
		}
		if c == '/' && propStart+1 < colon && raw[propStart+1] == '*' {
			propStart = skipComment(raw, propStart) + 1
			continue
		}
		break
	}
	line := startLine + strings.Count(raw[:propStart], "\n")

	vs := colon + 1
	for vs < len(raw) && isSpace(raw[vs]) {
		vs++
	}
	ve := len(raw)
	if ve > vs && raw[ve-1] == ';' {
		ve--
	}
	for ve > vs && isSpace(raw[ve-1]) {
		ve--
	}

	important := false
	if val := raw[vs:ve]; val != "" {
		if idx := strings.LastIndexByte(val, '!'); idx >= 0 {
			if strings.EqualFold(strings.TrimSpace(val[idx+1:]), "important") {
				important = true
				cut := strings.TrimRight(val[:idx], " \t\n\r\f")
				ve = vs + len(cut)
			}
		}
	}

	return &Declaration{
		Raw:       raw,
		Property:  prop,
		Value:     raw[vs:ve],
		Important: important,
		Line:      line,
		valStart:  vs,
		valEnd:    ve,
	}
}
