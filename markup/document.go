// Package markup provides a byte preserving view of HTML documents,
// limited to what the enhancer needs: addressable <style> blocks and
// style attributes. Everything else is carried through verbatim, so an
// untouched document serializes back byte for byte.
package markup

import (
	"bytes"
	"strings"
)

// Document is a parsed HTML document. It is a flat sequence of byte
// chunks; style blocks and style attributes point at the chunks they may
// replace.
type Document struct {
	chunks   []string
	styles   []*StyleBlock
	inline   []*InlineStyle
	comments []string
}

// Bytes serializes the document. Chunks that were never replaced are the
// original input bytes.
func (d *Document) Bytes() []byte {
	n := 0
	for _, c := range d.chunks {
		n += len(c)
	}
	var buf bytes.Buffer
	buf.Grow(n)
	for _, c := range d.chunks {
		buf.WriteString(c)
	}
	return buf.Bytes()
}

// Styles returns the CSS <style> blocks in document order. Style elements
// with a non-CSS type attribute are not included.
func (d *Document) Styles() []*StyleBlock {
	return d.styles
}

// InlineStyles returns the style attributes in document order.
func (d *Document) InlineStyles() []*InlineStyle {
	return d.inline
}

// Comments returns the bodies of all HTML comments, trimmed.
func (d *Document) Comments() []string {
	return d.comments
}

// StyleBlock is the content of one <style> element.
type StyleBlock struct {
	doc   *Document
	chunk int
	line  int
}

// Content returns the current CSS text of the block.
func (b *StyleBlock) Content() string {
	return b.doc.chunks[b.chunk]
}

// SetContent replaces the CSS text of the block.
func (b *StyleBlock) SetContent(s string) {
	b.doc.chunks[b.chunk] = s
}

// Line returns the 1-based document line where the block content starts.
func (b *StyleBlock) Line() int {
	return b.line
}

// InlineStyle is the style attribute of one element.
type InlineStyle struct {
	doc    *Document
	chunk  int
	prefix string // raw tag bytes before the attribute value
	suffix string // raw tag bytes from the closing quote on
	quote  byte   // '"', '\'' or 0 for an unquoted value
	value  string // current value, entities decoded
	sel    string
	line   int
}

// Value returns the current attribute value with entities decoded.
func (s *InlineStyle) Value() string {
	return s.value
}

// Selector describes the owning element as "<tag#id.class>", usable as a
// synthetic rule prelude when the declaration list is run through the CSS
// pipeline.
func (s *InlineStyle) Selector() string {
	return s.sel
}

// Line returns the 1-based document line where the element tag starts.
func (s *InlineStyle) Line() int {
	return s.line
}

// SetValue replaces the attribute value, re-escaping as needed. An
// originally unquoted value comes back double quoted.
func (s *InlineStyle) SetValue(v string) {
	if v == s.value {
		return
	}
	s.value = v
	if s.quote == 0 {
		s.doc.chunks[s.chunk] = s.prefix + `"` + escapeAttr(v, '"') + `"` + s.suffix
		return
	}
	s.doc.chunks[s.chunk] = s.prefix + escapeAttr(v, s.quote) + s.suffix
}

func escapeAttr(v string, quote byte) string {
	if !strings.ContainsAny(v, "&\"'") {
		return v
	}
	var sb strings.Builder
	sb.Grow(len(v) + 8)
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c == '&':
			sb.WriteString("&amp;")
		case c == quote && quote == '"':
			sb.WriteString("&quot;")
		case c == quote && quote == '\'':
			sb.WriteString("&#39;")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
