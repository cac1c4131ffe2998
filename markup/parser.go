package markup

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parse tokenizes an HTML document into a Document. The tokenizer is
// lenient, so broken markup still round-trips; whatever it cannot make
// sense of stays a verbatim chunk.
func Parse(data []byte) (*Document, error) {
	d := &Document{}
	z := html.NewTokenizer(bytes.NewReader(data))
	line := 1
	pendingStyle := false // the last start tag opened a CSS style element

	flushEmptyStyle := func() {
		if !pendingStyle {
			return
		}
		// <style></style> with no text token, give it an addressable
		// empty chunk anyway
		d.styles = append(d.styles, &StyleBlock{doc: d, chunk: len(d.chunks), line: line})
		d.chunks = append(d.chunks, "")
		pendingStyle = false
	}

	for {
		tt := z.Next()
		raw := string(z.Raw()) // the tokenizer reuses its buffer, copy now

		switch tt {
		case html.ErrorToken:
			if raw != "" {
				// partial token at end of input
				d.chunks = append(d.chunks, raw)
			}
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return d, nil

		case html.TextToken:
			if pendingStyle {
				d.styles = append(d.styles, &StyleBlock{doc: d, chunk: len(d.chunks), line: line})
				pendingStyle = false
			}
			d.chunks = append(d.chunks, raw)

		case html.StartTagToken, html.SelfClosingTagToken:
			flushEmptyStyle()
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if tag == "style" && tt == html.StartTagToken && cssType(raw) {
				pendingStyle = true
			}
			if st := parseInline(d, raw, tag, len(d.chunks), line); st != nil {
				d.inline = append(d.inline, st)
			}
			d.chunks = append(d.chunks, raw)

		case html.EndTagToken:
			flushEmptyStyle()
			d.chunks = append(d.chunks, raw)

		case html.CommentToken:
			d.comments = append(d.comments, strings.TrimSpace(string(z.Text())))
			d.chunks = append(d.chunks, raw)

		default: // doctype
			d.chunks = append(d.chunks, raw)
		}

		line += strings.Count(raw, "\n")
	}
}

// cssType reports whether a raw <style> tag carries CSS: no type
// attribute, an empty one, or text/css.
func cssType(raw string) bool {
	v, ok := findAttr(raw, "type")
	if !ok {
		return true
	}
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "text/css")
}

// parseInline builds the InlineStyle for a start tag, or nil when the tag
// has no style attribute.
func parseInline(d *Document, raw, tag string, chunk, line int) *InlineStyle {
	span, ok := attrValueSpan(raw, "style")
	if !ok {
		return nil
	}

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(tag)
	if id, ok := findAttr(raw, "id"); ok && id != "" {
		sb.WriteByte('#')
		sb.WriteString(id)
	}
	if cls, ok := findAttr(raw, "class"); ok {
		for _, c := range strings.Fields(cls) {
			sb.WriteByte('.')
			sb.WriteString(c)
		}
	}
	sb.WriteByte('>')

	return &InlineStyle{
		doc:    d,
		chunk:  chunk,
		prefix: raw[:span.start],
		suffix: raw[span.end:],
		quote:  span.quote,
		value:  html.UnescapeString(raw[span.start:span.end]),
		sel:    sb.String(),
		line:   line,
	}
}

type attrSpan struct {
	start, end int  // value bytes within the raw tag, quotes excluded
	quote      byte // 0 when unquoted
}

func isHTMLSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// scanAttrs walks the attributes of a raw start tag, calling fn with each
// lower case name and value span. Returning false stops the walk. HTML
// attributes have no escape character, a quoted value simply runs to the
// matching quote.
func scanAttrs(raw string, fn func(name string, span attrSpan) bool) {
	i := 0
	if i < len(raw) && raw[i] == '<' {
		i++
	}
	for i < len(raw) && !isHTMLSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}
	for i < len(raw) {
		for i < len(raw) && (isHTMLSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			return
		}
		ns := i
		for i < len(raw) && !isHTMLSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		name := strings.ToLower(raw[ns:i])
		for i < len(raw) && isHTMLSpace(raw[i]) {
			i++
		}
		span := attrSpan{start: i, end: i}
		if i < len(raw) && raw[i] == '=' {
			i++
			for i < len(raw) && isHTMLSpace(raw[i]) {
				i++
			}
			if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
				span.quote = raw[i]
				i++
				span.start = i
				for i < len(raw) && raw[i] != span.quote {
					i++
				}
				span.end = i
				if i < len(raw) {
					i++
				}
			} else {
				span.start = i
				for i < len(raw) && !isHTMLSpace(raw[i]) && raw[i] != '>' {
					i++
				}
				span.end = i
			}
		}
		if name != "" && !fn(name, span) {
			return
		}
	}
}

func findAttr(raw, name string) (string, bool) {
	val, ok := "", false
	scanAttrs(raw, func(n string, sp attrSpan) bool {
		if n != name {
			return true
		}
		val, ok = html.UnescapeString(raw[sp.start:sp.end]), true
		return false
	})
	return val, ok
}

func attrValueSpan(raw, name string) (attrSpan, bool) {
	var out attrSpan
	found := false
	scanAttrs(raw, func(n string, sp attrSpan) bool {
		if n != name {
			return true
		}
		out, found = sp, true
		return false
	})
	return out, found
}
