package css

import (
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// PartKind classifies a component of a declaration value.
type PartKind int

const (
	PartOther      PartKind = iota // Delimiters, commas, anything uninterpreted
	PartWhitespace                 // Run of whitespace
	PartComment                    // /* ... */
	PartNumber                     // Unitless number
	PartPercentage                 // Number with %
	PartDimension                  // Number with a unit
	PartIdent                      // Bare identifier (keyword or color name)
	PartHash                       // #rgb / #rrggbb / id-like hash
	PartString                     // Quoted string
	PartFunction                   // Function call, full span including arguments
	PartURL                        // url(...) reference
)

// String returns a short tag for debugging output.
func (k PartKind) String() string {
	switch k {
	case PartWhitespace:
		return "ws"
	case PartComment:
		return "comment"
	case PartNumber:
		return "number"
	case PartPercentage:
		return "percentage"
	case PartDimension:
		return "dimension"
	case PartIdent:
		return "ident"
	case PartHash:
		return "hash"
	case PartString:
		return "string"
	case PartFunction:
		return "function"
	case PartURL:
		return "url"
	default:
		return "other"
	}
}

// ValuePart is one component of a declaration value. Concatenating Raw of all
// parts reproduces the value text exactly.
type ValuePart struct {
	Kind   PartKind
	Raw    string  // Exact source text of the part
	Start  int     // Byte offset within the value text
	Number float64 // Numeric component for number/percentage/dimension parts
	Unit   string  // Lower case unit for dimensions, "%" for percentages
	Name   string  // Lower case name for ident/function/url parts
}

// IsZero returns true for a literal zero number or dimension ("0", "0px").
func (p ValuePart) IsZero() bool {
	return (p.Kind == PartNumber || p.Kind == PartDimension) && p.Number == 0
}

// ParseValue tokenizes a declaration value into parts. Function calls are
// collapsed into a single part spanning the whole call, so "rgb(0, 0, 0)" or
// "var(--x, 1px)" come back as one component.
func ParseValue(value string) []ValuePart {
	l := css.NewLexer(parse.NewInput(strings.NewReader(value)))
	var parts []ValuePart
	offset := 0
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return parts
		}
		raw := string(data)
		start := offset
		offset += len(raw)

		switch tt {
		case css.WhitespaceToken:
			parts = append(parts, ValuePart{Kind: PartWhitespace, Raw: raw, Start: start})
		case css.CommentToken:
			parts = append(parts, ValuePart{Kind: PartComment, Raw: raw, Start: start})
		case css.NumberToken:
			n, _ := strconv.ParseFloat(raw, 64)
			parts = append(parts, ValuePart{Kind: PartNumber, Raw: raw, Start: start, Number: n})
		case css.PercentageToken:
			n, _ := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
			parts = append(parts, ValuePart{Kind: PartPercentage, Raw: raw, Start: start, Number: n, Unit: "%"})
		case css.DimensionToken:
			n, unit := splitDimension(raw)
			parts = append(parts, ValuePart{Kind: PartDimension, Raw: raw, Start: start, Number: n, Unit: unit})
		case css.IdentToken:
			parts = append(parts, ValuePart{Kind: PartIdent, Raw: raw, Start: start, Name: strings.ToLower(raw)})
		case css.HashToken:
			parts = append(parts, ValuePart{Kind: PartHash, Raw: raw, Start: start})
		case css.StringToken:
			parts = append(parts, ValuePart{Kind: PartString, Raw: raw, Start: start})
		case css.URLToken:
			parts = append(parts, ValuePart{Kind: PartURL, Raw: raw, Start: start, Name: "url"})
		case css.FunctionToken:
			name := strings.ToLower(strings.TrimSuffix(raw, "("))
			full := raw
			depth := 1
			for depth > 0 {
				tt2, data2 := l.Next()
				if tt2 == css.ErrorToken {
					break
				}
				full += string(data2)
				offset += len(data2)
				switch tt2 {
				case css.FunctionToken, css.LeftParenthesisToken:
					depth++
				case css.RightParenthesisToken:
					depth--
				}
			}
			parts = append(parts, ValuePart{Kind: PartFunction, Raw: full, Start: start, Name: name})
		default:
			parts = append(parts, ValuePart{Kind: PartOther, Raw: raw, Start: start})
		}
	}
}

// RebuildValue reassembles a value from its parts, substituting replacements
// by part index. Untouched parts keep their exact source text.
func RebuildValue(parts []ValuePart, replacements map[int]string) string {
	var sb strings.Builder
	for i, p := range parts {
		if r, ok := replacements[i]; ok {
			sb.WriteString(r)
		} else {
			sb.WriteString(p.Raw)
		}
	}
	return sb.String()
}

// ContainsVar reports whether any part references a CSS variable.
func ContainsVar(parts []ValuePart) bool {
	for _, p := range parts {
		if p.Kind == PartFunction && p.Name == "var" {
			return true
		}
		if p.Kind == PartFunction && strings.Contains(strings.ToLower(p.Raw), "var(") {
			return true
		}
	}
	return false
}

// splitDimension extracts numeric value and unit from a dimension token.
func splitDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}
