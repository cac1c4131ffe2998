package css_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"brandcss/css"
)

func parse(t *testing.T, src string) *css.Sheet {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return sheet
}

// styleRules collects style rules depth-first, at-rules excluded.
func styleRules(sheet *css.Sheet) []*css.Rule {
	var rules []*css.Rule
	sheet.Walk(func(r *css.Rule) {
		if !r.IsAt() {
			rules = append(rules, r)
		}
	})
	return rules
}

func TestParser_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"simple", "a{color:red}"},
		{"formatted", ".btn {\n  padding: 16px;\n  color: #333;\n}\n"},
		{"grouped selectors", "h1, h2,\nh3 { margin: 0 }\n"},
		{"media query", "@media (min-width: 600px) {\n  .x { padding: 16px; }\n}\n"},
		{"nested media", "@media screen {\n  @media (orientation: landscape) {\n    .y { margin: 8px }\n  }\n}"},
		{"import and charset", "@charset \"utf-8\";\n@import url(\"base.css\");\n.z{a:b}"},
		{"comments everywhere", "/* head */\n.a /* mid */ { color: red; /* tail */ }\n/* foot */"},
		{"custom property object", ":root { --theme: { nested: 1; deep: { more: 2 } }; color: blue; }"},
		{"data url semicolon", ".x { background: url(data:image/png;base64,iVBORw0KGgo=); }"},
		{"braces in string", ".x::before { content: \"}{\"; }"},
		{"important", ".x { color: #333 !important; }"},
		{"missing last semicolon", ".x { margin: 0; padding: 4px }"},
		{"font-face", "@font-face {\n  font-family: \"Brand Sans\";\n  src: url(brand.woff2);\n}"},
		{"keyframes", "@keyframes spin { from { transform: rotate(0) } to { transform: rotate(360deg) } }"},
		{"minified", ".a{x:1}.b{y:2}.c{z:3}"},
		{"windows newlines", ".a {\r\n  color: red;\r\n}\r\n"},
		{"trailing garbage", ".a{x:1}\n.unfinished"},
		{"empty", ""},
		{"whitespace only", "\n\n\t  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.src)
			if got := sheet.String(); got != tt.src {
				t.Errorf("round trip mismatch:\n got: %q\nwant: %q", got, tt.src)
			}
		})
	}
}

func TestParser_Malformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed rule", ".x { color: red;"},
		{"unclosed nested", "@media screen { .x { color: red; }"},
		{"stray close", ".x { color: red; } }"},
		{"close before open", "} .x { color: red; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := css.NewParser(nil).Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("expected error for unbalanced braces, got nil")
			}
			if !errors.Is(err, css.ErrMalformed) {
				t.Errorf("error %v does not wrap ErrMalformed", err)
			}
			var serr *css.SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if serr.Line < 1 {
				t.Errorf("syntax error line = %d, want >= 1", serr.Line)
			}
		})
	}
}

func TestParser_Declarations(t *testing.T) {
	sheet := parse(t, ".btn {\n  Padding: 16px;\n  COLOR: #333 !important;\n  --Custom-Prop: 1px\n}")

	rules := styleRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	decls := rules[0].Declarations()
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(decls))
	}

	if decls[0].Property != "padding" {
		t.Errorf("property not lowercased: %q", decls[0].Property)
	}
	if decls[0].Value != "16px" {
		t.Errorf("value = %q, want 16px", decls[0].Value)
	}
	if decls[0].Line != 2 {
		t.Errorf("line = %d, want 2", decls[0].Line)
	}

	if !decls[1].Important {
		t.Error("expected !important to be detected")
	}
	if decls[1].Value != "#333" {
		t.Errorf("important value = %q, want #333", decls[1].Value)
	}

	if decls[2].Property != "--Custom-Prop" {
		t.Errorf("custom property case not preserved: %q", decls[2].Property)
	}
}

func TestParser_SetValueSurgical(t *testing.T) {
	src := ".btn {\n  padding: 16px; /* keep me */\n  color: #333 !important;\n}\n"
	sheet := parse(t, src)

	decls := styleRules(sheet)[0].Declarations()
	decls[0].SetValue("var(--spacing-md)")
	decls[1].SetValue("var(--color-ink)")

	want := ".btn {\n  padding: var(--spacing-md); /* keep me */\n  color: var(--color-ink) !important;\n}\n"
	if got := sheet.String(); got != want {
		t.Errorf("surgical rewrite mismatch:\n got: %q\nwant: %q", got, want)
	}
	if !decls[0].Modified() {
		t.Error("declaration not marked modified")
	}
}

func TestParser_SelectorCount(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"single", "a{x:1}", 1},
		{"grouped", "a, b, c {x:1}", 3},
		{"is pseudo commas ignored", ":is(.a, .b) {x:1}", 1},
		{"attribute commas ignored", "a[title=\"x,y\"] {x:1}", 1},
		{"nested counted", "@media screen { a {x:1} b, c {y:2} }", 3},
		{"at rules not counted", "@font-face { font-family: x; }", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.src)
			if got := sheet.SelectorCount(); got != tt.want {
				t.Errorf("SelectorCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParser_Comments(t *testing.T) {
	src := "/* agentic:ignore */\n.x { color: red; /* inner note */ }\n.y /* sel note */ { a: b }\n"
	sheet := parse(t, src)

	top := sheet.TopComments()
	if len(top) != 1 || top[0] != "agentic:ignore" {
		t.Errorf("TopComments() = %v, want [agentic:ignore]", top)
	}

	rules := styleRules(sheet)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if got := rules[0].Comments(); len(got) != 1 || got[0] != "inner note" {
		t.Errorf("rule 0 Comments() = %v, want [inner note]", got)
	}
	if got := rules[1].Comments(); len(got) != 1 || got[0] != "sel note" {
		t.Errorf("rule 1 Comments() = %v, want [sel note]", got)
	}
}

func TestParser_NestedDepth(t *testing.T) {
	sheet := parse(t, "@media screen { .x { color: red } }")

	var media, style *css.Rule
	sheet.Walk(func(r *css.Rule) {
		if r.IsAt() {
			media = r
		} else {
			style = r
		}
	})

	if media == nil || media.AtKeyword != "media" {
		t.Fatalf("expected @media rule, got %+v", media)
	}
	if media.Depth != 0 {
		t.Errorf("media depth = %d, want 0", media.Depth)
	}
	if style == nil || style.Depth != 1 {
		t.Fatalf("expected nested style rule at depth 1, got %+v", style)
	}
	if got := style.Selector(); got != ".x" {
		t.Errorf("Selector() = %q, want .x", got)
	}
}

func TestParser_StatementAtRules(t *testing.T) {
	sheet := parse(t, "@import url(\"a.css\");\n@namespace svg url(http://www.w3.org/2000/svg);\n.x{a:b}")

	raw := 0
	for _, n := range sheet.Nodes {
		if n.Raw != nil && strings.Contains(n.Raw.Text, "@") {
			raw++
		}
	}
	if raw != 2 {
		t.Errorf("expected 2 statement at-rules as raw nodes, got %d", raw)
	}
}

func TestParser_CloneIsolation(t *testing.T) {
	sheet := parse(t, ".x { padding: 16px; }")
	snapshot := sheet.Clone()

	styleRules(sheet)[0].Declarations()[0].SetValue("var(--spacing-md)")

	if snapshot.String() != ".x { padding: 16px; }" {
		t.Error("clone was affected by mutation of the original")
	}
	if sheet.String() == snapshot.String() {
		t.Error("original was not mutated")
	}
}

func TestMakeDeclaration(t *testing.T) {
	d := css.MakeDeclaration("\n  ", "Margin", "var(--spacing-sm)", false)
	if d.Raw != "\n  margin: var(--spacing-sm);" {
		t.Errorf("Raw = %q", d.Raw)
	}
	if d.Property != "margin" || d.Value != "var(--spacing-sm)" {
		t.Errorf("parsed fields wrong: %q %q", d.Property, d.Value)
	}

	di := css.MakeDeclaration("", "color", "var(--color-ink)", true)
	if di.Raw != "color: var(--color-ink) !important;" {
		t.Errorf("important Raw = %q", di.Raw)
	}

	// A made declaration must survive value replacement like a parsed one.
	d.SetValue("0")
	want := "\n  margin: 0;"
	var sb strings.Builder
	sheet := &css.Sheet{Nodes: []css.Node{{Decl: d}}}
	sheet.WriteTo(&sb) //nolint:errcheck
	if sb.String() != want {
		t.Errorf("serialized = %q, want %q", sb.String(), want)
	}
}
