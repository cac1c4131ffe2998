package common

import (
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		shouldErr bool
	}{
		{"empty", "", "", false},
		{"simple", "color.primary", "color.primary", false},
		{"upper folded", "Color.Primary", "color.primary", false},
		{"surrounding space", "  spacing.md  ", "spacing.md", false},
		{"inner space dropped", "spacing . md", "spacing.md", false},
		{"hyphen and underscore", "color.text-muted_2", "color.text-muted_2", false},
		{"deep path", "elevation.card.hover", "elevation.card.hover", false},
		{"empty segment", "color..primary", "", true},
		{"trailing dot", "color.", "", true},
		{"bad rune", "color.prim@ry", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRole(tt.input)
			if tt.shouldErr {
				if err == nil {
					t.Errorf("NormalizeRole(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Errorf("NormalizeRole(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeRole(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
