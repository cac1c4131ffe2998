package common

import (
	"testing"
)

func TestParseTokenCategory(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  TokenCategory
		shouldErr bool
	}{
		{"color lowercase", "color", TokenCategoryColor, false},
		{"COLOR uppercase", "COLOR", TokenCategoryColor, false},
		{"spacing", "spacing", TokenCategorySpacing, false},
		{"radius", "radius", TokenCategoryRadius, false},
		{"elevation", "elevation", TokenCategoryElevation, false},
		{"invalid", "invalid", TokenCategory(0), true},
		{"empty", "", TokenCategory(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTokenCategory(tt.input)
			if tt.shouldErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if got != tt.expected {
					t.Errorf("ParseTokenCategory(%q) = %v, want %v", tt.input, got, tt.expected)
				}
			}
		})
	}
}

func TestChangeKindString(t *testing.T) {
	tests := []struct {
		kind ChangeKind
		want string
	}{
		{ChangeKindTokenSubstitution, "token-substitution"},
		{ChangeKindHierarchyAddition, "hierarchy-addition"},
		{ChangeKindOptimization, "optimization"},
		{ChangeKind(99), "ChangeKind(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChangeKindMarshalText(t *testing.T) {
	b, err := ChangeKindTokenSubstitution.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(b) != "token-substitution" {
		t.Errorf("MarshalText() = %q, want %q", string(b), "token-substitution")
	}

	var k ChangeKind
	if err := k.UnmarshalText([]byte("optimization")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if k != ChangeKindOptimization {
		t.Errorf("UnmarshalText gave %v, want %v", k, ChangeKindOptimization)
	}
	if err := k.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("Expected error for bogus kind, got nil")
	}
}

func TestMustParseSuppressReason(t *testing.T) {
	t.Run("valid value", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("MustParseSuppressReason panicked unexpectedly: %v", r)
			}
		}()
		got := MustParseSuppressReason("cap-exceeded")
		if got != SuppressReasonCapExceeded {
			t.Errorf("MustParseSuppressReason(\"cap-exceeded\") = %v, want %v", got, SuppressReasonCapExceeded)
		}
	})

	t.Run("invalid value panics", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("MustParseSuppressReason should have panicked")
			}
		}()
		MustParseSuppressReason("invalid")
	})
}

func TestParseAutoApplyMode(t *testing.T) {
	tests := []struct {
		input     string
		expected  AutoApplyMode
		shouldErr bool
	}{
		{"safe", AutoApplyModeSafe, false},
		{"SAFE", AutoApplyModeSafe, false},
		{"off", AutoApplyModeOff, false},
		{"on", AutoApplyMode(0), true},
	}

	for _, tt := range tests {
		got, err := ParseAutoApplyMode(tt.input)
		if tt.shouldErr {
			if err == nil {
				t.Errorf("ParseAutoApplyMode(%q): expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAutoApplyMode(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseAutoApplyMode(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseResolveMode(t *testing.T) {
	tests := []struct {
		input     string
		expected  ResolveMode
		shouldErr bool
	}{
		{"degrade", ResolveModeDegrade, false},
		{"strict", ResolveModeStrict, false},
		{"Strict", ResolveModeStrict, false},
		{"abort", ResolveMode(0), true},
	}

	for _, tt := range tests {
		got, err := ParseResolveMode(tt.input)
		if tt.shouldErr {
			if err == nil {
				t.Errorf("ParseResolveMode(%q): expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseResolveMode(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseResolveMode(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
