package common

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeRole normalizes and validates a design token role path.
//
// Roles are dot separated paths into the brand pack, for example
// "color.primary" or "spacing.md". Comparison is always case insensitive so
// roles are folded to lower case here, once.
func NormalizeRole(in string) (string, error) {
	s := strings.TrimSpace(in)
	if s == "" {
		return "", nil
	}

	// Be forgiving about stray whitespace around separators.
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		default:
			return unicode.ToLower(r)
		}
	}, s)

	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return "", fmt.Errorf("role %q has an empty path segment", in)
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			isDigit := c >= '0' && c <= '9'
			isLower := c >= 'a' && c <= 'z'
			if !isDigit && !isLower && c != '-' && c != '_' {
				return "", fmt.Errorf("role segment must be alphanumeric a-z0-9 with - or _, got %q", c)
			}
		}
	}

	return s, nil
}
