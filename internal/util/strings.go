package util

import (
	"strings"
	"unicode"
)

// NormalizeKey lowercases s, trims surrounding whitespace, and collapses
// internal runs of whitespace to a single space. Used for matching keys
// (ingredient names, dedupe keys), never for display.
func NormalizeKey(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
