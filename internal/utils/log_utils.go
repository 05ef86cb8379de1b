// Package utils holds small helpers shared across the service
package utils

import (
	"strings"
	"unicode"
)

// MaxLogStringLength caps user-provided strings (meeting titles,
// display names) before they reach a log field
const MaxLogStringLength = 128

// SanitizeLogString makes a user-controlled string safe for logging:
// it truncates oversized input and flattens control characters so log
// lines cannot be forged or broken by crafted titles.
func SanitizeLogString(input string) string {
	if input == "" {
		return ""
	}

	if len(input) > MaxLogStringLength {
		input = input[:MaxLogStringLength] + "... (truncated)"
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
}
