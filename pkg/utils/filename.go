package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFilenameBytes = 120

// SanitizeFilename keeps letters, digits, '-', '_', '.' and spaces, trims
// leading dots and surrounding spaces, and caps the length. The result is
// always a single, non-empty path component.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-', r == '_', r == '.', r == ' ':
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	out = strings.TrimLeft(out, ". ")
	out = strings.Join(strings.Fields(out), " ")

	for len(out) > maxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	out = strings.TrimRight(out, ". ")

	if out == "" {
		return "video"
	}
	return out
}
