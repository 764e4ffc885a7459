package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrParamEmpty is returned when the parameter is absent or whitespace-only.
var ErrParamEmpty = errors.New("parameter is empty")

// ErrParamTooLong is returned when the parameter exceeds the configured maximum length in bytes.
var ErrParamTooLong = errors.New("parameter too long")

// ErrParamInvalidChars is returned when the parameter contains control characters other
// than tab, newline and carriage return.
var ErrParamInvalidChars = errors.New("parameter contains invalid characters")

// ValidateParam trims the raw data parameter and rejects input that cannot be a brief:
// empty, longer than maxLen bytes (0 disables the check), or carrying control characters.
// Returns the trimmed parameter. Whether it decodes is left to the decoder.
func ValidateParam(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrParamEmpty
	}
	if maxLen > 0 && len(s) > maxLen {
		return "", ErrParamTooLong
	}
	for _, c := range s {
		if !isAllowedParamRune(c) {
			return "", ErrParamInvalidChars
		}
	}
	return s, nil
}

// isAllowedParamRune admits everything except control characters; line breaks and tabs
// survive because wrapped Base64 and pretty-printed JSON both carry them.
func isAllowedParamRune(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return true
	}
	return !unicode.IsControl(r)
}
