package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxQueryLength caps the number of runes kept from a user query.
const MaxQueryLength = 500

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeQuery trims a user query, drops control characters, collapses
// whitespace runs and limits its length.
func SanitizeQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, query)
	cleaned = strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
	if runes := []rune(cleaned); len(runes) > MaxQueryLength {
		cleaned = strings.TrimSpace(string(runes[:MaxQueryLength]))
	}
	return cleaned
}

// GenerateRequestID creates a unique request identifier using UUID v4.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ValidRequestID reports whether id is a well formed UUID, so callers can
// decide whether to trust an inbound X-Request-ID header.
func ValidRequestID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
