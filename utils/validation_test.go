package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "vada pav price", "vada pav price"},
		{"outer whitespace", "  breakfast spot \n", "breakfast spot"},
		{"inner whitespace runs", "how\tlong   to\n\nDadar", "how long to Dadar"},
		{"control characters", "vada\x00 pav\x07", "vada pav"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQuery(tt.input))
		})
	}
}

func TestSanitizeQueryLength(t *testing.T) {
	long := strings.Repeat("₹", MaxQueryLength+50)
	got := SanitizeQuery(long)
	assert.Equal(t, MaxQueryLength, len([]rune(got)))
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	assert.NotEqual(t, a, b)
	assert.True(t, ValidRequestID(a))
	assert.False(t, ValidRequestID("not-a-uuid"))
}
