package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUzbekLatin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "basic word",
			input:    "салом",
			expected: "salom",
		},
		{
			name:     "uzbek specific letters",
			input:    "ўзбек тилиға",
			expected: "oʻzbek tiligʻa",
		},
		{
			name:     "qof and ha",
			input:    "ҳақиқат",
			expected: "haqiqat",
		},
		{
			name:     "digraphs",
			input:    "чўчқа шоҳ",
			expected: "choʻchqa shoh",
		},
		{
			name:     "soft sign dropped",
			input:    "фильм",
			expected: "film",
		},
		{
			name:     "uppercase preserved",
			input:    "Ўзбекистон",
			expected: "Oʻzbekiston",
		},
		{
			name:     "latin and digits pass through",
			input:    "2024-йил, Go дастури",
			expected: "2024-yil, Go dasturi",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToUzbekLatin(tt.input))
		})
	}
}
