package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "disabled preview",
			input:  "Write a cover letter for the Data Analyst role",
			limit:  0,
			expect: "",
		},
		{
			name:   "short response kept whole",
			input:  "Dear Acme Hiring Manager,",
			limit:  200,
			expect: "Dear Acme Hiring Manager,",
		},
		{
			name:   "prompt preview cut with ellipsis",
			input:  "You are writing a cover letter",
			limit:  11,
			expect: "You are wri...",
		},
		{
			name:   "multibyte text cut on rune boundary",
			input:  "Résumé de José Müller",
			limit:  6,
			expect: "Résumé...",
		},
		{
			name:   "surrounding newlines of a model response trimmed",
			input:  "\n\n  Sincerely,\nJane Doe  \n",
			limit:  10,
			expect: "Sincerely,...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, TruncateForLog(tt.input, tt.limit))
		})
	}
}

func TestTruncateForLogKeepsValidUTF8(t *testing.T) {
	letter := strings.Repeat("Größe ", 100)

	preview := TruncateForLog(letter, 199)

	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Equal(t, 199, len([]rune(strings.TrimSuffix(preview, "..."))))
}
