package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpamCheck(t *testing.T) {
	check := NewSpamCheck(nil)

	tests := []struct {
		name       string
		email      string
		suspicious bool
	}{
		{"ordinary address", "jane.doe@example.com", false},
		{"test prefix", "test42@example.com", true},
		{"short prefix long digits", "ab12345@example.com", true},
		{"role account", "admin@example.com", true},
		{"noreply", "noreply@example.com", true},
		{"no vowels alone stays under threshold", "xkcdqrst@example.com", false},
		{"mostly digits alone stays under threshold", "1234567a@example.com", false},
		{"pattern match plus digits", "x1234567@example.com", true},
		{"short local with vowel", "bob@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := check.Run(context.Background(), mustParse(t, tt.email))

			assert.Equal(t, tt.suspicious, result.Details["is_suspicious"])
			assert.Nil(t, result.Valid, "spam check never makes a validity claim")
			if tt.suspicious {
				assert.NotEmpty(t, result.Issues)
				assert.Equal(t, result.Details["risk_score"], result.Penalty)
			} else {
				assert.Zero(t, result.Penalty)
			}
		})
	}
}

func TestSpamCheck_RiskAccumulates(t *testing.T) {
	check := NewSpamCheck(nil)

	// admin@ matches a pattern (+2) and is a role account (+3).
	result := check.Run(context.Background(), mustParse(t, "admin@example.com"))
	assert.Equal(t, 5, result.Details["risk_score"])
	assert.Equal(t, 5, result.Penalty)
}
