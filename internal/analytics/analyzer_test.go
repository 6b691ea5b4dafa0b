package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailcheck/internal/validator"
)

func TestSummarize(t *testing.T) {
	results := []validator.Result{
		{Email: "a@example.com", IsValid: true, Score: 100},
		{Email: "b@example.com", IsValid: true, Score: 80, Issues: []string{"potential typos detected"}},
		{Email: "c@other.com", IsValid: false, Score: 50, Issues: []string{"disposable email domain detected"}},
		{Email: "d@other.com", IsValid: false, Score: 10, Issues: []string{"disposable email domain detected", "role-based address detected"}},
	}

	s := Summarize(results)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Valid)
	assert.Equal(t, 2, s.Invalid)
	assert.InDelta(t, 60.0, s.AverageScore, 0.001)

	assert.Equal(t, map[string]int{
		"0-24":   1,
		"25-49":  0,
		"50-74":  1,
		"75-100": 2,
	}, s.ScoreBuckets)

	require.NotEmpty(t, s.TopIssues)
	assert.Equal(t, IssueCount{Issue: "disposable email domain detected", Count: 2}, s.TopIssues[0])

	require.Len(t, s.Domains, 2)
	assert.Equal(t, DomainCount{Domain: "example.com", Total: 2, Valid: 2}, s.Domains[0])
	assert.Equal(t, DomainCount{Domain: "other.com", Total: 2, Valid: 0}, s.Domains[1])
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AverageScore)
	assert.Empty(t, s.TopIssues)
}

func TestSummarize_TopIssuesCapped(t *testing.T) {
	var results []validator.Result
	for i := 0; i < 15; i++ {
		results = append(results, validator.Result{
			Email:  fmt.Sprintf("u%d@example.com", i),
			Score:  40,
			Issues: []string{fmt.Sprintf("issue %d", i)},
		})
	}

	s := Summarize(results)
	assert.Len(t, s.TopIssues, 10)
}

func TestBucketBoundaries(t *testing.T) {
	assert.Equal(t, "0-24", bucket(0))
	assert.Equal(t, "0-24", bucket(24))
	assert.Equal(t, "25-49", bucket(25))
	assert.Equal(t, "50-74", bucket(74))
	assert.Equal(t, "75-100", bucket(75))
	assert.Equal(t, "75-100", bucket(100))
}
