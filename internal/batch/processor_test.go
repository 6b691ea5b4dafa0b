package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailcheck/internal/checks"
	"github.com/ignite/mailcheck/internal/validator"
)

func newLocalEngine() *validator.Engine {
	return validator.NewEngine(validator.Deps{
		Spam:       checks.NewSpamCheck(nil),
		Disposable: checks.NewDisposableCheckWithDomains(nil),
		Typo:       checks.NewTypoCheck(),
	})
}

func localOptions() *validator.Options {
	return &validator.Options{
		CheckSyntax:     true,
		CheckSpam:       true,
		CheckDisposable: true,
		CheckTypos:      true,
	}
}

func TestProcess_ResultsInInputOrder(t *testing.T) {
	p := NewProcessor(newLocalEngine(), 3, 4)

	emails := make([]string, 25)
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@example.com", i)
	}

	jobID, results := p.Process(context.Background(), emails, localOptions())

	_, err := uuid.Parse(jobID)
	require.NoError(t, err)

	require.Len(t, results, len(emails))
	for i, r := range results {
		assert.Equal(t, emails[i], r.Email, "result %d out of order", i)
	}
}

func TestProcess_ProgressIsMonotonic(t *testing.T) {
	p := NewProcessor(newLocalEngine(), 4, 2)

	emails := make([]string, 10)
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@example.com", i)
	}

	var reports [][2]int
	p.SetProgressFunc(func(completed, total int) {
		reports = append(reports, [2]int{completed, total})
	})

	p.Process(context.Background(), emails, localOptions())

	require.NotEmpty(t, reports)
	prev := 0
	for _, r := range reports {
		assert.Greater(t, r[0], prev, "progress must strictly increase")
		assert.Equal(t, 10, r[1])
		prev = r[0]
	}
	assert.Equal(t, 10, reports[len(reports)-1][0], "final report must cover the whole batch")
}

func TestProcess_InvalidItemsDoNotFailTheBatch(t *testing.T) {
	p := NewProcessor(newLocalEngine(), 0, 0)

	_, results := p.Process(context.Background(), []string{
		"good@example.com",
		"not-an-email",
		"also.good@example.com",
	}, localOptions())

	require.Len(t, results, 3)
	assert.True(t, results[0].IsValid)
	assert.False(t, results[1].IsValid)
	assert.True(t, results[2].IsValid)
}

func TestProcess_Empty(t *testing.T) {
	p := NewProcessor(newLocalEngine(), 10, 2)

	jobID, results := p.Process(context.Background(), nil, localOptions())
	assert.NotEmpty(t, jobID)
	assert.Empty(t, results)
}

func TestProcess_ChunkSizeOverride(t *testing.T) {
	p := NewProcessor(newLocalEngine(), 100, 2)

	var chunks int
	p.SetProgressFunc(func(completed, total int) { chunks++ })

	opts := localOptions()
	opts.ChunkSize = 2
	p.Process(context.Background(), []string{
		"a@example.com", "b@example.com", "c@example.com",
		"d@example.com", "e@example.com",
	}, opts)

	assert.Equal(t, 3, chunks, "five emails with chunk size two make three chunks")
}
