package checks

import (
	"context"

	"github.com/ignite/mailcheck/internal/dedup"
)

// DuplicatePenalty is the score deduction for a repeated submission.
const DuplicatePenalty = 15

// DuplicateCheck flags addresses already seen in the caller's session.
// The session is supplied per validation call, so duplicate state lives
// with the caller rather than the process.
type DuplicateCheck struct {
	session *dedup.Session
}

// NewDuplicateCheck creates the duplicate module bound to a session.
func NewDuplicateCheck(session *dedup.Session) *DuplicateCheck {
	return &DuplicateCheck{session: session}
}

func (c *DuplicateCheck) Name() string { return "duplicate" }

func (c *DuplicateCheck) Run(_ context.Context, addr Address) Result {
	if c.session == nil {
		// No session means the caller did not opt into duplicate tracking.
		return Result{Details: map[string]interface{}{"is_duplicate": false}}
	}

	kind, match := c.session.Observe(addr.Normalized)
	if kind == "" {
		return Result{Details: map[string]interface{}{"is_duplicate": false}}
	}

	issue := "exact duplicate of a previously seen address"
	if kind == "similar" {
		issue = "similar to previously seen address: " + match
	}
	return Result{
		Issues:  []string{issue},
		Penalty: DuplicatePenalty,
		Details: map[string]interface{}{
			"is_duplicate":   true,
			"duplicate_type": kind,
		},
	}
}
