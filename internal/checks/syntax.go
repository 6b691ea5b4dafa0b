package checks

import (
	"context"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^(?i)[a-z0-9!#$%&'*+\/=?^_\x60{|}~-]+(?:\.[a-z0-9!#$%&'*+\/=?^_\x60{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

// SyntaxCheck validates the address format. It runs unconditionally and
// first in the pipeline: every downstream module assumes a parseable
// local-part/domain split.
type SyntaxCheck struct{}

// NewSyntaxCheck creates the syntax module.
func NewSyntaxCheck() *SyntaxCheck { return &SyntaxCheck{} }

func (c *SyntaxCheck) Name() string { return "syntax" }

func (c *SyntaxCheck) Run(_ context.Context, addr Address) Result {
	email := addr.Normalized
	issues := syntaxIssues(email)
	if len(issues) > 0 {
		return Result{
			Valid:  boolPtr(false),
			Issues: issues,
			Kind:   KindFormat,
		}
	}
	return pass()
}

func syntaxIssues(email string) []string {
	var issues []string

	if len(email) == 0 {
		return []string{"empty email address"}
	}
	if len(email) > 254 {
		issues = append(issues, "email exceeds maximum length of 254 characters")
	}

	if !emailRegex.MatchString(email) {
		issues = append(issues, "email format is invalid")
		return issues
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		issues = append(issues, "email must contain exactly one @")
		return issues
	}
	local, domain := parts[0], parts[1]

	// RFC 5321 limits
	if len(local) > 64 {
		issues = append(issues, "local part exceeds 64 characters")
	}
	if len(domain) > 253 {
		issues = append(issues, "domain exceeds 253 characters")
	}

	if strings.Contains(email, "..") {
		issues = append(issues, "email contains consecutive dots")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		issues = append(issues, "local part starts or ends with a dot")
	}

	return issues
}
