package checks

import (
	"context"
	"regexp"
)

// SpamCheck scores an address against patterns common to machine-
// generated and trap addresses. Its penalty is its accumulated risk
// score rather than a fixed deduction, and it never makes a hard
// validity claim. Role detection is delegated to the role module so the
// two stay consistent.
type SpamCheck struct {
	patterns []*regexp.Regexp
	roles    *RoleCheck
}

var defaultSuspiciousPatterns = []string{
	`^test\d*@`,
	`^[a-z]{1,2}\d{4,}@`,
	`^abuse@`,
	`^postmaster@`,
	`^spam@`,
	`^noreply@`,
	`^no-reply@`,
	`^admin@`,
}

// NewSpamCheck creates the spam-pattern module.
func NewSpamCheck(roles *RoleCheck) *SpamCheck {
	compiled := make([]*regexp.Regexp, 0, len(defaultSuspiciousPatterns))
	for _, p := range defaultSuspiciousPatterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	if roles == nil {
		roles = NewRoleCheck(nil)
	}
	return &SpamCheck{patterns: compiled, roles: roles}
}

func (c *SpamCheck) Name() string { return "spam" }

func (c *SpamCheck) Run(_ context.Context, addr Address) Result {
	risk := 0
	var issues []string
	var matched []string

	for _, p := range c.patterns {
		if p.MatchString(addr.Normalized) {
			matched = append(matched, p.String())
			risk += 2
		}
	}

	isRole := c.roles.IsRole(addr.Local)
	if isRole {
		issues = append(issues, "role-based address detected")
		risk += 3
	}

	if !hasVowels(addr.Local) && len(addr.Local) > 3 {
		issues = append(issues, "local part has no vowels, likely generated")
		risk += 2
	}
	if digitRatio(addr.Local) > 0.5 {
		issues = append(issues, "local part is mostly digits")
		risk += 2
	}

	suspicious := isRole || len(matched) > 0 || risk > 5
	if suspicious && len(issues) == 0 {
		issues = append(issues, "address matches suspicious patterns")
	}

	r := Result{
		Details: map[string]interface{}{
			"is_suspicious":    suspicious,
			"risk_score":       risk,
			"patterns_matched": matched,
		},
	}
	if suspicious {
		r.Issues = issues
		r.Penalty = risk
	}
	return r
}

func hasVowels(s string) bool {
	for _, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			return true
		}
	}
	return false
}

func digitRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return float64(digits) / float64(len(s))
}
