package checks

import (
	"context"
	"strings"
)

// TypoPenalty is the score deduction when a likely typo is detected.
const TypoPenalty = 5

var commonDomains = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"aol.com":        true,
	"icloud.com":     true,
	"protonmail.com": true,
}

// commonTypos maps correct domains to their frequent misspellings.
var commonTypos = map[string][]string{
	"gmail.com":   {"gmai.com", "gmial.com", "gmal.com", "gmale.com"},
	"yahoo.com":   {"yaho.com", "yahooo.com", "yahou.com"},
	"hotmail.com": {"hotmai.com", "hotmal.com", "hotmial.com"},
	"outlook.com": {"outlok.com", "outlool.com", "outlock.com"},
}

// TypoCheck suggests corrections for common mistakes: misspelled
// provider domains, tripled letters in the local part, and dots in
// gmail locals (gmail ignores them, so the dotless form is canonical).
type TypoCheck struct {
	typoToDomain map[string]string
}

// NewTypoCheck creates the typo module.
func NewTypoCheck() *TypoCheck {
	inverted := make(map[string]string)
	for correct, typos := range commonTypos {
		for _, t := range typos {
			inverted[t] = correct
		}
	}
	return &TypoCheck{typoToDomain: inverted}
}

func (c *TypoCheck) Name() string { return "typo" }

func (c *TypoCheck) Run(_ context.Context, addr Address) Result {
	var suggestions []string

	if correct, ok := c.typoToDomain[addr.Domain]; ok {
		suggestions = append(suggestions, addr.Local+"@"+correct)
	}

	if commonDomains[addr.Domain] {
		if fixed := collapseRuns(addr.Local); fixed != addr.Local {
			suggestions = append(suggestions, fixed+"@"+addr.Domain)
		}

		if addr.Domain == "gmail.com" && strings.Contains(addr.Local, ".") {
			suggestions = append(suggestions, strings.ReplaceAll(addr.Local, ".", "")+"@"+addr.Domain)
		}
	}

	if len(suggestions) == 0 {
		return Result{Details: map[string]interface{}{"has_typos": false}}
	}
	return Result{
		Issues:      []string{"potential typos detected"},
		Suggestions: suggestions,
		Penalty:     TypoPenalty,
		Details:     map[string]interface{}{"has_typos": true},
	}
}

// collapseRuns shortens every run of three or more identical characters
// to a double. Doubles are common in real names; longer runs are almost
// always a held-down key.
func collapseRuns(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if n := len(out); n >= 2 && r == out[n-1] && r == out[n-2] {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
