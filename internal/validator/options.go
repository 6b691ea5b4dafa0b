package validator

import "github.com/ignite/mailcheck/internal/dedup"

// Options is the set of switches for one validation call. The zero
// value means "nothing enabled"; callers normally start from
// AllEnabled. Options are immutable per call — the engine never writes
// to them.
type Options struct {
	CheckSyntax     bool `json:"check_syntax"`
	CheckDomain     bool `json:"check_domain"`
	CheckReputation bool `json:"check_reputation"`
	CheckSpam       bool `json:"check_spam"`
	CheckDisposable bool `json:"check_disposable"`
	CheckSMTP       bool `json:"check_smtp"`
	CheckDuplicates bool `json:"check_duplicates"`
	CheckTypos      bool `json:"check_typos"`

	// ChunkSize overrides the configured batch chunk size when > 0.
	ChunkSize int `json:"chunk_size,omitempty"`

	// Session tracks duplicates across calls. Supplied by the caller so
	// duplicate state lives with the caller's session, not the process.
	Session *dedup.Session `json:"-"`
}

// AllEnabled returns the default options: every check on.
func AllEnabled() Options {
	return Options{
		CheckSyntax:     true,
		CheckDomain:     true,
		CheckReputation: true,
		CheckSpam:       true,
		CheckDisposable: true,
		CheckSMTP:       true,
		CheckDuplicates: true,
		CheckTypos:      true,
	}
}

// flags serializes the switches for cache-key derivation. Map iteration
// order does not matter: the key builder sorts by name.
func (o Options) flags() map[string]bool {
	return map[string]bool{
		"check_syntax":     o.CheckSyntax,
		"check_domain":     o.CheckDomain,
		"check_reputation": o.CheckReputation,
		"check_spam":       o.CheckSpam,
		"check_disposable": o.CheckDisposable,
		"check_smtp":       o.CheckSMTP,
		"check_duplicates": o.CheckDuplicates,
		"check_typos":      o.CheckTypos,
	}
}
