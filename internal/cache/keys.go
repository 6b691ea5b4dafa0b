package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key derivation for the validation cache. All builders are pure
// functions: keys are case-normalized and, where options participate,
// independent of the order in which option flags were supplied.

// ValidationKey builds the cache key for a full validation outcome.
// The email is lowercased and trimmed. When options are present they are
// serialized in sorted-by-name order and folded into a short digest, so
// distinct option sets never collide and identical sets always produce
// identical keys.
func ValidationKey(email string, options map[string]bool) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if len(options) == 0 {
		return "validation:" + normalized
	}

	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%t;", name, options[name])
	}
	sum := md5.Sum([]byte(b.String()))
	digest := hex.EncodeToString(sum[:])[:8]

	return "validation:" + normalized + ":opts:" + digest
}

// DomainKey builds the cache key for domain-level facts. Options are
// deliberately omitted: MX topology does not depend on per-call flags.
func DomainKey(domain string) string {
	return "domain:" + strings.ToLower(strings.TrimSpace(domain))
}

// MXKey builds the cache key for MX lookup results.
func MXKey(domain string) string {
	return "mx:" + strings.ToLower(strings.TrimSpace(domain))
}

// ReputationKey builds the cache key for blacklist/reputation results.
func ReputationKey(domain string) string {
	return "reputation:" + strings.ToLower(strings.TrimSpace(domain))
}

// DisposableKey builds the cache key for disposable-domain lookups.
func DisposableKey(domain string) string {
	return "disposable:" + strings.ToLower(strings.TrimSpace(domain))
}
