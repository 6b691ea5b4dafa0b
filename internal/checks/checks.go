// Package checks contains the pluggable validation modules: syntax,
// domain/MX, spam-pattern, disposable, SMTP probe, reputation, role,
// duplicate and typo detection. Each module is polymorphic over a single
// capability — evaluate one address and return a partial result — and is
// registered in a fixed table built at startup by the validator engine.
package checks

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind classifies a check failure so the engine can apply
// category-specific penalties instead of matching on message strings.
type Kind string

const (
	// KindNone means the check completed without an internal failure.
	KindNone Kind = ""
	// KindFormat marks an unparseable address. Fatal to the pipeline.
	KindFormat Kind = "format"
	// KindLookup marks a failed or timed-out DNS/WHOIS/HTTP lookup.
	KindLookup Kind = "lookup"
	// KindProbe marks an SMTP handshake that was rejected or timed out
	// after retries.
	KindProbe Kind = "probe"
	// KindConfig marks a missing or malformed external resource, e.g. an
	// absent disposable-domain list. The check degrades to a pass with a
	// warning issue.
	KindConfig Kind = "config"
)

// Result is the partial outcome produced by one check module. Valid is
// a three-state claim: nil means the module makes no validity claim
// (advisory checks like spam or typo), false is a hard failure that
// blocks the final is_valid verdict regardless of score.
type Result struct {
	Valid       *bool                  `json:"is_valid,omitempty"`
	Issues      []string               `json:"issues,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
	Kind        Kind                   `json:"error_kind,omitempty"`
	Penalty     int                    `json:"penalty,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Check is the capability every module implements.
type Check interface {
	Name() string
	Run(ctx context.Context, addr Address) Result
}

// Address is a candidate email split once at the boundary so every
// module works from the same parse.
type Address struct {
	Raw        string
	Normalized string
	Local      string
	Domain     string
}

// ParseAddress normalizes (lower-case, trim) and splits an email.
// ok is false when there is no single @ separating two non-empty parts;
// modules past syntax assume a parseable local/domain split, so the
// engine never calls them with ok == false.
func ParseAddress(email string) (Address, bool) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(normalized, "@")
	if at <= 0 || at == len(normalized)-1 {
		return Address{Raw: email, Normalized: normalized}, false
	}
	return Address{
		Raw:        email,
		Normalized: normalized,
		Local:      normalized[:at],
		Domain:     normalized[at+1:],
	}, true
}

// Resolver is the slice of DNS the modules need. *net.Resolver
// satisfies it; tests substitute a fake.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Limiter gates outbound network probes per destination domain.
type Limiter interface {
	Acquire(ctx context.Context, domain string) error
}

func boolPtr(b bool) *bool { return &b }

// isNotFound reports whether a DNS error is a definitive NXDOMAIN, as
// opposed to a timeout or server failure.
func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}

// pass is the degenerate passing result.
func pass() Result { return Result{Valid: boolPtr(true)} }
