package checks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ignite/mailcheck/internal/pkg/httpretry"
)

// ReputationPenalty is the score deduction for a blacklisted domain.
const ReputationPenalty = 40

// ReputationCheck looks the domain up on DNS blacklists and, when a
// WHOIS-style endpoint is configured, records the domain's creation
// date. A DNSBL answers an A-record query for "<domain>.<zone>" when
// the domain is listed and NXDOMAIN otherwise.
type ReputationCheck struct {
	resolver Resolver
	limiter  Limiter
	zones    []string
	whoisURL string
	client   httpretry.HTTPDoer
}

// NewReputationCheck creates the reputation module. whoisURL may be
// empty to skip the domain-age lookup.
func NewReputationCheck(resolver Resolver, limiter Limiter, zones []string, whoisURL string, client httpretry.HTTPDoer) *ReputationCheck {
	return &ReputationCheck{
		resolver: resolver,
		limiter:  limiter,
		zones:    zones,
		whoisURL: whoisURL,
		client:   client,
	}
}

func (c *ReputationCheck) Name() string { return "reputation" }

func (c *ReputationCheck) Run(ctx context.Context, addr Address) Result {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, addr.Domain); err != nil {
			return Result{Issues: []string{"reputation lookup canceled"}, Kind: KindLookup}
		}
	}

	var issues []string
	var sources []string
	lookupFailed := false

	for _, zone := range c.zones {
		listed, err := c.queryBlacklist(ctx, addr.Domain, zone)
		if err != nil {
			lookupFailed = true
			continue
		}
		if listed {
			issues = append(issues, "listed in "+zone)
			sources = append(sources, zone)
		}
	}

	details := map[string]interface{}{
		"blacklisted": len(sources) > 0,
		"sources":     sources,
	}

	if age := c.domainAge(ctx, addr.Domain); age != "" {
		details["domain_created"] = age
	}

	if len(sources) > 0 {
		return Result{
			Issues:  issues,
			Penalty: ReputationPenalty,
			Details: details,
		}
	}

	r := Result{Details: details}
	if lookupFailed {
		r.Issues = []string{"one or more blacklist lookups failed"}
		r.Kind = KindLookup
	}
	return r
}

// queryBlacklist resolves <domain>.<zone>. An answer means listed;
// not-found means clean; anything else is a lookup failure.
func (c *ReputationCheck) queryBlacklist(ctx context.Context, domain, zone string) (bool, error) {
	ips, err := c.resolver.LookupIPAddr(ctx, domain+"."+zone)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(ips) > 0, nil
}

func (c *ReputationCheck) domainAge(ctx context.Context, domain string) string {
	if c.whoisURL == "" || c.client == nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.whoisURL+"?domain="+domain, nil)
	if err != nil {
		return ""
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return ""
	}
	var payload struct {
		CreationDate string `json:"creationDate"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.CreationDate
}
