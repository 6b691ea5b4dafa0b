package checks

import (
	"context"
	"fmt"
	"net"
	"sort"
)

// DomainPenalty is the score deduction when the domain cannot receive mail.
const DomainPenalty = 30

// DomainCheck verifies a domain can receive mail: MX records first, A/AAAA
// records as the RFC 5321 implicit-MX fallback. Lookups go through the
// rate limiter since DNS resolvers throttle abusive clients too.
type DomainCheck struct {
	resolver Resolver
	limiter  Limiter
}

// NewDomainCheck creates the domain module.
func NewDomainCheck(resolver Resolver, limiter Limiter) *DomainCheck {
	return &DomainCheck{resolver: resolver, limiter: limiter}
}

func (c *DomainCheck) Name() string { return "domain" }

func (c *DomainCheck) Run(ctx context.Context, addr Address) Result {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, addr.Domain); err != nil {
			return Result{
				Valid:  boolPtr(false),
				Issues: []string{"domain lookup canceled"},
				Kind:   KindLookup,
			}
		}
	}

	hosts, issue, kind := c.lookupMailHosts(ctx, addr.Domain)
	if issue != "" {
		return Result{
			Valid:  boolPtr(false),
			Issues: []string{issue},
			Kind:   kind,
		}
	}

	return Result{
		Valid: boolPtr(true),
		Details: map[string]interface{}{
			"has_mx":   true,
			"mx_hosts": hosts,
		},
	}
}

// MailHosts returns the domain's mail servers in priority order, for use
// by the SMTP prober. Falls back to the domain itself when only A
// records exist.
func (c *DomainCheck) MailHosts(ctx context.Context, domain string) ([]string, error) {
	hosts, issue, _ := c.lookupMailHosts(ctx, domain)
	if issue != "" {
		return nil, fmt.Errorf("%s", issue)
	}
	return hosts, nil
}

func (c *DomainCheck) lookupMailHosts(ctx context.Context, domain string) (hosts []string, issue string, kind Kind) {
	records, err := c.resolver.LookupMX(ctx, domain)
	if err == nil && len(records) > 0 {
		// Lower preference value means higher priority.
		sort.Slice(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
		for _, mx := range records {
			hosts = append(hosts, mx.Host)
		}
		return hosts, "", KindNone
	}

	if err != nil {
		if dnsErr, ok := err.(*net.DNSError); ok {
			if dnsErr.IsNotFound {
				// No MX record is not conclusive; the implicit-MX rule
				// lets an A record carry mail.
				if c.hasAddressRecord(ctx, domain) {
					return []string{domain}, "", KindNone
				}
				return nil, "domain does not exist", KindLookup
			}
			if dnsErr.IsTimeout {
				return nil, "DNS lookup timed out", KindLookup
			}
		}
		return nil, "failed to look up MX records", KindLookup
	}

	// MX lookup succeeded but returned nothing.
	if c.hasAddressRecord(ctx, domain) {
		return []string{domain}, "", KindNone
	}
	return nil, "no MX records found for domain", KindLookup
}

func (c *DomainCheck) hasAddressRecord(ctx context.Context, domain string) bool {
	ips, err := c.resolver.LookupIPAddr(ctx, domain)
	return err == nil && len(ips) > 0
}
