package checks

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SMTPPenalty is the score deduction when the mailbox probe fails.
const SMTPPenalty = 25

// SMTPOptions configures the mailbox probe.
type SMTPOptions struct {
	HeloDomain string
	MailFrom   string
	Port       int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func (o *SMTPOptions) applyDefaults() {
	if o.HeloDomain == "" {
		o.HeloDomain = "verifier.localdomain"
	}
	if o.MailFrom == "" {
		o.MailFrom = "verify@" + o.HeloDomain
	}
	if o.Port == 0 {
		o.Port = 25
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 2
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
}

// DialFunc opens the probe connection. Swapped out in tests.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// SMTPCheck probes the mailbox over SMTP: connect to the domain's mail
// servers in MX-priority order and walk HELO/MAIL/RCPT, reading the
// RCPT response code. Probing is best-effort — catch-all domains accept
// anything and some servers lie — so an uncertain answer is reported as
// such rather than treated as a failure. Every probe passes through the
// per-domain rate limiter first.
type SMTPCheck struct {
	resolver Resolver
	limiter  Limiter
	opts     SMTPOptions
	dial     DialFunc
}

// NewSMTPCheck creates the SMTP probe module.
func NewSMTPCheck(resolver Resolver, limiter Limiter, opts SMTPOptions) *SMTPCheck {
	opts.applyDefaults()
	d := &net.Dialer{}
	return &SMTPCheck{
		resolver: resolver,
		limiter:  limiter,
		opts:     opts,
		dial:     d.DialContext,
	}
}

// SetDialFunc replaces the dialer, for tests against a local listener.
func (c *SMTPCheck) SetDialFunc(dial DialFunc) { c.dial = dial }

func (c *SMTPCheck) Name() string { return "smtp" }

func (c *SMTPCheck) Run(ctx context.Context, addr Address) Result {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, addr.Domain); err != nil {
			return Result{
				Valid:  boolPtr(false),
				Issues: []string{"SMTP probe canceled"},
				Kind:   KindProbe,
			}
		}
	}

	hosts, err := c.mailHosts(ctx, addr.Domain)
	if err != nil {
		return Result{
			Valid:  boolPtr(false),
			Issues: []string{"no SMTP servers found for domain"},
			Kind:   KindLookup,
		}
	}

	var last probeOutcome
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{
					Valid:  boolPtr(false),
					Issues: []string{"SMTP probe canceled"},
					Kind:   KindProbe,
				}
			case <-time.After(c.opts.RetryDelay):
			}
		}

		for _, host := range hosts {
			out := c.probe(ctx, host, addr.Normalized)
			last = out
			if out.definitive {
				return out.result()
			}
		}
	}

	// All servers, all attempts: nothing definitive.
	return last.result()
}

func (c *SMTPCheck) mailHosts(ctx context.Context, domain string) ([]string, error) {
	records, err := c.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return nil, fmt.Errorf("mx lookup failed for %s", domain)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	hosts := make([]string, 0, len(records))
	for _, mx := range records {
		hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
	}
	return hosts, nil
}

type probeOutcome struct {
	valid      bool
	definitive bool
	code       int
	reason     string
}

func (o probeOutcome) result() Result {
	details := map[string]interface{}{
		"smtp_code":  o.code,
		"definitive": o.definitive,
	}
	if o.definitive && o.valid {
		details["mailbox_exists"] = true
		return Result{Valid: boolPtr(true), Details: details}
	}
	if o.definitive {
		return Result{
			Valid:   boolPtr(false),
			Issues:  []string{o.reason},
			Kind:    KindProbe,
			Details: details,
		}
	}
	// Uncertain: no validity claim, but surface the reason.
	reason := o.reason
	if reason == "" {
		reason = "SMTP servers returned uncertain results"
	}
	return Result{
		Issues:  []string{reason},
		Kind:    KindProbe,
		Details: details,
	}
}

// probe performs one HELO/MAIL/RCPT conversation against a single host.
func (c *SMTPCheck) probe(ctx context.Context, host, email string) probeOutcome {
	addr := net.JoinHostPort(host, strconv.Itoa(c.opts.Port))

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	conn, err := c.dial(dialCtx, "tcp", addr)
	if err != nil {
		return probeOutcome{reason: fmt.Sprintf("could not connect to SMTP server %s", host)}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.opts.Timeout)); err != nil {
		return probeOutcome{reason: "could not set SMTP connection deadline"}
	}
	reader := bufio.NewReader(conn)

	code, msg := readSMTPResponse(reader)
	if code < 200 || code >= 300 {
		return probeOutcome{code: code, reason: fmt.Sprintf("server greeting failed: %d %s", code, msg)}
	}

	steps := []string{
		fmt.Sprintf("HELO %s", c.opts.HeloDomain),
		fmt.Sprintf("MAIL FROM:<%s>", c.opts.MailFrom),
	}
	for _, cmd := range steps {
		if err := sendSMTPLine(conn, cmd); err != nil {
			return probeOutcome{reason: "SMTP command failed"}
		}
		code, msg = readSMTPResponse(reader)
		if code < 200 || code >= 300 {
			return probeOutcome{code: code, reason: fmt.Sprintf("SMTP command rejected: %d %s", code, msg)}
		}
	}

	if err := sendSMTPLine(conn, fmt.Sprintf("RCPT TO:<%s>", email)); err != nil {
		return probeOutcome{reason: "RCPT TO command failed"}
	}
	code, msg = readSMTPResponse(reader)

	sendSMTPLine(conn, "QUIT")

	return analyzeRCPT(code, msg)
}

// analyzeRCPT maps the RCPT response code onto a probe outcome.
// 2xx confirms the mailbox; 550/551/553 deny it; everything else —
// quota errors, greylisting, policy rejections — is uncertain.
func analyzeRCPT(code int, msg string) probeOutcome {
	switch {
	case code >= 200 && code <= 299:
		return probeOutcome{valid: true, definitive: true, code: code}
	case code == 550 || code == 551 || code == 553:
		return probeOutcome{definitive: true, code: code, reason: "mailbox does not exist"}
	case code == 552:
		return probeOutcome{code: code, reason: "mailbox full or over quota"}
	case code >= 500:
		return probeOutcome{code: code, reason: fmt.Sprintf("server rejected the request: %d %s", code, msg)}
	case code >= 400:
		return probeOutcome{code: code, reason: "greylisted or temporary server issue"}
	default:
		return probeOutcome{code: code, reason: fmt.Sprintf("unknown SMTP response: %d %s", code, msg)}
	}
}

func sendSMTPLine(conn net.Conn, line string) error {
	_, err := conn.Write([]byte(line + "\r\n"))
	return err
}

func readSMTPResponse(r *bufio.Reader) (int, string) {
	line, _, err := r.ReadLine()
	if err != nil {
		return 0, ""
	}

	text := string(line)
	if len(text) < 3 {
		return 0, text
	}

	code, err := strconv.Atoi(text[:3])
	if err != nil {
		return 0, text
	}
	if len(text) > 4 {
		return code, strings.TrimSpace(text[4:])
	}
	return code, ""
}
