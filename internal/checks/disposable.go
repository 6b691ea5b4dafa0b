package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ignite/mailcheck/internal/pkg/httpretry"
	"github.com/ignite/mailcheck/internal/pkg/logger"
)

// DisposablePenalty is the score deduction for a throwaway domain.
const DisposablePenalty = 20

// DisposableCheck detects throwaway mail domains: a local list loaded
// once at startup, with an optional kickbox-style HTTP lookup for
// domains the list misses.
type DisposableCheck struct {
	domains   map[string]bool
	lookupURL string
	client    httpretry.HTTPDoer
	degraded  bool
}

// NewDisposableCheck loads the domain list from listPath (a JSON array
// of domains). A missing list degrades the module: it still runs HTTP
// lookups when configured, and otherwise passes with a warning issue.
// lookupURL may be empty to disable the network fallback.
func NewDisposableCheck(listPath, lookupURL string, client httpretry.HTTPDoer) *DisposableCheck {
	c := &DisposableCheck{
		domains:   make(map[string]bool),
		lookupURL: strings.TrimSuffix(lookupURL, "/"),
		client:    client,
	}

	if listPath == "" {
		c.degraded = true
		return c
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		logger.Warn("disposable domain list not found, check degraded", "path", listPath)
		c.degraded = true
		return c
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		logger.Warn("disposable domain list unreadable, check degraded", "path", listPath, "error", err.Error())
		c.degraded = true
		return c
	}
	for _, d := range list {
		c.domains[strings.ToLower(strings.TrimSpace(d))] = true
	}
	return c
}

// NewDisposableCheckWithDomains builds the module from an in-memory set.
func NewDisposableCheckWithDomains(domains map[string]bool) *DisposableCheck {
	return &DisposableCheck{domains: domains}
}

func (c *DisposableCheck) Name() string { return "disposable" }

func (c *DisposableCheck) Run(ctx context.Context, addr Address) Result {
	if c.domains[addr.Domain] {
		return Result{
			Issues:  []string{"disposable email domain detected"},
			Penalty: DisposablePenalty,
			Details: map[string]interface{}{"is_disposable": true, "source": "list"},
		}
	}

	if c.lookupURL != "" && c.client != nil {
		disposable, err := c.lookupRemote(ctx, addr.Domain)
		if err != nil {
			return Result{
				Issues:  []string{"disposable lookup failed"},
				Kind:    KindLookup,
				Details: map[string]interface{}{"is_disposable": false},
			}
		}
		if disposable {
			return Result{
				Issues:  []string{"disposable email domain detected"},
				Penalty: DisposablePenalty,
				Details: map[string]interface{}{"is_disposable": true, "source": "lookup"},
			}
		}
	} else if c.degraded {
		// No list and no lookup endpoint: pass, but say so.
		return Result{
			Issues:  []string{"disposable domain list unavailable, check skipped"},
			Kind:    KindConfig,
			Details: map[string]interface{}{"is_disposable": false},
		}
	}

	return Result{Details: map[string]interface{}{"is_disposable": false}}
}

func (c *DisposableCheck) lookupRemote(ctx context.Context, domain string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL+"/"+domain, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("disposable lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return false, err
	}

	var payload struct {
		Disposable bool `json:"disposable"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, err
	}
	return payload.Disposable, nil
}
