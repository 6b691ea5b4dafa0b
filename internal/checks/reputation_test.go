package checks

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReputationCheck_Clean(t *testing.T) {
	check := NewReputationCheck(&fakeResolver{}, nil, []string{"dbl.example.org"}, "", nil)

	result := check.Run(context.Background(), mustParse(t, "user@example.com"))

	assert.Equal(t, false, result.Details["blacklisted"])
	assert.Empty(t, result.Issues)
	assert.Zero(t, result.Penalty)
}

func TestReputationCheck_Listed(t *testing.T) {
	resolver := &fakeResolver{
		ips: map[string][]net.IPAddr{
			"spammy.example.dbl.example.org": {{IP: net.ParseIP("127.0.0.2")}},
		},
	}
	check := NewReputationCheck(resolver, nil, []string{"dbl.example.org", "other.example.org"}, "", nil)

	result := check.Run(context.Background(), mustParse(t, "user@spammy.example"))

	assert.Equal(t, true, result.Details["blacklisted"])
	assert.Equal(t, []string{"dbl.example.org"}, result.Details["sources"])
	assert.Contains(t, result.Issues, "listed in dbl.example.org")
	assert.Equal(t, ReputationPenalty, result.Penalty)
}

func TestReputationCheck_LookupFailure(t *testing.T) {
	check := NewReputationCheck(&timeoutResolver{}, nil, []string{"dbl.example.org"}, "", nil)

	result := check.Run(context.Background(), mustParse(t, "user@example.com"))

	assert.Equal(t, KindLookup, result.Kind)
	assert.Contains(t, result.Issues, "one or more blacklist lookups failed")
	assert.Zero(t, result.Penalty, "a failed lookup is not a listing")
}

type timeoutResolver struct{}

func (timeoutResolver) LookupMX(context.Context, string) ([]*net.MX, error) {
	return nil, &net.DNSError{Err: "i/o timeout", IsTimeout: true}
}

func (timeoutResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return nil, &net.DNSError{Err: "i/o timeout", IsTimeout: true}
}

func TestReputationCheck_DomainAge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "example.com", r.URL.Query().Get("domain"))
		w.Write([]byte(`{"creationDate": "1995-08-14"}`))
	}))
	defer server.Close()

	check := NewReputationCheck(&fakeResolver{}, nil, nil, server.URL, http.DefaultClient)

	result := check.Run(context.Background(), mustParse(t, "user@example.com"))
	assert.Equal(t, "1995-08-14", result.Details["domain_created"])
}
