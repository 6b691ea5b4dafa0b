package checks

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver answers MX and A lookups from fixed maps. A domain absent
// from both maps resolves as NXDOMAIN.
type fakeResolver struct {
	mx      map[string][]*net.MX
	ips     map[string][]net.IPAddr
	mxErr   map[string]error
	lookups int
}

func (r *fakeResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	r.lookups++
	if err, ok := r.mxErr[domain]; ok {
		return nil, err
	}
	if records, ok := r.mx[domain]; ok {
		return records, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: domain, IsNotFound: true}
}

func (r *fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	r.lookups++
	if ips, ok := r.ips[host]; ok {
		return ips, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ok     bool
		local  string
		domain string
	}{
		{"simple", "user@example.com", true, "user", "example.com"},
		{"normalizes case and space", "  User@Example.COM  ", true, "user", "example.com"},
		{"splits at last at", `"a@b"@example.com`, true, `"a@b"`, "example.com"},
		{"no at", "userexample.com", false, "", ""},
		{"missing local", "@example.com", false, "", ""},
		{"missing domain", "user@", false, "", ""},
		{"empty", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, ok := ParseAddress(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.local, addr.Local)
				assert.Equal(t, tt.domain, addr.Domain)
			}
			assert.Equal(t, tt.input, addr.Raw)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&net.DNSError{IsNotFound: true}))
	assert.False(t, isNotFound(&net.DNSError{IsTimeout: true}))
	assert.False(t, isNotFound(context.Canceled))
	assert.False(t, isNotFound(nil))
}

func mustParse(t *testing.T, email string) Address {
	t.Helper()
	addr, ok := ParseAddress(email)
	require.True(t, ok, "test address must parse: %s", email)
	return addr
}
