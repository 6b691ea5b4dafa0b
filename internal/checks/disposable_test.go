package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisposableCheck_ListHit(t *testing.T) {
	check := NewDisposableCheckWithDomains(map[string]bool{"mailinator.com": true})

	result := check.Run(context.Background(), mustParse(t, "user@mailinator.com"))
	assert.Equal(t, true, result.Details["is_disposable"])
	assert.Equal(t, DisposablePenalty, result.Penalty)
	assert.Contains(t, result.Issues, "disposable email domain detected")

	result = check.Run(context.Background(), mustParse(t, "user@example.com"))
	assert.Equal(t, false, result.Details["is_disposable"])
	assert.Zero(t, result.Penalty)
}

func TestDisposableCheck_LoadsListFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disposable.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Trashmail.COM", " mailinator.com "]`), 0o644))

	check := NewDisposableCheck(path, "", nil)

	result := check.Run(context.Background(), mustParse(t, "user@trashmail.com"))
	assert.Equal(t, true, result.Details["is_disposable"])
}

func TestDisposableCheck_RemoteLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/10minutemail.com" {
			w.Write([]byte(`{"disposable": true}`))
			return
		}
		w.Write([]byte(`{"disposable": false}`))
	}))
	defer server.Close()

	check := NewDisposableCheck("", server.URL, http.DefaultClient)

	result := check.Run(context.Background(), mustParse(t, "user@10minutemail.com"))
	assert.Equal(t, true, result.Details["is_disposable"])
	assert.Equal(t, "lookup", result.Details["source"])

	result = check.Run(context.Background(), mustParse(t, "user@example.com"))
	assert.Equal(t, false, result.Details["is_disposable"])
}

func TestDisposableCheck_LookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	check := NewDisposableCheck("", server.URL, http.DefaultClient)

	result := check.Run(context.Background(), mustParse(t, "user@example.com"))
	assert.Equal(t, KindLookup, result.Kind)
	assert.Contains(t, result.Issues, "disposable lookup failed")
	assert.Nil(t, result.Valid)
}

func TestDisposableCheck_DegradedWithoutList(t *testing.T) {
	check := NewDisposableCheck(filepath.Join(t.TempDir(), "missing.json"), "", nil)

	result := check.Run(context.Background(), mustParse(t, "user@example.com"))
	assert.Equal(t, KindConfig, result.Kind)
	assert.Contains(t, result.Issues, "disposable domain list unavailable, check skipped")
	assert.Nil(t, result.Valid, "degraded check must not block validity")
}
