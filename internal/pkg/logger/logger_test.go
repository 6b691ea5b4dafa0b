package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
		SetRedactPII(true)
	})
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLogLevels(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(WARN)

	Info("should be suppressed")
	assert.Zero(t, buf.Len())

	Warn("warned", "key", "value")
	entry := lastEntry(t, buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "warned", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestEmailFieldsAreRedacted(t *testing.T) {
	buf := captureOutput(t)

	Info("validating", "email", "john.doe@example.com")
	entry := lastEntry(t, buf)
	assert.Equal(t, "jo***@example.com", entry["email"])
}

func TestEmbeddedEmailsAreRedacted(t *testing.T) {
	buf := captureOutput(t)

	Info("duplicate found", "issue", "similar to jane.doe@example.com")
	entry := lastEntry(t, buf)
	assert.Equal(t, "similar to ja***@example.com", entry["issue"])
}

func TestRedactionCanBeDisabled(t *testing.T) {
	buf := captureOutput(t)
	SetRedactPII(false)

	Info("validating", "email", "john.doe@example.com")
	entry := lastEntry(t, buf)
	assert.Equal(t, "john.doe@example.com", entry["email"])
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactEmail(tt.in), "RedactEmail(%q)", tt.in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("anything else"))
}
