package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "header skipped",
			input: "email,name\njane@example.com,Jane\njohn@example.com,John\n",
			want:  []string{"jane@example.com", "john@example.com"},
		},
		{
			name:  "no header",
			input: "jane@example.com,Jane\njohn@example.com,John\n",
			want:  []string{"jane@example.com", "john@example.com"},
		},
		{
			name:  "single column",
			input: "jane@example.com\njohn@example.com\n",
			want:  []string{"jane@example.com", "john@example.com"},
		},
		{
			name:  "whitespace trimmed",
			input: " jane@example.com ,Jane\n",
			want:  []string{"jane@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emails, err := Parse(strings.NewReader(tt.input), ".csv")
			require.NoError(t, err)
			assert.Equal(t, tt.want, emails)
		})
	}
}

func TestParse_Lines(t *testing.T) {
	input := "jane@example.com\n\n  john@example.com  \n\n"
	emails, err := Parse(strings.NewReader(input), ".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com", "john@example.com"}, emails)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.csv")
	require.NoError(t, os.WriteFile(path, []byte("email\njane@example.com\n"), 0o644))

	emails, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, emails)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*params.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source_Read(t *testing.T) {
	src := NewS3SourceWithClient(&fakeS3{objects: map[string]string{
		"lists/upload.csv": "email\njane@example.com\njohn@example.com\n",
		"lists/plain.txt":  "mary@example.com\n",
	}}, "test-bucket")
	ctx := context.Background()

	emails, err := src.Read(ctx, "lists/upload.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com", "john@example.com"}, emails)

	emails, err = src.Read(ctx, "lists/plain.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"mary@example.com"}, emails)

	_, err = src.Read(ctx, "lists/missing.csv")
	assert.Error(t, err)
}
