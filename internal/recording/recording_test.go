package recording

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name:  "v1 pretty printed",
			input: "{\n  \"version\": 1,\n  \"width\": 80,\n  \"height\": 24,\n  \"stdout\": [[0.5, \"hi\"]]\n}\n",
			want:  1,
		},
		{
			name:  "v1 single line",
			input: `{"version": 1, "width": 80, "height": 24, "stdout": []}`,
			want:  1,
		},
		{
			name:  "v2",
			input: "{\"version\": 2, \"width\": 80, \"height\": 24}\n[0.1, \"o\", \"hello\"]\n",
			want:  2,
		},
		{
			name:  "v3",
			input: "{\"version\": 3, \"term\": {\"cols\": 80, \"rows\": 24}}\n[0.1, \"o\", \"hello\"]\n",
			want:  3,
		},
		{name: "v2 without size", input: "{\"version\": 2}\n", wantErr: true},
		{name: "v3 without term", input: "{\"version\": 3, \"width\": 80}\n", wantErr: true},
		{name: "unknown version", input: "{\"version\": 9}\n", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "plain text", input: "not a recording\n", wantErr: true},
		{name: "truncated v1", input: "{\n  \"version\": 1,\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.cast")
	require.NoError(t, os.WriteFile(path, []byte("{\"version\": 2, \"width\": 100, \"height\": 30}\n"), 0o600))

	version, err := Validate(path)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "nope.cast"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "open recording")
}

func TestValidate_ReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cast")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := Validate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
