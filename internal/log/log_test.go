package log

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrappers(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		name     string
		fn       func()
		expected string
	}{
		{
			name:     "Printf",
			fn:       func() { Printf("walk.png: %s", "decode failed") },
			expected: "walk.png: decode failed",
		},
		{
			name:     "Println",
			fn:       func() { Println("Skipping trump:", "directory not found") },
			expected: "Skipping trump: directory not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn()
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("Expected log to contain %q, but got %q", tt.expected, buf.String())
			}
		})
	}
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "normalize.log")
	require.NoError(t, Setup(path))
	Printf("processed %d sprites", 3)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "processed 3 sprites")
}

func TestSetupWithoutFile(t *testing.T) {
	require.NoError(t, Setup(""))
	assert.NoError(t, Close())
}
