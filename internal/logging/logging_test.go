package logging

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "v_test.log")
	closer := Setup(Options{File: p, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	defer log.SetOutput(os.Stderr)

	log.Printf("session: hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session: hello from test")
}

func TestSetupWithoutFile(t *testing.T) {
	closer := Setup(Options{})
	assert.NoError(t, closer.Close())
}
