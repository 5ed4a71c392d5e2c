package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPrefersConfiguredValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "elevenlabs_api_key.txt"), []byte("from-file"), 0o600))

	s := NewStore(dir, map[string]string{"elevenlabs": "from-env"})

	v, err := s.Lookup("elevenlabs")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestLookupFallsBackToSecretsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deepgram_api_key.txt"), []byte("  dg-key\n"), 0o600))

	s := NewStore(dir, map[string]string{"deepgram": ""})

	v, err := s.Lookup("deepgram")
	require.NoError(t, err)
	assert.Equal(t, "dg-key", v)
	assert.True(t, s.Has("deepgram"))
}

func TestLookupMissing(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	_, err := s.Lookup("elevenlabs")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, s.Has("elevenlabs"))
}

func TestLookupBlankFileIsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "elevenlabs_api_key.txt"), []byte("\n"), 0o600))

	_, err := NewStore(dir, nil).Lookup("elevenlabs")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupReadFailure(t *testing.T) {
	s := NewStore("/secrets", nil)
	s.readFile = func(string) ([]byte, error) { return nil, errors.New("permission denied") }

	_, err := s.Lookup("elevenlabs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "permission denied")
}
