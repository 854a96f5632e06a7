package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesAndReloads(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// Key file is written with restricted permissions
	info, err := os.Stat(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Second load returns the same key
	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_RejectsCorruptKey(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("too short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey_RejectsNonHexKey(t *testing.T) {
	dir := t.TempDir()

	bad := make([]byte, 64)
	for i := range bad {
		bad[i] = 'z'
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), bad, 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
