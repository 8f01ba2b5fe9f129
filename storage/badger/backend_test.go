package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendLifecycle(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	assert.False(t, backend.IsClosed())

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	// Closing twice is harmless.
	assert.NoError(t, backend.Close())
}

func TestBackendOnDisk(t *testing.T) {
	dir := t.TempDir()
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	// Reopening the same directory works.
	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, backend.Close())
}
