package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDeleteRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "signer/default/mainnet", "0xdeadbeef"))

	got, err := store.Get(ctx, "signer/default/mainnet")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", got)

	require.NoError(t, store.Delete(ctx, "signer/default/mainnet"))
	_, err = store.Get(ctx, "signer/default/mainnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestKeyFilesAreRestricted(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), "signer/default/mainnet", "0xdeadbeef"))

	info, err := os.Stat(filepath.Join(root, "signer", "default", "mainnet"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestDeleteMissingKeyIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Delete(context.Background(), "signer/never-written"))
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	tests := []string{"", "   ", ".", "..", "../outside", "/etc/passwd"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			require.Error(t, store.Put(ctx, key, "v"))
		})
	}
}
