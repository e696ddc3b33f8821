package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutNamespacesKeys(t *testing.T) {
	var gotArgs []string
	var gotInput string
	store := &Store{run: func(_ context.Context, input string, args ...string) (string, string, error) {
		gotInput = input
		gotArgs = args
		return "", "", nil
	}}

	require.NoError(t, store.Put(context.Background(), "signer/default/mainnet", "0xdeadbeef"))
	assert.Equal(t, []string{"insert", "-m", "-f", "slotctl/signer/default/mainnet"}, gotArgs)
	assert.Equal(t, "0xdeadbeef\n", gotInput)
}

func TestGetTrimsTrailingNewline(t *testing.T) {
	store := &Store{run: func(context.Context, string, ...string) (string, string, error) {
		return "0xdeadbeef\n", "", nil
	}}

	got, err := store.Get(context.Background(), "signer/default/mainnet")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", got)
}

func TestErrorsCarryStderr(t *testing.T) {
	store := &Store{run: func(context.Context, string, ...string) (string, string, error) {
		return "", "gpg: decryption failed", errors.New("exit status 2")
	}}

	_, err := store.Get(context.Background(), "signer/default/mainnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpg: decryption failed")
}

func TestUnavailableBinarySurfacesSentinel(t *testing.T) {
	store := &Store{run: func(context.Context, string, ...string) (string, string, error) {
		return "", "", ErrUnavailable
	}}

	err := store.Put(context.Background(), "signer/default/mainnet", "v")
	require.ErrorIs(t, err, ErrUnavailable)
}
