package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	values map[string]string
	err    error
	puts   int
}

func newStubStore() *stubStore {
	return &stubStore{values: map[string]string{}}
}

func (s *stubStore) Put(_ context.Context, key, value string) error {
	s.puts++
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.values, key)
	return nil
}

func TestPrimaryWinsWhenHealthy(t *testing.T) {
	primary := newStubStore()
	fallback := newStubStore()
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", "v"))
	assert.Equal(t, "v", primary.values["k"])
	assert.Empty(t, fallback.values)
}

func TestFallbackUsedWhenPrimaryFails(t *testing.T) {
	primary := newStubStore()
	primary.err = errors.New("pass unavailable")
	fallback := newStubStore()
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", "v"))
	assert.Equal(t, "v", fallback.values["k"])

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestBothBackendsFailingReportsBoth(t *testing.T) {
	primary := newStubStore()
	primary.err = errors.New("primary broken")
	fallback := newStubStore()
	fallback.err = errors.New("fallback broken")
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	err = store.Put(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary broken")
	assert.Contains(t, err.Error(), "fallback broken")
}

func TestCancellationSkipsFallback(t *testing.T) {
	primary := newStubStore()
	primary.err = context.Canceled
	fallback := newStubStore()
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	err = store.Put(context.Background(), "k", "v")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fallback.puts)
}

func TestNilBackendsRejected(t *testing.T) {
	_, err := NewStore(nil, newStubStore())
	require.Error(t, err)
	_, err = NewStore(newStubStore(), nil)
	require.Error(t, err)
}
