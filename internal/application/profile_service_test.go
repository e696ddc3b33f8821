package application

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/slotctl/internal/domain"
)

type memProfileRepo struct {
	profiles map[string]domain.Profile
	bundles  map[string]map[domain.BundleKey]domain.ConfigBundle
	active   string
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{
		profiles: map[string]domain.Profile{
			domain.DefaultProfile: {Name: domain.DefaultProfile},
		},
		bundles: make(map[string]map[domain.BundleKey]domain.ConfigBundle),
	}
}

func (r *memProfileRepo) CreateProfile(_ context.Context, p domain.Profile) error {
	if _, ok := r.profiles[p.Name]; ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileExists, p.Name)
	}
	r.profiles[p.Name] = p
	return nil
}

func (r *memProfileRepo) DeleteProfile(_ context.Context, name string) error {
	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	delete(r.profiles, name)
	delete(r.bundles, name)
	return nil
}

func (r *memProfileRepo) ListProfiles(context.Context) ([]domain.Profile, error) {
	out := make([]domain.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProfileRepo) ActiveProfile(context.Context) (string, error) { return r.active, nil }

func (r *memProfileRepo) SetActiveProfile(_ context.Context, name string) error {
	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	r.active = name
	return nil
}

func (r *memProfileRepo) GetBundle(_ context.Context, profile string, key domain.BundleKey) (domain.ConfigBundle, error) {
	b, ok := r.bundles[profile][key]
	if !ok {
		return domain.ConfigBundle{}, domain.ErrBundleNotFound
	}
	return b, nil
}

func (r *memProfileRepo) SaveBundle(_ context.Context, profile string, key domain.BundleKey, bundle domain.ConfigBundle) error {
	if r.bundles[profile] == nil {
		r.bundles[profile] = make(map[domain.BundleKey]domain.ConfigBundle)
	}
	r.bundles[profile][key] = bundle
	return nil
}

func (r *memProfileRepo) ListBundles(_ context.Context, profile string) ([]domain.BundleKey, error) {
	keys := make([]domain.BundleKey, 0, len(r.bundles[profile]))
	for k := range r.bundles[profile] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Chain != keys[j].Chain {
			return keys[i].Chain < keys[j].Chain
		}
		return keys[i].Market < keys[j].Market
	})
	return keys, nil
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestProfileCreateStampsCreationTime(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := NewProfileService(newMemProfileRepo(), fixedClock(now))

	p, err := svc.Create(context.Background(), "  staking  ", "staking wallet")
	require.NoError(t, err)
	assert.Equal(t, "staking", p.Name)
	assert.Equal(t, now, p.CreatedAt)

	_, err = svc.Create(context.Background(), "staking", "")
	require.ErrorIs(t, err, domain.ErrProfileExists)
}

func TestProfileCreateRejectsEmptyName(t *testing.T) {
	svc := NewProfileService(newMemProfileRepo(), nil)
	_, err := svc.Create(context.Background(), "   ", "")
	require.Error(t, err)
}

func TestProfileDeleteRefusesDefault(t *testing.T) {
	repo := newMemProfileRepo()
	svc := NewProfileService(repo, nil)

	err := svc.Delete(context.Background(), domain.DefaultProfile)
	require.Error(t, err)
	assert.Contains(t, repo.profiles, domain.DefaultProfile)
}

func TestProfileResolvePrecedence(t *testing.T) {
	repo := newMemProfileRepo()
	svc := NewProfileService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "staking", "")
	require.NoError(t, err)

	// No active profile set: fall back to the default.
	got, err := svc.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProfile, got)

	// Stored active profile wins over the default.
	require.NoError(t, svc.Use(ctx, "staking"))
	got, err = svc.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "staking", got)

	// Explicit override wins over the active profile.
	got, err = svc.Resolve(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "default", got)

	// Explicit override must exist.
	_, err = svc.Resolve(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestBundleRoundTripAndValidation(t *testing.T) {
	svc := NewProfileService(newMemProfileRepo(), nil)
	ctx := context.Background()
	key := domain.BundleKey{Chain: "mainnet", Market: "uniswapv2"}

	// Partial bundles are rejected before they are persisted.
	partial := testBundle
	partial.SignerKeyRef = ""
	err := svc.SaveBundle(ctx, "default", key, partial)
	require.ErrorIs(t, err, domain.ErrConfigIncomplete)

	_, err = svc.LoadBundle(ctx, "default", key)
	require.ErrorIs(t, err, domain.ErrBundleNotFound)

	require.NoError(t, svc.SaveBundle(ctx, "default", key, testBundle))
	got, err := svc.LoadBundle(ctx, "default", key)
	require.NoError(t, err)
	assert.Equal(t, testBundle, got)

	keys, err := svc.Bundles(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []domain.BundleKey{key}, keys)
}

func TestLoadBundleRevalidatesStoredData(t *testing.T) {
	repo := newMemProfileRepo()
	svc := NewProfileService(repo, nil)
	ctx := context.Background()
	key := domain.BundleKey{Chain: "mainnet", Market: "uniswapv2"}

	// Corrupt data written behind the service's back must not reach a
	// deployment.
	corrupt := testBundle
	corrupt.Image = ""
	require.NoError(t, repo.SaveBundle(ctx, "default", key, corrupt))

	_, err := svc.LoadBundle(ctx, "default", key)
	require.ErrorIs(t, err, domain.ErrConfigIncomplete)
}
