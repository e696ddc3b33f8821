package ports

import (
	"context"

	"github.com/slotwise/slotctl/internal/domain"
)

// ProfileRepository persists profiles and their per-(chain, market)
// configuration bundles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile domain.Profile) error
	DeleteProfile(ctx context.Context, name string) error
	ListProfiles(ctx context.Context) ([]domain.Profile, error)

	ActiveProfile(ctx context.Context) (string, error)
	SetActiveProfile(ctx context.Context, name string) error

	GetBundle(ctx context.Context, profile string, key domain.BundleKey) (domain.ConfigBundle, error)
	SaveBundle(ctx context.Context, profile string, key domain.BundleKey, bundle domain.ConfigBundle) error
	ListBundles(ctx context.Context, profile string) ([]domain.BundleKey, error)
}
