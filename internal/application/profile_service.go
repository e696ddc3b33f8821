package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

// ProfileService manages named configuration namespaces and their
// per-(chain, market) bundles.
type ProfileService struct {
	repo  ports.ProfileRepository
	clock ports.Clock
}

func NewProfileService(repo ports.ProfileRepository, clock ports.Clock) *ProfileService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &ProfileService{repo: repo, clock: clock}
}

func (s *ProfileService) Create(ctx context.Context, name, description string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, fmt.Errorf("profile name is empty")
	}

	profile := domain.Profile{
		Name:        name,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) Delete(ctx context.Context, name string) error {
	if name == domain.DefaultProfile {
		return fmt.Errorf("the %s profile cannot be deleted", domain.DefaultProfile)
	}
	if err := s.repo.DeleteProfile(ctx, name); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (s *ProfileService) List(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Use marks a profile as the active one for subsequent invocations.
func (s *ProfileService) Use(ctx context.Context, name string) error {
	if err := s.repo.SetActiveProfile(ctx, name); err != nil {
		return fmt.Errorf("set active profile: %w", err)
	}
	return nil
}

// Resolve picks the effective profile for this invocation: the
// explicit override when given, otherwise the stored active profile,
// falling back to the default.
func (s *ProfileService) Resolve(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		profiles, err := s.repo.ListProfiles(ctx)
		if err != nil {
			return "", fmt.Errorf("list profiles: %w", err)
		}
		for _, p := range profiles {
			if p.Name == explicit {
				return explicit, nil
			}
		}
		return "", fmt.Errorf("%w: %s", domain.ErrProfileNotFound, explicit)
	}

	active, err := s.repo.ActiveProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve active profile: %w", err)
	}
	if active == "" {
		return domain.DefaultProfile, nil
	}
	return active, nil
}

// Bundles lists which (chain, market) bundles a profile carries.
func (s *ProfileService) Bundles(ctx context.Context, profile string) ([]domain.BundleKey, error) {
	keys, err := s.repo.ListBundles(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	return keys, nil
}

// SaveBundle validates and stores a bundle. Partial bundles are
// rejected here, before anything could consume them.
func (s *ProfileService) SaveBundle(ctx context.Context, profile string, key domain.BundleKey, bundle domain.ConfigBundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}
	if err := s.repo.SaveBundle(ctx, profile, key, bundle); err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}
	return nil
}

// LoadBundle fetches a bundle and re-validates it so configuration
// corruption surfaces before any deployment starts.
func (s *ProfileService) LoadBundle(ctx context.Context, profile string, key domain.BundleKey) (domain.ConfigBundle, error) {
	bundle, err := s.repo.GetBundle(ctx, profile, key)
	if err != nil {
		return domain.ConfigBundle{}, fmt.Errorf("load bundle for %s/%s on %s: %w", profile, key.Market, key.Chain, err)
	}
	if err := bundle.Validate(); err != nil {
		return domain.ConfigBundle{}, err
	}
	return bundle, nil
}
