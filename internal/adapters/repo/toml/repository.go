// Package toml persists profiles and their configuration bundles in a
// single TOML file with atomic replace-on-write semantics.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

const (
	configName       = "config"
	configType       = "toml"
	profilesPathKey  = "profiles.path"
	profilesFileMode = 0o600
	profilesDirMode  = 0o700
	configDirName    = ".slotctl"
	profilesFileName = "profiles.toml"
	tempFilePattern  = ".profiles-*.toml.tmp"
)

type Repository struct {
	profilesPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

// NewRepository resolves the profiles file location from the CLI
// config (profiles.path), defaulting to ~/.slotctl/profiles.toml.
func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDirName, profilesFileName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))
	cfg.SetDefault(profilesPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	profilesPath := cfg.GetString(profilesPathKey)
	if profilesPath == "" {
		return nil, errors.New("profiles path is empty")
	}
	profilesPath, err = normalizeProfilesPath(profilesPath)
	if err != nil {
		return nil, err
	}

	return &Repository{profilesPath: profilesPath, mu: lockForPath(profilesPath)}, nil
}

// NewRepositoryAt binds the repository to an explicit file path.
func NewRepositoryAt(path string) (*Repository, error) {
	path, err := normalizeProfilesPath(path)
	if err != nil {
		return nil, err
	}
	return &Repository{profilesPath: path, mu: lockForPath(path)}, nil
}

func (r *Repository) CreateProfile(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	for _, p := range file.Profiles {
		if p.Name == profile.Name {
			return fmt.Errorf("%w: %s", domain.ErrProfileExists, profile.Name)
		}
	}
	file.Profiles = append(file.Profiles, profileSchema{
		Name:        profile.Name,
		Description: profile.Description,
		CreatedAt:   formatTime(profile.CreatedAt),
	})

	return r.writeSchema(file)
}

func (r *Repository) DeleteProfile(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Profiles[:0]
	found := false
	for _, p := range file.Profiles {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	file.Profiles = kept
	if file.ActiveProfile == name {
		file.ActiveProfile = ""
	}

	return r.writeSchema(file)
}

func (r *Repository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(file.Profiles)+1)
	seenDefault := false
	for _, p := range file.Profiles {
		if p.Name == domain.DefaultProfile {
			seenDefault = true
		}
		profiles = append(profiles, domain.Profile{
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   parseTime(p.CreatedAt),
		})
	}
	// The default profile exists whether or not it was ever written.
	if !seenDefault {
		profiles = append(profiles, domain.Profile{Name: domain.DefaultProfile})
	}

	return profiles, nil
}

func (r *Repository) ActiveProfile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return "", err
	}
	return file.ActiveProfile, nil
}

func (r *Repository) SetActiveProfile(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	if name != domain.DefaultProfile && findProfile(file, name) == nil {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	file.ActiveProfile = name

	return r.writeSchema(file)
}

func (r *Repository) GetBundle(ctx context.Context, profile string, key domain.BundleKey) (domain.ConfigBundle, error) {
	if err := ctx.Err(); err != nil {
		return domain.ConfigBundle{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.ConfigBundle{}, err
	}

	p := findProfile(file, profile)
	if p == nil {
		return domain.ConfigBundle{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profile)
	}
	for _, b := range p.Bundles {
		if b.Chain == key.Chain && b.Market == key.Market {
			return fromBundleSchema(b), nil
		}
	}

	return domain.ConfigBundle{}, fmt.Errorf("%w: %s/%s in profile %s", domain.ErrBundleNotFound, key.Chain, key.Market, profile)
}

func (r *Repository) SaveBundle(ctx context.Context, profile string, key domain.BundleKey, bundle domain.ConfigBundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	p := findProfile(file, profile)
	if p == nil {
		if profile != domain.DefaultProfile {
			return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profile)
		}
		file.Profiles = append(file.Profiles, profileSchema{Name: domain.DefaultProfile})
		p = &file.Profiles[len(file.Profiles)-1]
	}

	encoded := toBundleSchema(key, bundle)
	updated := false
	for i := range p.Bundles {
		if p.Bundles[i].Chain == key.Chain && p.Bundles[i].Market == key.Market {
			p.Bundles[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		p.Bundles = append(p.Bundles, encoded)
	}

	return r.writeSchema(file)
}

func (r *Repository) ListBundles(ctx context.Context, profile string) ([]domain.BundleKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	p := findProfile(file, profile)
	if p == nil {
		if profile == domain.DefaultProfile {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profile)
	}

	keys := make([]domain.BundleKey, 0, len(p.Bundles))
	for _, b := range p.Bundles {
		keys = append(keys, domain.BundleKey{Chain: b.Chain, Market: b.Market})
	}
	return keys, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.profilesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read profiles file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profiles file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.profilesPath), profilesDirMode); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profiles file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.profilesPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profiles file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profiles file: %w", err)
	}

	if err := tempFile.Chmod(profilesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profiles file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profiles file: %w", err)
	}

	if err := os.Rename(tempName, r.profilesPath); err != nil {
		return fmt.Errorf("replace profiles file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.profilesPath, profilesFileMode); err != nil {
		return fmt.Errorf("chmod profiles file: %w", err)
	}

	return nil
}

func findProfile(file fileSchema, name string) *profileSchema {
	for i := range file.Profiles {
		if file.Profiles[i].Name == name {
			return &file.Profiles[i]
		}
	}
	return nil
}

func normalizeProfilesPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profiles path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toBundleSchema(key domain.BundleKey, b domain.ConfigBundle) bundleSchema {
	return bundleSchema{
		Chain:                key.Chain,
		Market:               key.Market,
		WalletAddress:        string(b.WalletAddress),
		SignerAddress:        string(b.SignerAddress),
		SignerKeyRef:         b.SignerKeyRef,
		SourceRPCURL:         b.SourceRPCURL,
		ChainRPCURL:          b.ChainRPCURL,
		Image:                b.Image,
		TelegramChatID:       b.TelegramChatID,
		TelegramReportingURL: b.TelegramReportingURL,
	}
}

func fromBundleSchema(b bundleSchema) domain.ConfigBundle {
	return domain.ConfigBundle{
		WalletAddress:        domain.Address(b.WalletAddress),
		SignerAddress:        domain.Address(b.SignerAddress),
		SignerKeyRef:         b.SignerKeyRef,
		SourceRPCURL:         b.SourceRPCURL,
		ChainRPCURL:          b.ChainRPCURL,
		Image:                b.Image,
		TelegramChatID:       b.TelegramChatID,
		TelegramReportingURL: b.TelegramReportingURL,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
