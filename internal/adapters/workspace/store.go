// Package workspace materializes per-instance on-disk workspaces
// holding the generated env file each container is started from.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/slotwise/slotctl/internal/ports"
)

const (
	deploymentsDir = "deployments"
	envFileName    = ".env"
	envFileMode    = 0o600
	dirMode        = 0o700
	tempPattern    = ".env-*.tmp"
)

// Store keeps workspaces under <root>/deployments/<instance-name>/.
type Store struct {
	root string
}

// New roots the store at dir, typically ~/.slotctl.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Store{root: filepath.Clean(abs)}, nil
}

// DefaultRoot returns the per-user workspace root.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".slotctl"), nil
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.root, deploymentsDir, name)
}

// Materialize writes the env file atomically (temp file plus rename)
// so a crashed run never leaves a half-written file behind for the
// next deployment to start a container from.
func (s *Store) Materialize(ctx context.Context, name string, env map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.Path(name)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("create workspace directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("create temp env file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.WriteString(renderEnv(env)); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("write temp env file: %w", err)
	}
	if err := tempFile.Chmod(envFileMode); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("chmod temp env file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close temp env file: %w", err)
	}

	if err := os.Rename(tempName, filepath.Join(dir, envFileName)); err != nil {
		return "", fmt.Errorf("replace env file: %w", err)
	}
	cleanup = false

	return dir, nil
}

// Remove deletes one workspace directory. Paths outside the store's
// deployments root are refused rather than removed.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve workspace path: %w", err)
	}
	base := filepath.Join(s.root, deploymentsDir) + string(filepath.Separator)
	if !strings.HasPrefix(abs, base) {
		return fmt.Errorf("refusing to remove %s: outside workspace root", abs)
	}

	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}

// renderEnv emits KEY=VALUE lines in sorted order so env files diff
// cleanly between deployments.
func renderEnv(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}
	return b.String()
}

var _ ports.WorkspaceStore = (*Store)(nil)
