package ports

import "context"

// WorkspaceStore materializes and removes per-instance on-disk
// workspaces (generated env files, state directories).
type WorkspaceStore interface {
	// Materialize writes the env map for the named instance and
	// returns the workspace directory path.
	Materialize(ctx context.Context, name string, env map[string]string) (string, error)
	Remove(ctx context.Context, path string) error
	// Path returns where the named instance's workspace would live,
	// whether or not it exists.
	Path(name string) string
}
