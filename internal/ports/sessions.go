package ports

import "context"

// SessionManager controls detachable terminal sessions used for
// interactive log trailing. Session names follow the same grammar as
// container names.
type SessionManager interface {
	// List returns session names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	Start(ctx context.Context, name string, command []string) error
	Kill(ctx context.Context, name string) error
}
