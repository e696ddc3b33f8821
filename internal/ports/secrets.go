package ports

import "context"

// SecretStore holds signer key material referenced from configuration
// bundles by signer_key_ref. Values never land in the profiles file.
type SecretStore interface {
	Put(ctx context.Context, key string, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
