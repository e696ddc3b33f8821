package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultProfile is the profile used when none was ever selected.
const DefaultProfile = "default"

// Profile namespaces configuration so several wallet/market contexts
// coexist without collision. Exactly one profile is active per
// invocation.
type Profile struct {
	Name        string
	Description string
	CreatedAt   time.Time
}

// ConfigBundle is one profile's configuration for a (chain, market)
// pair: credentials plus per-market overrides consumed by the
// Deployment Executor. A stored bundle is either absent or fully
// populated; a partial bundle is a load-time error.
type ConfigBundle struct {
	WalletAddress Address
	SignerAddress Address
	SignerKeyRef  string
	SourceRPCURL  string
	ChainRPCURL   string
	Image         string

	TelegramChatID       string
	TelegramReportingURL string
}

// Validate reports every missing required field at once so the
// operator fixes the bundle in one pass. Telegram settings are
// optional.
func (b ConfigBundle) Validate() error {
	var missing []string
	if b.WalletAddress == "" {
		missing = append(missing, "wallet_address")
	}
	if b.SignerAddress == "" {
		missing = append(missing, "signer_address")
	}
	if b.SignerKeyRef == "" {
		missing = append(missing, "signer_key_ref")
	}
	if b.SourceRPCURL == "" {
		missing = append(missing, "source_rpc_url")
	}
	if b.ChainRPCURL == "" {
		missing = append(missing, "chain_rpc_url")
	}
	if b.Image == "" {
		missing = append(missing, "image")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfigIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// BundleKey names one (chain, market) bundle inside a profile.
type BundleKey struct {
	Chain  string
	Market string
}
