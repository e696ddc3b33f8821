package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version       int             `toml:"version"`
	ActiveProfile string          `toml:"active_profile,omitempty"`
	Profiles      []profileSchema `toml:"profiles"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description,omitempty"`
	CreatedAt   string         `toml:"created_at,omitempty"`
	Bundles     []bundleSchema `toml:"bundles,omitempty"`
}

type bundleSchema struct {
	Chain  string `toml:"chain"`
	Market string `toml:"market"`

	WalletAddress string `toml:"wallet_address"`
	SignerAddress string `toml:"signer_address"`
	SignerKeyRef  string `toml:"signer_key_ref"`
	SourceRPCURL  string `toml:"source_rpc_url"`
	ChainRPCURL   string `toml:"chain_rpc_url"`
	Image         string `toml:"image"`

	TelegramChatID       string `toml:"telegram_chat_id,omitempty"`
	TelegramReportingURL string `toml:"telegram_reporting_url,omitempty"`
}
