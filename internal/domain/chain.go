package domain

import "fmt"

// ChainConfig describes one supported chain: where to reach it and
// which registry contract records slot ownership.
type ChainConfig struct {
	Name             string
	RPCURL           string
	RegistryContract string
}

// builtinChains carries the shipped defaults. The RPC URL can be
// overridden per profile via the bundle's chain_rpc_url, and globally
// via the CLI config file.
var builtinChains = map[string]ChainConfig{
	"mainnet": {
		Name:             "mainnet",
		RPCURL:           "https://rpc.slotwise.network",
		RegistryContract: "0x000aa7d3a6a2556496f363b59e56d9aa1881548f",
	},
	"devnet": {
		Name:             "devnet",
		RPCURL:           "https://rpc-devnet.slotwise.network",
		RegistryContract: "0x1f3b2c9f4f8a60c1a5b3d2e4c6a8b0d2e4f6a8c0",
	},
}

// ChainByName resolves a chain name, case-insensitively via
// normalizeToken.
func ChainByName(name string) (ChainConfig, error) {
	cfg, ok := builtinChains[normalizeToken(name)]
	if !ok {
		return ChainConfig{}, fmt.Errorf("unknown chain %q (supported: %s)", name, "mainnet, devnet")
	}
	return cfg, nil
}

// ChainNames lists supported chains for help text and validation.
func ChainNames() []string {
	return []string{"mainnet", "devnet"}
}
