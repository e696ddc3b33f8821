// Package ledger resolves slot ownership from the on-chain registry
// contract via JSON-RPC.
package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

// getUserOwnedNodeIds(address) returns uint256[].
var ownedSlotsSelector = crypto.Keccak256([]byte("getUserOwnedNodeIds(address)"))[:4]

// Resolver queries the registry contract with a raw eth_call. It keeps
// no cache: every call reflects the chain head at query time.
type Resolver struct {
	client   *ethclient.Client
	registry common.Address
	logger   zerolog.Logger
}

// New dials the chain RPC endpoint and binds the resolver to the
// chain's registry contract.
func New(ctx context.Context, cfg domain.ChainConfig, logger zerolog.Logger) (*Resolver, error) {
	if !common.IsHexAddress(cfg.RegistryContract) {
		return nil, fmt.Errorf("invalid registry contract address %q", cfg.RegistryContract)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrLedgerUnreachable, cfg.RPCURL, err)
	}

	return &Resolver{
		client:   client,
		registry: common.HexToAddress(cfg.RegistryContract),
		logger:   logger.With().Str("component", "ledger").Str("chain", cfg.Name).Logger(),
	}, nil
}

// Close releases the underlying RPC connection.
func (r *Resolver) Close() {
	r.client.Close()
}

// OwnedSlots returns every slot id the wallet owns, in contract order.
// A transport or decode failure surfaces as an error; it is never
// collapsed into an empty set.
func (r *Resolver) OwnedSlots(ctx context.Context, wallet domain.Address) ([]domain.SlotID, error) {
	if !common.IsHexAddress(string(wallet)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, wallet)
	}
	owner := common.HexToAddress(string(wallet))

	data := make([]byte, 0, 4+32)
	data = append(data, ownedSlotsSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)

	raw, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.registry,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: call registry %s: %v", domain.ErrLedgerUnreachable, r.registry.Hex(), err)
	}

	slots, err := decodeSlotArray(raw)
	if err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	r.logger.Debug().Str("wallet", owner.Hex()).Int("owned", len(slots)).Msg("resolved owned slots")
	return slots, nil
}

// decodeSlotArray unpacks an ABI-encoded dynamic uint256[]: a 32-byte
// offset, a 32-byte length, then one 32-byte word per element.
func decodeSlotArray(raw []byte) ([]domain.SlotID, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty response (registry contract missing?)")
	}
	if len(raw) < 64 || len(raw)%32 != 0 {
		return nil, fmt.Errorf("malformed response of %d bytes", len(raw))
	}

	offset := new(big.Int).SetBytes(raw[:32])
	if !offset.IsUint64() || offset.Uint64()+32 > uint64(len(raw)) {
		return nil, fmt.Errorf("array offset %s out of range", offset)
	}
	body := raw[offset.Uint64():]

	length := new(big.Int).SetBytes(body[:32])
	if !length.IsUint64() || 32+length.Uint64()*32 > uint64(len(body)) {
		return nil, fmt.Errorf("array length %s out of range", length)
	}

	n := length.Uint64()
	slots := make([]domain.SlotID, 0, n)
	for i := uint64(0); i < n; i++ {
		word := body[32+i*32 : 64+i*32]
		v := new(big.Int).SetBytes(word)
		if !v.IsUint64() {
			return nil, fmt.Errorf("slot id at index %d exceeds uint64", i)
		}
		slots = append(slots, domain.SlotID(v.Uint64()))
	}
	return slots, nil
}

// Factory adapts New into a ports.LedgerFactory for wiring.
func Factory(logger zerolog.Logger) ports.LedgerFactory {
	return func(cfg domain.ChainConfig) (ports.SlotLedger, error) {
		return New(context.Background(), cfg, logger)
	}
}
