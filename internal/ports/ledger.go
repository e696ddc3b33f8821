package ports

import (
	"context"

	"github.com/slotwise/slotctl/internal/domain"
)

// SlotLedger resolves slot ownership from the authoritative on-chain
// registry. Implementations are bound to one chain endpoint; they
// perform no retries and no caching. A failed query must surface as
// domain.ErrLedgerUnreachable, never as an empty set.
type SlotLedger interface {
	OwnedSlots(ctx context.Context, wallet domain.Address) ([]domain.SlotID, error)
}

// LedgerFactory builds a ledger bound to the given chain. Deploy and
// check resolve the chain at invocation time, so the ledger is
// constructed per call rather than wired once.
type LedgerFactory func(chain domain.ChainConfig) (SlotLedger, error)
