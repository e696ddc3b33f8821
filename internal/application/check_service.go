package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

// Report is the reconciliation report: owned versus actually running,
// plus advisory cross-checks between containers and log sessions.
type Report struct {
	Wallet domain.Address
	Chain  string
	Market string

	Owned      []domain.SlotID
	Running    []domain.SlotID
	NotRunning []domain.SlotID
	Orphaned   []domain.SlotID

	// Unparsed lists resources matching the workload prefix whose
	// names did not parse; they are excluded from reconciliation.
	Unparsed []string

	ContainersWithoutSessions []domain.SlotID
	SessionsWithoutContainers []domain.SlotID
}

// CheckService composes the ownership resolver, runtime inventory, and
// reconciler into a read-only drift report. No state, no mutation.
type CheckService struct {
	inventory *Inventory
	ledgerFor ports.LedgerFactory
	logger    zerolog.Logger

	orphanPolicy domain.OrphanPolicy
}

func NewCheckService(inventory *Inventory, ledgerFor ports.LedgerFactory, logger zerolog.Logger) *CheckService {
	return &CheckService{
		inventory:    inventory,
		ledgerFor:    ledgerFor,
		logger:       logger.With().Str("component", "check").Logger(),
		orphanPolicy: domain.OrphanByOwnership,
	}
}

// SetOrphanPolicy switches how profile mismatches are classified.
func (s *CheckService) SetOrphanPolicy(policy domain.OrphanPolicy) {
	s.orphanPolicy = policy
}

// Check builds the report for the scope's wallet on the scope's chain,
// optionally filtered to one market. A ledger failure aborts the whole
// check; it is never reported as zero owned slots.
func (s *CheckService) Check(ctx context.Context, scope domain.ProfileScope, chainCfg domain.ChainConfig) (Report, error) {
	ledger, err := s.ledgerFor(chainCfg)
	if err != nil {
		return Report{}, fmt.Errorf("build ledger client: %w", err)
	}

	owned, err := ledger.OwnedSlots(ctx, scope.Wallet)
	if err != nil {
		return Report{}, fmt.Errorf("resolve owned slots: %w", err)
	}
	domain.SortSlotIDs(owned)

	running, unparsed, err := s.inventory.ListRunning(ctx, scope.Chain, scope.Market)
	if err != nil {
		return Report{}, fmt.Errorf("list running instances: %w", err)
	}

	plan := Plan(owned, domain.SlotSelection{All: true}, running, scope, s.orphanPolicy)

	report := Report{
		Wallet:     scope.Wallet,
		Chain:      scope.Chain,
		Market:     scope.Market,
		Owned:      owned,
		Running:    plan.AlreadyRunning,
		NotRunning: plan.ToStart,
		Orphaned:   plan.Orphaned,
		Unparsed:   unparsed,
	}

	sessionSlots, err := s.inventory.SessionSlots(ctx, scope.Chain, scope.Market)
	if err != nil {
		// Sessions are advisory; a broken session manager must not
		// hide the container-level report.
		s.logger.Warn().Err(err).Msg("could not list log sessions")
		return report, nil
	}

	runningSet := make(map[domain.SlotID]struct{}, len(running))
	for _, inst := range running {
		runningSet[inst.Slot] = struct{}{}
		if _, ok := sessionSlots[inst.Slot]; !ok {
			report.ContainersWithoutSessions = append(report.ContainersWithoutSessions, inst.Slot)
		}
	}
	for slot := range sessionSlots {
		if _, ok := runningSet[slot]; !ok {
			report.SessionsWithoutContainers = append(report.SessionsWithoutContainers, slot)
		}
	}
	domain.SortSlotIDs(report.ContainersWithoutSessions)
	domain.SortSlotIDs(report.SessionsWithoutContainers)

	return report, nil
}
