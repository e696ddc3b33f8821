package application

import (
	"github.com/slotwise/slotctl/internal/domain"
)

// Plan reconciles ownership against local runtime state. It is a pure
// function of its inputs.
//
// Bucket rules, in precedence order:
//
//  1. A running instance whose slot is not owned is Orphaned, even if
//     the caller requested it and even if it was this session's own
//     prior deployment. Ownership is the sole authority.
//  2. With OrphanByOwnershipAndProfile, a running instance for an
//     owned slot whose profile label differs from scope.Profile is
//     also Orphaned.
//  3. A requested slot that is not owned and not running is
//     UnownedRequested; it must never be started.
//  4. A candidate slot with a live matching instance is
//     AlreadyRunning; otherwise it is ToStart.
//
// When requested.All is set the candidate set is the owned set. Output
// buckets are sorted by id so reports are reproducible.
func Plan(
	owned []domain.SlotID,
	requested domain.SlotSelection,
	running []domain.RuntimeInstance,
	scope domain.ProfileScope,
	policy domain.OrphanPolicy,
) domain.ActionPlan {
	ownedSet := make(map[domain.SlotID]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	// An owned slot's instance can still be classified orphaned under
	// the profile policy; track which running slots remain usable.
	aliveOwned := make(map[domain.SlotID]struct{})
	orphanSet := make(map[domain.SlotID]struct{})
	for _, inst := range running {
		if _, ok := ownedSet[inst.Slot]; !ok {
			orphanSet[inst.Slot] = struct{}{}
			continue
		}
		if policy == domain.OrphanByOwnershipAndProfile &&
			inst.Profile != "" && scope.Profile != "" && inst.Profile != scope.Profile {
			orphanSet[inst.Slot] = struct{}{}
			continue
		}
		aliveOwned[inst.Slot] = struct{}{}
	}

	candidates := requested.IDs
	if requested.All {
		candidates = owned
	}

	var plan domain.ActionPlan
	seen := make(map[domain.SlotID]struct{}, len(candidates))
	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := ownedSet[id]; !ok {
			// Running-but-unowned already lands in Orphaned above;
			// keep the buckets disjoint.
			if _, isOrphan := orphanSet[id]; !isOrphan {
				plan.UnownedRequested = append(plan.UnownedRequested, id)
			}
			continue
		}
		if _, alive := aliveOwned[id]; alive {
			plan.AlreadyRunning = append(plan.AlreadyRunning, id)
			continue
		}
		if _, isOrphan := orphanSet[id]; isOrphan {
			// The slot's instance belongs to another profile; the
			// orphan bucket owns the id, the deploy is skipped until
			// the stale instance is cleaned up.
			continue
		}
		plan.ToStart = append(plan.ToStart, id)
	}

	// Running owned instances the caller did not request are still
	// accounted for, so every requested or running id lands in a bucket.
	for id := range aliveOwned {
		if _, dup := seen[id]; !dup {
			plan.AlreadyRunning = append(plan.AlreadyRunning, id)
		}
	}
	for id := range orphanSet {
		plan.Orphaned = append(plan.Orphaned, id)
	}

	domain.SortSlotIDs(plan.ToStart)
	domain.SortSlotIDs(plan.AlreadyRunning)
	domain.SortSlotIDs(plan.Orphaned)
	domain.SortSlotIDs(plan.UnownedRequested)
	return plan
}
