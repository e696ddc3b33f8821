package domain

// ProfileScope is the explicit invocation context threaded through
// planning and deployment instead of ambient global state.
type ProfileScope struct {
	Profile string
	Wallet  Address
	Chain   string
	Market  string
}

// OrphanPolicy controls whether an instance for an owned slot that was
// started under a different profile still counts as orphaned.
type OrphanPolicy int

const (
	// OrphanByOwnership marks an instance orphaned only when its slot
	// is absent from the owned set. Default.
	OrphanByOwnership OrphanPolicy = iota
	// OrphanByOwnershipAndProfile additionally orphans instances whose
	// profile label differs from the active scope, catching stale
	// containers left behind by a profile switch.
	OrphanByOwnershipAndProfile
)

// ActionPlan is the reconciler's output: four disjoint, id-sorted
// buckets. Every slot id present in the requested set or the running
// set appears in exactly one bucket.
type ActionPlan struct {
	ToStart          []SlotID
	AlreadyRunning   []SlotID
	Orphaned         []SlotID
	UnownedRequested []SlotID
}

// Empty reports whether the plan requires no action and observed no
// running instances.
func (p ActionPlan) Empty() bool {
	return len(p.ToStart) == 0 && len(p.AlreadyRunning) == 0 &&
		len(p.Orphaned) == 0 && len(p.UnownedRequested) == 0
}
