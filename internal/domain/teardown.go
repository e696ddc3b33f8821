package domain

// ResourceKind tags a teardown unit.
type ResourceKind string

const (
	ResourceContainer ResourceKind = "container"
	ResourceNetwork   ResourceKind = "network"
	ResourceSession   ResourceKind = "session"
	ResourceWorkspace ResourceKind = "workspace"
)

// ResourceHandle references one runtime resource with enough identity
// to stop, kill, or remove it independently. The Teardown Engine
// borrows handles for the duration of one call and retains nothing.
type ResourceHandle struct {
	Kind ResourceKind
	// ID is the runtime identity (container id, network id). Empty for
	// sessions and workspaces, which are addressed by name/path.
	ID   string
	Name string
	Slot SlotID
}

// TeardownStep is one rung of the escalation ladder actually taken.
type TeardownStep string

const (
	StepStopped     TeardownStep = "stopped"
	StepStuck       TeardownStep = "stuck"
	StepForceKilled TeardownStep = "force_killed"
	StepRemoved     TeardownStep = "removed"
	StepReResolved  TeardownStep = "re_resolved"
)

// TeardownStatus is the terminal state of one handle's teardown.
type TeardownStatus string

const (
	TeardownRemoved TeardownStatus = "removed"
	TeardownFailed  TeardownStatus = "failed"
	// TeardownSkipped covers dry runs and handles never attempted
	// because the batch was cancelled.
	TeardownSkipped TeardownStatus = "skipped"
)

// TeardownOutcome reports what happened to one handle. A teardown of N
// handles always yields exactly N outcomes.
type TeardownOutcome struct {
	Handle ResourceHandle
	Steps  []TeardownStep
	Status TeardownStatus
	// Reason carries the failure or skip cause, naming the escalation
	// step that failed.
	Reason string
	// Advisory marks non-fatal failures, e.g. a network that still has
	// endpoints attached; system-wide cleanup is recommended instead.
	Advisory bool
}
