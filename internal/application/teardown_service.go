package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

const (
	defaultTeardownWorkers = 4
	defaultStopTimeout     = 10 * time.Second
)

// TeardownOptions tune one teardown call.
type TeardownOptions struct {
	// Parallelism caps concurrent teardowns; defaults to 4.
	Parallelism int
	// StopTimeout bounds the graceful stop before escalating.
	StopTimeout time.Duration
	// DryRun classifies handles without any mutating call.
	DryRun bool
}

func (o TeardownOptions) withDefaults() TeardownOptions {
	if o.Parallelism <= 0 {
		o.Parallelism = defaultTeardownWorkers
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}
	return o
}

// TeardownService dismantles runtime resources with bounded
// parallelism, escalating from graceful stop to kill to remove. It
// borrows handles for the duration of one call and keeps no state
// between calls.
type TeardownService struct {
	runtime    ports.ContainerRuntime
	sessions   ports.SessionManager
	workspaces ports.WorkspaceStore
	logger     zerolog.Logger
}

func NewTeardownService(
	runtime ports.ContainerRuntime,
	sessions ports.SessionManager,
	workspaces ports.WorkspaceStore,
	logger zerolog.Logger,
) *TeardownService {
	return &TeardownService{
		runtime:    runtime,
		sessions:   sessions,
		workspaces: workspaces,
		logger:     logger.With().Str("component", "teardown").Logger(),
	}
}

// Teardown dismantles every handle and returns exactly len(handles)
// outcomes; one failure never aborts the batch. Networks are processed
// only after every non-network handle has reached a terminal state,
// since a network with live endpoints cannot be removed. On
// cancellation, handles not yet started are reported skipped and the
// outcomes collected so far are returned in full.
func (s *TeardownService) Teardown(ctx context.Context, handles []domain.ResourceHandle, opts TeardownOptions) []domain.TeardownOutcome {
	opts = opts.withDefaults()

	outcomes := make([]domain.TeardownOutcome, len(handles))
	var networks []int

	sem := make(chan struct{}, opts.Parallelism)
	var wg sync.WaitGroup
	for i, h := range handles {
		if h.Kind == domain.ResourceNetwork {
			networks = append(networks, i)
			continue
		}
		if err := ctx.Err(); err != nil {
			outcomes[i] = skippedOutcome(h, err)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, h domain.ResourceHandle) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.teardownOne(ctx, h, opts)
		}(i, h)
	}
	wg.Wait()

	// Dependent instances are terminal now; networks go last.
	for _, i := range networks {
		if err := ctx.Err(); err != nil {
			outcomes[i] = skippedOutcome(handles[i], err)
			continue
		}
		outcomes[i] = s.teardownNetwork(ctx, handles[i], opts)
	}

	return outcomes
}

func (s *TeardownService) teardownOne(ctx context.Context, h domain.ResourceHandle, opts TeardownOptions) domain.TeardownOutcome {
	if opts.DryRun {
		return domain.TeardownOutcome{Handle: h, Status: domain.TeardownSkipped, Reason: "dry run"}
	}

	switch h.Kind {
	case domain.ResourceContainer:
		return s.teardownContainer(ctx, h, opts)
	case domain.ResourceSession:
		if err := s.sessions.Kill(ctx, h.Name); err != nil {
			return failedOutcome(h, nil, fmt.Sprintf("kill session: %v", err))
		}
		return domain.TeardownOutcome{Handle: h, Steps: []domain.TeardownStep{domain.StepRemoved}, Status: domain.TeardownRemoved}
	case domain.ResourceWorkspace:
		if err := s.workspaces.Remove(ctx, h.Name); err != nil {
			return failedOutcome(h, nil, fmt.Sprintf("remove workspace: %v", err))
		}
		return domain.TeardownOutcome{Handle: h, Steps: []domain.TeardownStep{domain.StepRemoved}, Status: domain.TeardownRemoved}
	default:
		return failedOutcome(h, nil, fmt.Sprintf("unsupported resource kind %q", h.Kind))
	}
}

// teardownContainer walks the escalation ladder for one container:
// graceful stop with a bounded timeout, forceful kill when stuck, then
// removal with one re-resolve + retry before giving up.
func (s *TeardownService) teardownContainer(ctx context.Context, h domain.ResourceHandle, opts TeardownOptions) domain.TeardownOutcome {
	var steps []domain.TeardownStep
	log := s.logger.With().Str("container", h.Name).Logger()

	stopCtx, cancel := context.WithTimeout(ctx, opts.StopTimeout+time.Second)
	err := s.runtime.Stop(stopCtx, h.ID, opts.StopTimeout)
	cancel()
	if err != nil {
		steps = append(steps, domain.StepStuck)
		log.Warn().Err(err).Msg("graceful stop failed, escalating to kill")

		if killErr := s.runtime.Kill(ctx, h.ID); killErr != nil {
			return failedOutcome(h, steps, fmt.Sprintf("%v after stuck stop: %v", domain.ErrTeardownForceFailed, killErr))
		}
		steps = append(steps, domain.StepForceKilled)
	} else {
		steps = append(steps, domain.StepStopped)
	}

	if err := s.runtime.Remove(ctx, h.ID); err != nil {
		// Identity may have changed underneath us (restart policies,
		// racing operators). Re-resolve the live handle and retry
		// once.
		steps = append(steps, domain.StepReResolved)
		live, found, resolveErr := s.runtime.ResolveByName(ctx, h.Name)
		if resolveErr != nil {
			return failedOutcome(h, steps, fmt.Sprintf("remove failed (%v) and re-resolve failed: %v", err, resolveErr))
		}
		if !found {
			// Gone already; removal goal reached.
			steps = append(steps, domain.StepRemoved)
			return domain.TeardownOutcome{Handle: h, Steps: steps, Status: domain.TeardownRemoved}
		}
		if retryErr := s.runtime.Remove(ctx, live.ID); retryErr != nil {
			return failedOutcome(h, steps, fmt.Sprintf("remove retry failed: %v", retryErr))
		}
	}
	steps = append(steps, domain.StepRemoved)

	return domain.TeardownOutcome{Handle: h, Steps: steps, Status: domain.TeardownRemoved}
}

func (s *TeardownService) teardownNetwork(ctx context.Context, h domain.ResourceHandle, opts TeardownOptions) domain.TeardownOutcome {
	if opts.DryRun {
		return domain.TeardownOutcome{Handle: h, Status: domain.TeardownSkipped, Reason: "dry run"}
	}

	id := h.ID
	if id == "" {
		id = h.Name
	}
	if err := s.runtime.RemoveNetwork(ctx, id); err != nil {
		// Endpoints may still be draining; not fatal to the batch.
		return domain.TeardownOutcome{
			Handle:   h,
			Status:   domain.TeardownFailed,
			Reason:   fmt.Sprintf("remove network: %v; system-wide cleanup recommended", err),
			Advisory: true,
		}
	}
	return domain.TeardownOutcome{Handle: h, Steps: []domain.TeardownStep{domain.StepRemoved}, Status: domain.TeardownRemoved}
}

func skippedOutcome(h domain.ResourceHandle, err error) domain.TeardownOutcome {
	return domain.TeardownOutcome{Handle: h, Status: domain.TeardownSkipped, Reason: fmt.Sprintf("cancelled: %v", err)}
}

func failedOutcome(h domain.ResourceHandle, steps []domain.TeardownStep, reason string) domain.TeardownOutcome {
	return domain.TeardownOutcome{Handle: h, Steps: steps, Status: domain.TeardownFailed, Reason: reason}
}

// FailedOutcomes filters the outcomes that ended in failure, advisory
// ones included.
func FailedOutcomes(outcomes []domain.TeardownOutcome) []domain.TeardownOutcome {
	var failed []domain.TeardownOutcome
	for _, o := range outcomes {
		if o.Status == domain.TeardownFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// HandlesForInstance expands one instance into its teardown units:
// session and container first, then workspace, with the network last.
func HandlesForInstance(inst domain.RuntimeInstance) []domain.ResourceHandle {
	var handles []domain.ResourceHandle
	if inst.Session != "" {
		handles = append(handles, domain.ResourceHandle{Kind: domain.ResourceSession, Name: inst.Session, Slot: inst.Slot})
	}
	handles = append(handles, domain.ResourceHandle{Kind: domain.ResourceContainer, ID: inst.ContainerID, Name: inst.ContainerName, Slot: inst.Slot})
	if inst.Workspace != "" {
		handles = append(handles, domain.ResourceHandle{Kind: domain.ResourceWorkspace, Name: inst.Workspace, Slot: inst.Slot})
	}
	if inst.Network != "" {
		handles = append(handles, domain.ResourceHandle{Kind: domain.ResourceNetwork, ID: inst.Network, Name: inst.Network, Slot: inst.Slot})
	}
	return handles
}
