package application

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

// Container labels stamped at start time so inventory can recover the
// deployment context without any separate state file.
const (
	LabelProfile    = "network.slotwise.profile"
	LabelWorkspace  = "network.slotwise.workspace"
	LabelDeployment = "network.slotwise.deployment"
)

const defaultDeployWorkers = 4

// DeployResult is one slot's outcome in a batch deployment.
type DeployResult struct {
	Slot     domain.SlotID
	Instance domain.RuntimeInstance
	// Started is false when the slot already had a live instance and
	// the call was a no-op.
	Started bool
	Err     error
}

// DeployService brings slots from absent to running. Within one slot
// the steps are strictly sequential; across slots only the allocator's
// critical section is shared.
type DeployService struct {
	runtime    ports.ContainerRuntime
	sessions   ports.SessionManager
	workspaces ports.WorkspaceStore
	alloc      *Allocator
	logger     zerolog.Logger

	workers        int
	attachSessions bool
}

func NewDeployService(
	runtime ports.ContainerRuntime,
	sessions ports.SessionManager,
	workspaces ports.WorkspaceStore,
	alloc *Allocator,
	logger zerolog.Logger,
) *DeployService {
	return &DeployService{
		runtime:        runtime,
		sessions:       sessions,
		workspaces:     workspaces,
		alloc:          alloc,
		logger:         logger.With().Str("component", "deploy").Logger(),
		workers:        defaultDeployWorkers,
		attachSessions: true,
	}
}

// SetWorkers caps batch parallelism. The cap is fixed, not proportional
// to batch size, to bound host load.
func (s *DeployService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// SetAttachSessions toggles the optional log-trailing session.
func (s *DeployService) SetAttachSessions(attach bool) {
	s.attachSessions = attach
}

// EnsureRunning idempotently brings one slot to running. If a live
// instance already satisfies (slot, chain, market) it is returned
// unchanged: no restart, no reconfiguration, no second start call.
func (s *DeployService) EnsureRunning(ctx context.Context, scope domain.ProfileScope, slot domain.SlotID, bundle domain.ConfigBundle) (domain.RuntimeInstance, bool, error) {
	name := domain.InstanceName(slot, scope.Chain, scope.Market, "")

	existing, found, err := s.runtime.ResolveByName(ctx, name)
	if err != nil {
		return domain.RuntimeInstance{}, false, fmt.Errorf("inventory check for %s: %w", name, err)
	}
	if found && existing.State == ports.StateRunning {
		s.logger.Debug().Str("instance", name).Msg("instance already running, skipping start")
		return instanceFromContainer(slot, scope, existing), false, nil
	}
	if found {
		// An exited container still holds the name; it does not satisfy
		// the slot, and the name must be freed before the fresh start.
		if err := s.runtime.Remove(ctx, existing.ID); err != nil {
			return domain.RuntimeInstance{}, false, fmt.Errorf("remove exited remnant %s: %w", name, err)
		}
		s.logger.Info().Str("instance", name).Str("state", existing.State).Msg("removed exited remnant before redeploy")
	}

	alloc, err := s.alloc.Allocate(ctx)
	if err != nil {
		return domain.RuntimeInstance{}, false, fmt.Errorf("allocate resources for slot %d: %w", slot, err)
	}

	inst, err := s.start(ctx, scope, slot, bundle, name, alloc)
	if err != nil {
		s.alloc.Release(alloc)
		return domain.RuntimeInstance{}, false, err
	}
	return inst, true, nil
}

func (s *DeployService) start(ctx context.Context, scope domain.ProfileScope, slot domain.SlotID, bundle domain.ConfigBundle, name string, alloc Allocation) (domain.RuntimeInstance, error) {
	deploymentID := uuid.NewString()

	env := map[string]string{
		"SLOT_ID":                strconv.FormatUint(uint64(slot), 10),
		"CHAIN":                  scope.Chain,
		"MARKET":                 scope.Market,
		"WALLET_HOLDER_ADDRESS":  bundle.WalletAddress.String(),
		"SIGNER_ACCOUNT_ADDRESS": bundle.SignerAddress.String(),
		"SIGNER_KEY_REF":         bundle.SignerKeyRef,
		"SOURCE_RPC_URL":         bundle.SourceRPCURL,
		"CHAIN_RPC_URL":          bundle.ChainRPCURL,
		"SUBNET":                 alloc.Subnet,
		"CORE_API_PORT":          strconv.Itoa(alloc.Ports[0]),
		"COLLECTOR_PORT":         strconv.Itoa(alloc.Ports[1]),
		"DEPLOYMENT_ID":          deploymentID,
		"PROFILE":                scope.Profile,
	}
	if bundle.TelegramChatID != "" {
		env["TELEGRAM_CHAT_ID"] = bundle.TelegramChatID
		env["TELEGRAM_REPORTING_URL"] = bundle.TelegramReportingURL
	}

	workspace, err := s.workspaces.Materialize(ctx, name, env)
	if err != nil {
		return domain.RuntimeInstance{}, fmt.Errorf("materialize workspace for %s: %w", name, err)
	}

	networkName := name + "-net"
	if _, err := s.runtime.CreateNetwork(ctx, networkName, alloc.Subnet); err != nil {
		_ = s.workspaces.Remove(ctx, workspace)
		return domain.RuntimeInstance{}, fmt.Errorf("create network %s: %w", networkName, err)
	}

	spec := ports.StartSpec{
		Name:    name,
		Image:   bundle.Image,
		Env:     flattenEnv(env),
		Network: networkName,
		Labels: map[string]string{
			LabelProfile:    scope.Profile,
			LabelWorkspace:  workspace,
			LabelDeployment: deploymentID,
		},
	}
	for _, p := range alloc.Ports {
		spec.Ports = append(spec.Ports, ports.PortBinding{Host: p, Container: p})
	}

	started, err := s.runtime.Start(ctx, spec)
	if err != nil {
		if rmErr := s.removeNetworkByName(ctx, networkName); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("network", networkName).Msg("could not clean up network after failed start")
		}
		_ = s.workspaces.Remove(ctx, workspace)
		return domain.RuntimeInstance{}, fmt.Errorf("%w: slot %d: %v", domain.ErrStartFailed, slot, err)
	}

	inst := domain.RuntimeInstance{
		Slot:          slot,
		Chain:         scope.Chain,
		Market:        scope.Market,
		ContainerID:   started.ID,
		ContainerName: name,
		State:         started.State,
		Network:       networkName,
		Subnet:        alloc.Subnet,
		HostPorts:     alloc.Ports,
		Workspace:     workspace,
		Profile:       scope.Profile,
	}

	if s.attachSessions {
		session := domain.SessionName(slot, scope.Chain, scope.Market)
		if err := s.sessions.Start(ctx, session, s.runtime.FollowLogsCommand(name)); err != nil {
			// Log trailing is a convenience; the instance is up.
			s.logger.Warn().Err(err).Str("session", session).Msg("could not attach log session")
		} else {
			inst.Session = session
		}
	}

	s.logger.Info().
		Str("instance", name).
		Str("subnet", alloc.Subnet).
		Ints("ports", alloc.Ports).
		Str("deployment", deploymentID).
		Msg("instance started")
	return inst, nil
}

// DeployBatch deploys the given slots with bounded parallelism. One
// result per slot, in id order; a failed slot never aborts siblings.
// On cancellation, slots not yet picked up fail with the context error
// and the partial results are still returned in full.
func (s *DeployService) DeployBatch(ctx context.Context, scope domain.ProfileScope, slots []domain.SlotID, bundle domain.ConfigBundle) []DeployResult {
	results := make([]DeployResult, len(slots))

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, slot := range slots {
		if err := ctx.Err(); err != nil {
			results[i] = DeployResult{Slot: slot, Err: fmt.Errorf("skipped: %w", err)}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, slot domain.SlotID) {
			defer wg.Done()
			defer func() { <-sem }()

			slotCtx, cancel := context.WithTimeout(ctx, deployTimeout)
			defer cancel()

			inst, started, err := s.EnsureRunning(slotCtx, scope, slot, bundle)
			results[i] = DeployResult{Slot: slot, Instance: inst, Started: started, Err: err}
		}(i, slot)
	}
	wg.Wait()

	return results
}

func (s *DeployService) removeNetworkByName(ctx context.Context, name string) error {
	// Network removal by name works with the engine API; no id lookup
	// is needed for the failed-start path.
	return s.runtime.RemoveNetwork(ctx, name)
}

func instanceFromContainer(slot domain.SlotID, scope domain.ProfileScope, c ports.Container) domain.RuntimeInstance {
	return domain.RuntimeInstance{
		Slot:          slot,
		Chain:         scope.Chain,
		Market:        scope.Market,
		ContainerID:   c.ID,
		ContainerName: c.Name,
		State:         c.State,
		Network:       c.Network,
		Subnet:        c.Subnet,
		HostPorts:     c.HostPorts,
		Workspace:     c.Labels[LabelWorkspace],
		Profile:       c.Labels[LabelProfile],
	}
}

func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// FailedSlots extracts the complete list of failed slot ids from batch
// results. Never truncated.
func FailedSlots(results []DeployResult) []domain.SlotID {
	var failed []domain.SlotID
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Slot)
		}
	}
	domain.SortSlotIDs(failed)
	return failed
}

// deployTimeout bounds one slot's full start sequence.
const deployTimeout = 2 * time.Minute
