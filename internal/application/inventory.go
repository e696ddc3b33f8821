package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

// Inventory enumerates live instances by querying the container
// runtime fresh on every call and parsing identities back out of the
// naming grammar. It holds no state of its own.
type Inventory struct {
	runtime  ports.ContainerRuntime
	sessions ports.SessionManager
	logger   zerolog.Logger
}

func NewInventory(runtime ports.ContainerRuntime, sessions ports.SessionManager, logger zerolog.Logger) *Inventory {
	return &Inventory{
		runtime:  runtime,
		sessions: sessions,
		logger:   logger.With().Str("component", "inventory").Logger(),
	}
}

// ListRunning returns every live managed instance, optionally filtered
// by chain and market (pure post-filters). Running means the container
// process is alive at call time; exited remnants are invisible here
// and never satisfy a slot. Containers whose names do not parse are
// excluded and returned separately for reporting.
func (s *Inventory) ListRunning(ctx context.Context, chain, market string) ([]domain.RuntimeInstance, []string, error) {
	containers, err := s.runtime.List(ctx, domain.InstanceNamePrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("list containers: %w", err)
	}

	var instances []domain.RuntimeInstance
	var unparsed []string
	for _, c := range containers {
		if c.State != ports.StateRunning {
			continue
		}
		parsed, err := domain.ParseInstanceName(c.Name)
		if err != nil {
			s.logger.Debug().Str("container", c.Name).Msg("skipping container with foreign name")
			unparsed = append(unparsed, c.Name)
			continue
		}
		if parsed.Role != "" {
			// Sidecar roles share the slot's primary instance; only
			// the primary represents the slot in inventory.
			continue
		}

		inst := domain.RuntimeInstance{
			Slot:          parsed.Slot,
			Chain:         parsed.Chain,
			Market:        parsed.Market,
			ContainerID:   c.ID,
			ContainerName: c.Name,
			State:         c.State,
			Network:       c.Network,
			Subnet:        c.Subnet,
			HostPorts:     c.HostPorts,
			Profile:       c.Labels[LabelProfile],
			Workspace:     c.Labels[LabelWorkspace],
		}
		if chain != "" && inst.Chain != chain {
			continue
		}
		if market != "" && inst.Market != market {
			continue
		}
		instances = append(instances, inst)
	}

	return instances, unparsed, nil
}

// SessionSlots returns the slot ids that currently have a detachable
// log session, filtered like ListRunning.
func (s *Inventory) SessionSlots(ctx context.Context, chain, market string) (map[domain.SlotID]string, error) {
	names, err := s.sessions.List(ctx, domain.InstanceNamePrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	slots := make(map[domain.SlotID]string)
	for _, name := range names {
		parsed, err := domain.ParseInstanceName(name)
		if err != nil {
			continue
		}
		if chain != "" && parsed.Chain != chain {
			continue
		}
		if market != "" && parsed.Market != market {
			continue
		}
		slots[parsed.Slot] = name
	}
	return slots, nil
}
