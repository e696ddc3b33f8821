package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

const (
	subnetOctet1 = 172
	subnetOctet2 = 20
	subnetMaxNet = 255

	portBase = 8002
	// portSpan is the number of consecutive host ports each instance
	// gets: core API plus collector.
	portSpan = 2
	portMax  = 9000
)

// Allocation is one instance's claim on the host's shared subnet and
// port space.
type Allocation struct {
	Subnet string
	Ports  []int
}

// Allocator hands out the lowest free /24 under 172.20.0.0/16 and the
// lowest free block of host ports. The check-then-claim step is a
// single critical section so two concurrent deployments can never pick
// the same block; starts and stops still run in parallel outside it.
type Allocator struct {
	runtime ports.ContainerRuntime

	mu             sync.Mutex
	claimedSubnets map[string]struct{}
	claimedPorts   map[int]struct{}
}

func NewAllocator(runtime ports.ContainerRuntime) *Allocator {
	return &Allocator{
		runtime:        runtime,
		claimedSubnets: make(map[string]struct{}),
		claimedPorts:   make(map[int]struct{}),
	}
}

// Allocate probes the runtime for ranges already in use, merges them
// with claims made earlier in this process, and claims the lowest free
// block. Returns domain.ErrAllocationExhausted when either space is
// full.
func (a *Allocator) Allocate(ctx context.Context) (Allocation, error) {
	usedSubnets, err := a.runtime.UsedSubnets(ctx)
	if err != nil {
		return Allocation{}, fmt.Errorf("probe used subnets: %w", err)
	}
	usedPorts, err := a.runtime.UsedHostPorts(ctx)
	if err != nil {
		return Allocation{}, fmt.Errorf("probe used ports: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	taken := make(map[string]struct{}, len(usedSubnets)+len(a.claimedSubnets))
	for _, s := range usedSubnets {
		taken[normalizeSubnet(s)] = struct{}{}
	}
	for s := range a.claimedSubnets {
		taken[s] = struct{}{}
	}

	subnet := ""
	for net := 0; net <= subnetMaxNet; net++ {
		candidate := fmt.Sprintf("%d.%d.%d.0/24", subnetOctet1, subnetOctet2, net)
		if _, used := taken[candidate]; !used {
			subnet = candidate
			break
		}
	}
	if subnet == "" {
		return Allocation{}, fmt.Errorf("%w: no free /24 under %d.%d.0.0/16", domain.ErrAllocationExhausted, subnetOctet1, subnetOctet2)
	}

	portTaken := make(map[int]struct{}, len(usedPorts)+len(a.claimedPorts))
	for _, p := range usedPorts {
		portTaken[p] = struct{}{}
	}
	for p := range a.claimedPorts {
		portTaken[p] = struct{}{}
	}

	var block []int
	for start := portBase; start+portSpan-1 <= portMax; start += portSpan {
		free := true
		for p := start; p < start+portSpan; p++ {
			if _, used := portTaken[p]; used {
				free = false
				break
			}
		}
		if free {
			block = make([]int, 0, portSpan)
			for p := start; p < start+portSpan; p++ {
				block = append(block, p)
			}
			break
		}
	}
	if block == nil {
		return Allocation{}, fmt.Errorf("%w: no free port block in %d-%d", domain.ErrAllocationExhausted, portBase, portMax)
	}

	a.claimedSubnets[subnet] = struct{}{}
	for _, p := range block {
		a.claimedPorts[p] = struct{}{}
	}
	return Allocation{Subnet: subnet, Ports: block}, nil
}

// Release returns a claim after a failed start so the block is usable
// again within this process.
func (a *Allocator) Release(alloc Allocation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.claimedSubnets, alloc.Subnet)
	for _, p := range alloc.Ports {
		delete(a.claimedPorts, p)
	}
}

func normalizeSubnet(s string) string {
	return strings.TrimSpace(s)
}
