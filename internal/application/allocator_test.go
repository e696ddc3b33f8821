package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

func TestAllocatorPicksLowestFreeBlocks(t *testing.T) {
	runtime := newFakeRuntime()
	alloc := NewAllocator(runtime)

	first, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "172.20.0.0/24", first.Subnet)
	assert.Equal(t, []int{8002, 8003}, first.Ports)

	second, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "172.20.1.0/24", second.Subnet)
	assert.Equal(t, []int{8004, 8005}, second.Ports)
}

func TestAllocatorSkipsRangesUsedByRuntime(t *testing.T) {
	runtime := newFakeRuntime()
	_, err := runtime.CreateNetwork(context.Background(), "existing", "172.20.0.0/24")
	require.NoError(t, err)
	runtime.addContainer(ports.Container{ID: "c1", Name: "slot-node-1-mainnet-uniswapv2", HostPorts: []int{8002, 8003}})

	alloc := NewAllocator(runtime)
	got, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "172.20.1.0/24", got.Subnet)
	assert.Equal(t, []int{8004, 8005}, got.Ports)
}

func TestAllocatorReleaseReturnsBlock(t *testing.T) {
	alloc := NewAllocator(newFakeRuntime())

	first, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	alloc.Release(first)

	again, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestAllocatorExhaustion(t *testing.T) {
	runtime := newFakeRuntime()
	for net := 0; net <= subnetMaxNet; net++ {
		_, err := runtime.CreateNetwork(context.Background(), fmt.Sprintf("n%d", net), fmt.Sprintf("172.20.%d.0/24", net))
		require.NoError(t, err)
	}

	alloc := NewAllocator(runtime)
	_, err := alloc.Allocate(context.Background())
	require.ErrorIs(t, err, domain.ErrAllocationExhausted)
}

func TestAllocatorConcurrentAllocationsNeverOverlap(t *testing.T) {
	alloc := NewAllocator(newFakeRuntime())

	const n = 32
	results := make([]Allocation, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := alloc.Allocate(context.Background())
			require.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	subnets := make(map[string]struct{}, n)
	usedPorts := make(map[int]struct{}, n*portSpan)
	for _, r := range results {
		_, dup := subnets[r.Subnet]
		require.False(t, dup, "subnet %s allocated twice", r.Subnet)
		subnets[r.Subnet] = struct{}{}

		for _, p := range r.Ports {
			_, dup := usedPorts[p]
			require.False(t, dup, "port %d allocated twice", p)
			usedPorts[p] = struct{}{}
		}
	}
}
