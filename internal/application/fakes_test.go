package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slotwise/slotctl/internal/domain"
	"github.com/slotwise/slotctl/internal/ports"
)

// fakeRuntime is an in-memory ports.ContainerRuntime with per-id
// failure injection and call counting.
type fakeRuntime struct {
	mu         sync.Mutex
	containers map[string]ports.Container // keyed by id
	networks   map[string]string          // id -> subnet

	startCalls  int
	stopCalls   int
	killCalls   int
	removeCalls int

	startErr      error
	listErr       error
	stuckIDs      map[string]bool // Stop returns a timeout error
	killFailIDs   map[string]bool
	removeFailIDs map[string]int // remaining Remove failures per id
	networkErrIDs map[string]bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		containers:    make(map[string]ports.Container),
		networks:      make(map[string]string),
		stuckIDs:      make(map[string]bool),
		killFailIDs:   make(map[string]bool),
		removeFailIDs: make(map[string]int),
		networkErrIDs: make(map[string]bool),
	}
}

func (f *fakeRuntime) addContainer(c ports.Container) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[c.ID] = c
}

func (f *fakeRuntime) Ping(context.Context) error { return nil }

func (f *fakeRuntime) List(_ context.Context, namePrefix string) ([]ports.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []ports.Container
	for _, c := range f.containers {
		if strings.HasPrefix(c.Name, namePrefix) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRuntime) ResolveByName(_ context.Context, name string) (ports.Container, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.containers {
		if c.Name == name {
			return c, true, nil
		}
	}
	return ports.Container{}, false, nil
}

func (f *fakeRuntime) Start(_ context.Context, spec ports.StartSpec) (ports.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return ports.Container{}, f.startErr
	}

	var hostPorts []int
	for _, p := range spec.Ports {
		hostPorts = append(hostPorts, p.Host)
	}
	c := ports.Container{
		ID:        "id-" + spec.Name,
		Name:      spec.Name,
		State:     "running",
		Labels:    spec.Labels,
		Network:   spec.Network,
		Subnet:    f.networks[spec.Network],
		HostPorts: hostPorts,
	}
	f.containers[c.ID] = c
	return c, nil
}

func (f *fakeRuntime) Stop(_ context.Context, id string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	if f.stuckIDs[id] {
		return errors.New("stop timed out")
	}
	if c, ok := f.containers[id]; ok {
		c.State = "exited"
		f.containers[id] = c
	}
	return nil
}

func (f *fakeRuntime) Kill(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killCalls++
	if f.killFailIDs[id] {
		return errors.New("kill refused")
	}
	if c, ok := f.containers[id]; ok {
		c.State = "exited"
		f.containers[id] = c
	}
	return nil
}

func (f *fakeRuntime) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if n := f.removeFailIDs[id]; n > 0 {
		f.removeFailIDs[id] = n - 1
		return errors.New("remove refused")
	}
	delete(f.containers, id)
	return nil
}

func (f *fakeRuntime) FollowLogsCommand(name string) []string {
	return []string{"logs-follow", name}
}

func (f *fakeRuntime) CreateNetwork(_ context.Context, name, subnet string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networks[name] = subnet
	return name, nil
}

func (f *fakeRuntime) RemoveNetwork(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.networkErrIDs[id] {
		return errors.New("network has active endpoints")
	}
	delete(f.networks, id)
	return nil
}

func (f *fakeRuntime) UsedSubnets(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, subnet := range f.networks {
		out = append(out, subnet)
	}
	return out, nil
}

func (f *fakeRuntime) UsedHostPorts(context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, c := range f.containers {
		out = append(out, c.HostPorts...)
	}
	return out, nil
}

// fakeSessions is an in-memory ports.SessionManager recording the
// command each session was started with.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]bool
	commands map[string][]string
	startErr error
	killErr  error
	listErr  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[string]bool),
		commands: make(map[string][]string),
	}
}

func (f *fakeSessions) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []string
	for name := range f.sessions {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeSessions) Start(_ context.Context, name string, command []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.sessions[name] = true
	f.commands[name] = command
	return nil
}

func (f *fakeSessions) Kill(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.killErr != nil {
		return f.killErr
	}
	delete(f.sessions, name)
	return nil
}

// fakeWorkspaces is an in-memory ports.WorkspaceStore.
type fakeWorkspaces struct {
	mu      sync.Mutex
	dirs    map[string]map[string]string // path -> env
	removed []string
}

func newFakeWorkspaces() *fakeWorkspaces {
	return &fakeWorkspaces{dirs: make(map[string]map[string]string)}
}

func (f *fakeWorkspaces) Materialize(_ context.Context, name string, env map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := "/tmp/ws/" + name
	f.dirs[path] = env
	return path, nil
}

func (f *fakeWorkspaces) Remove(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dirs, path)
	f.removed = append(f.removed, path)
	return nil
}

func (f *fakeWorkspaces) Path(name string) string { return "/tmp/ws/" + name }

// fakeLedger is a canned ports.SlotLedger.
type fakeLedger struct {
	owned []domain.SlotID
	err   error
}

func (f *fakeLedger) OwnedSlots(context.Context, domain.Address) ([]domain.SlotID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.SlotID(nil), f.owned...), nil
}

func ledgerFactoryFor(l ports.SlotLedger) ports.LedgerFactory {
	return func(domain.ChainConfig) (ports.SlotLedger, error) { return l, nil }
}

func runningContainer(slot domain.SlotID, chain, market, profile string) ports.Container {
	name := domain.InstanceName(slot, chain, market, "")
	return ports.Container{
		ID:     "id-" + name,
		Name:   name,
		State:  "running",
		Labels: map[string]string{LabelProfile: profile},
	}
}

var testScope = domain.ProfileScope{
	Profile: "default",
	Wallet:  "0xabcdef0123456789abcdef0123456789abcdef01",
	Chain:   "mainnet",
	Market:  "uniswapv2",
}

var testBundle = domain.ConfigBundle{
	WalletAddress: "0xabcdef0123456789abcdef0123456789abcdef01",
	SignerAddress: "0xabcdef0123456789abcdef0123456789abcdef02",
	SignerKeyRef:  "keyring://signer",
	SourceRPCURL:  "https://eth.example.com",
	ChainRPCURL:   "https://rpc.example.com",
	Image:         "slotwise/slot-node:latest",
}
