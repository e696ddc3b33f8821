package ports

import (
	"context"
	"time"
)

// StateRunning is the runtime state of a container whose process is
// alive. Anything else (exited, created, paused remnants) does not
// satisfy a slot.
const StateRunning = "running"

// Container is the runtime's view of one running or stopped container.
type Container struct {
	ID     string
	Name   string
	State  string
	Labels map[string]string

	Network   string
	Subnet    string
	HostPorts []int
}

// PortBinding maps one host port to one container port.
type PortBinding struct {
	Host      int
	Container int
}

// StartSpec describes a container to create and start.
type StartSpec struct {
	Name    string
	Image   string
	Env     []string
	Ports   []PortBinding
	Network string
	Labels  map[string]string
}

// ContainerRuntime is the container engine boundary. All calls carry a
// context; blocking calls respect its deadline.
type ContainerRuntime interface {
	Ping(ctx context.Context) error

	// List returns containers whose name starts with namePrefix.
	List(ctx context.Context, namePrefix string) ([]Container, error)
	// ResolveByName re-resolves a container by exact name; found is
	// false when no such container exists.
	ResolveByName(ctx context.Context, name string) (c Container, found bool, err error)

	Start(ctx context.Context, spec StartSpec) (Container, error)
	Stop(ctx context.Context, id string, timeout time.Duration) error
	Kill(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error

	// FollowLogsCommand returns the host command that tails the named
	// container's logs, for use in a detachable session. The session
	// layer stays ignorant of which engine backs the containers.
	FollowLogsCommand(name string) []string

	CreateNetwork(ctx context.Context, name, subnet string) (id string, err error)
	RemoveNetwork(ctx context.Context, id string) error
	// UsedSubnets returns the CIDRs of every network known to the
	// runtime, for collision-free allocation.
	UsedSubnets(ctx context.Context) ([]string, error)
	// UsedHostPorts returns every host port currently bound by a
	// container.
	UsedHostPorts(ctx context.Context) ([]int, error)
}
