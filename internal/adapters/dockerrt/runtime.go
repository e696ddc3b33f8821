// Package dockerrt implements the container runtime boundary against
// the Docker Engine API.
package dockerrt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog"

	"github.com/slotwise/slotctl/internal/ports"
)

// Runtime talks to the local Docker daemon. It is safe for concurrent
// use; the underlying client multiplexes requests.
type Runtime struct {
	cli    *client.Client
	logger zerolog.Logger
}

// New builds a Runtime from the ambient Docker environment
// (DOCKER_HOST and friends) with API version negotiation, so it works
// against whatever daemon is installed.
func New(logger zerolog.Logger) (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Runtime{
		cli:    cli,
		logger: logger.With().Str("component", "dockerrt").Logger(),
	}, nil
}

func (r *Runtime) Close() error {
	return r.cli.Close()
}

func (r *Runtime) Ping(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

// List returns all containers (running or not) whose name starts with
// namePrefix. The daemon's name filter is a substring match, so names
// are re-checked here.
func (r *Runtime) List(ctx context.Context, namePrefix string) ([]ports.Container, error) {
	summaries, err := r.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", namePrefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	var out []ports.Container
	for _, s := range summaries {
		c := fromSummary(s)
		if !strings.HasPrefix(c.Name, namePrefix) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Runtime) ResolveByName(ctx context.Context, name string) (ports.Container, bool, error) {
	summaries, err := r.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return ports.Container{}, false, fmt.Errorf("resolve container %s: %w", name, err)
	}
	for _, s := range summaries {
		c := fromSummary(s)
		if c.Name == name {
			return c, true, nil
		}
	}
	return ports.Container{}, false, nil
}

func (r *Runtime) Start(ctx context.Context, spec ports.StartSpec) (ports.Container, error) {
	cfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		Labels:       spec.Labels,
		ExposedPorts: nat.PortSet{},
	}
	bindings := nat.PortMap{}
	for _, p := range spec.Ports {
		port, err := nat.NewPort("tcp", fmt.Sprintf("%d", p.Container))
		if err != nil {
			return ports.Container{}, fmt.Errorf("port spec %d: %w", p.Container, err)
		}
		cfg.ExposedPorts[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: fmt.Sprintf("%d", p.Host)}}
	}

	hostCfg := &container.HostConfig{
		PortBindings: bindings,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyUnlessStopped,
		},
	}
	var netCfg *network.NetworkingConfig
	if spec.Network != "" {
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				spec.Network: {},
			},
		}
	}

	created, err := r.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, spec.Name)
	if err != nil {
		return ports.Container{}, fmt.Errorf("container create %s: %w", spec.Name, err)
	}
	if err := r.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		// Leave no half-created container behind.
		_ = r.cli.ContainerRemove(ctx, created.ID, container.RemoveOptions{Force: true})
		return ports.Container{}, fmt.Errorf("container start %s: %w", spec.Name, err)
	}
	r.logger.Debug().Str("container", spec.Name).Str("id", created.ID).Msg("container started")

	var hostPorts []int
	for _, p := range spec.Ports {
		hostPorts = append(hostPorts, p.Host)
	}
	return ports.Container{
		ID:        created.ID,
		Name:      spec.Name,
		State:     "running",
		Labels:    spec.Labels,
		Network:   spec.Network,
		HostPorts: hostPorts,
	}, nil
}

func (r *Runtime) Stop(ctx context.Context, id string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	if err := r.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &secs}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("container stop: %w", err)
	}
	return nil
}

func (r *Runtime) Kill(ctx context.Context, id string) error {
	if err := r.cli.ContainerKill(ctx, id, "SIGKILL"); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("container kill: %w", err)
	}
	return nil
}

func (r *Runtime) Remove(ctx context.Context, id string) error {
	if err := r.cli.ContainerRemove(ctx, id, container.RemoveOptions{RemoveVolumes: true}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("container remove: %w", err)
	}
	return nil
}

// FollowLogsCommand tails a container's logs via the docker CLI, which
// detachable sessions can run without holding an SDK connection.
func (r *Runtime) FollowLogsCommand(name string) []string {
	return []string{"docker", "logs", "-f", name}
}

func (r *Runtime) CreateNetwork(ctx context.Context, name, subnet string) (string, error) {
	resp, err := r.cli.NetworkCreate(ctx, name, types.NetworkCreate{
		Driver: "bridge",
		IPAM: &network.IPAM{
			Config: []network.IPAMConfig{{Subnet: subnet}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("network create %s (%s): %w", name, subnet, err)
	}
	return resp.ID, nil
}

func (r *Runtime) RemoveNetwork(ctx context.Context, id string) error {
	if err := r.cli.NetworkRemove(ctx, id); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("network remove: %w", err)
	}
	return nil
}

func (r *Runtime) UsedSubnets(ctx context.Context) ([]string, error) {
	networks, err := r.cli.NetworkList(ctx, types.NetworkListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}

	var subnets []string
	for _, n := range networks {
		for _, cfg := range n.IPAM.Config {
			if cfg.Subnet != "" {
				subnets = append(subnets, cfg.Subnet)
			}
		}
	}
	return subnets, nil
}

func (r *Runtime) UsedHostPorts(ctx context.Context) ([]int, error) {
	summaries, err := r.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	var used []int
	for _, s := range summaries {
		for _, p := range s.Ports {
			if p.PublicPort != 0 {
				used = append(used, int(p.PublicPort))
			}
		}
	}
	return used, nil
}

// fromSummary flattens a daemon container summary into the runtime
// boundary type. Docker reports names with a leading slash.
func fromSummary(s types.Container) ports.Container {
	var name string
	if len(s.Names) > 0 {
		name = strings.TrimPrefix(s.Names[0], "/")
	}

	var netName, subnet string
	if s.NetworkSettings != nil {
		for n, ep := range s.NetworkSettings.Networks {
			netName = n
			if ep.IPAddress != "" {
				// Summary endpoints carry the address, not the CIDR; the
				// prefix length reconstructs it.
				subnet = fmt.Sprintf("%s/%d", ep.IPAddress, ep.IPPrefixLen)
			}
			break
		}
	}

	var hostPorts []int
	for _, p := range s.Ports {
		if p.PublicPort != 0 {
			hostPorts = append(hostPorts, int(p.PublicPort))
		}
	}

	return ports.Container{
		ID:        s.ID,
		Name:      name,
		State:     s.State,
		Labels:    s.Labels,
		Network:   netName,
		Subnet:    subnet,
		HostPorts: hostPorts,
	}
}

var _ ports.ContainerRuntime = (*Runtime)(nil)
