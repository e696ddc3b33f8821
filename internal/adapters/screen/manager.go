// Package screen manages detachable log sessions via GNU screen.
package screen

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slotwise/slotctl/internal/ports"
)

// Manager shells out to the screen binary. Sessions are advisory
// conveniences; callers treat every method here as best effort.
type Manager struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Manager {
	return &Manager{logger: logger.With().Str("component", "screen").Logger()}
}

// Available reports whether the screen binary can be found at all.
func (m *Manager) Available() bool {
	_, err := exec.LookPath("screen")
	return err == nil
}

// List returns session names starting with prefix, parsed out of
// `screen -ls`. Lines look like "\t12345.slot-node-1-mainnet-uniswapv2\t(Detached)".
func (m *Manager) List(ctx context.Context, prefix string) ([]string, error) {
	out, err := exec.CommandContext(ctx, "screen", "-ls").CombinedOutput()
	// screen -ls exits non-zero when no sessions exist; the output still
	// parses, so only a missing binary is an error.
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("screen -ls: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pid, name, found := strings.Cut(fields[0], ".")
		if !found || !isNumeric(pid) {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Start launches a detached session running command. An existing
// session with the same name is replaced so the log stream always
// follows the current container.
func (m *Manager) Start(ctx context.Context, name string, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty session command")
	}
	_ = m.Kill(ctx, name)

	args := append([]string{"-dmS", name}, command...)
	if out, err := exec.CommandContext(ctx, "screen", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("screen -dmS %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	m.logger.Debug().Str("session", name).Msg("log session started")
	return nil
}

// Kill quits a session by name. A session that is already gone is not
// an error.
func (m *Manager) Kill(ctx context.Context, name string) error {
	out, err := exec.CommandContext(ctx, "screen", "-S", name, "-X", "quit").CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if strings.Contains(msg, "No screen session found") {
			return nil
		}
		return fmt.Errorf("screen -S %s -X quit: %w: %s", name, err, msg)
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var _ ports.SessionManager = (*Manager)(nil)
