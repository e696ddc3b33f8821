package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// InstanceNamePrefix is the workload prefix of every container and
// session this tool manages. The full grammar is
//
//	slot-node-<slot>-<chain>-<market>[-<role>]
//
// where slot is a decimal id and chain/market are lowercase tokens
// without dashes. The name is the only channel through which a running
// resource's identity is recovered, so the Deployment Executor must
// preserve it bit-exactly.
const InstanceNamePrefix = "slot-node"

// RuntimeInstance is one live worker bound to a slot. It is created by
// the Deployment Executor and discovered, never created, by the
// Runtime Inventory.
type RuntimeInstance struct {
	Slot   SlotID
	Chain  string
	Market string
	Role   string

	ContainerID   string
	ContainerName string
	State         string

	Network   string
	Subnet    string
	HostPorts []int

	Session   string
	Workspace string

	// Profile is the profile label stamped on the container at start
	// time; empty for instances started by other means.
	Profile string
}

// InstanceName builds the canonical resource name for a slot.
func InstanceName(slot SlotID, chain, market, role string) string {
	name := fmt.Sprintf("%s-%d-%s-%s", InstanceNamePrefix, slot, normalizeToken(chain), normalizeToken(market))
	if role != "" {
		name += "-" + normalizeToken(role)
	}
	return name
}

// ParsedInstanceName is the identity recovered from a resource name.
type ParsedInstanceName struct {
	Slot   SlotID
	Chain  string
	Market string
	Role   string
}

// ParseInstanceName parses a resource name against the naming grammar.
// Names that do not parse are excluded from inventory, not treated as
// errors by callers.
func ParseInstanceName(name string) (ParsedInstanceName, error) {
	rest, ok := strings.CutPrefix(name, InstanceNamePrefix+"-")
	if !ok {
		return ParsedInstanceName{}, fmt.Errorf("%w: %q lacks %q prefix", ErrInvalidInstanceName, name, InstanceNamePrefix)
	}

	parts := strings.Split(rest, "-")
	if len(parts) < 3 || len(parts) > 4 {
		return ParsedInstanceName{}, fmt.Errorf("%w: %q has %d segments after prefix, want 3 or 4", ErrInvalidInstanceName, name, len(parts))
	}

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ParsedInstanceName{}, fmt.Errorf("%w: %q slot segment is not numeric", ErrInvalidInstanceName, name)
	}
	for _, seg := range parts[1:] {
		if seg == "" {
			return ParsedInstanceName{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidInstanceName, name)
		}
	}

	parsed := ParsedInstanceName{
		Slot:   SlotID(id),
		Chain:  parts[1],
		Market: parts[2],
	}
	if len(parts) == 4 {
		parsed.Role = parts[3]
	}
	return parsed, nil
}

// SessionName is the detachable log-trailing session name for a slot.
// It mirrors the container name so cross-checking containers against
// sessions is a pure set operation on slot ids.
func SessionName(slot SlotID, chain, market string) string {
	return InstanceName(slot, chain, market, "")
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}
