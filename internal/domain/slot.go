package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SlotID identifies one on-chain work-assignment slot. IDs are assigned
// by the registry contract and are globally unique per chain.
type SlotID uint64

// Slot is a single ownership record observed on the ledger. It is never
// cached across resolution calls; ownership can change between
// invocations.
type Slot struct {
	ID     SlotID
	Owner  Address
	Chain  string
	Market string
}

// SlotSelection is the operator's requested slot set: either every slot
// the wallet owns ("all") or an explicit list of ids.
type SlotSelection struct {
	All bool
	IDs []SlotID
}

// ParseSlotSelection parses the --slots argument. Accepted forms:
// "all", a comma-separated id list ("12,14,99"), and inclusive ranges
// ("100-110"), which may be mixed. A malformed selection invalidates
// the whole invocation.
func ParseSlotSelection(raw string) (SlotSelection, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return SlotSelection{All: true}, nil
	}

	seen := make(map[SlotID]struct{})
	var ids []SlotID
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return SlotSelection{}, fmt.Errorf("%w: empty element in %q", ErrInvalidSlotSelection, raw)
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parseSlotID(lo)
			if err != nil {
				return SlotSelection{}, err
			}
			end, err := parseSlotID(hi)
			if err != nil {
				return SlotSelection{}, err
			}
			if end < start {
				return SlotSelection{}, fmt.Errorf("%w: range %q is reversed", ErrInvalidSlotSelection, part)
			}
			for id := start; id <= end; id++ {
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
			}
			continue
		}

		id, err := parseSlotID(part)
		if err != nil {
			return SlotSelection{}, err
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	SortSlotIDs(ids)
	return SlotSelection{IDs: ids}, nil
}

func parseSlotID(raw string) (SlotID, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a slot id", ErrInvalidSlotSelection, raw)
	}
	return SlotID(id), nil
}

// SortSlotIDs sorts ids ascending in place for reproducible reporting.
func SortSlotIDs(ids []SlotID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// FormatSlotIDs renders the complete id list, comma separated. The full
// list is always rendered; summaries must never truncate failed slots.
func FormatSlotIDs(ids []SlotID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ", ")
}
