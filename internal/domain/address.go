package domain

import (
	"fmt"
	"strings"
)

// Address is a 20-byte hex wallet address, normalized to lowercase.
type Address string

// ParseAddress validates a 0x-prefixed, 40-digit hex address. The input
// is case-insensitive; the returned Address is lowercased so it can be
// used as a map key and compared with ==.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return "", fmt.Errorf("%w: %q missing 0x prefix", ErrInvalidAddress, raw)
	}

	digits := trimmed[2:]
	if len(digits) != 40 {
		return "", fmt.Errorf("%w: %q has %d hex digits, want 40", ErrInvalidAddress, raw, len(digits))
	}
	for _, r := range digits {
		if !isHexDigit(r) {
			return "", fmt.Errorf("%w: %q contains non-hex character %q", ErrInvalidAddress, raw, r)
		}
	}

	return Address(strings.ToLower(trimmed)), nil
}

func (a Address) String() string {
	return string(a)
}

// Short returns an abbreviated form for display, e.g. 0x1234..abcd.
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 10 {
		return s
	}
	return s[:6] + ".." + s[len(s)-4:]
}

func isHexDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'f':
		return true
	case r >= 'A' && r <= 'F':
		return true
	}
	return false
}
