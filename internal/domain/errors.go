package domain

import "errors"

var (
	// ErrLedgerUnreachable means the ownership ledger could not be
	// queried. It is never equivalent to "wallet owns zero slots";
	// callers must not tear anything down on this error.
	ErrLedgerUnreachable = errors.New("ownership ledger unreachable")

	ErrInvalidAddress       = errors.New("invalid wallet address")
	ErrInvalidSlotSelection = errors.New("invalid slot selection")
	ErrInvalidInstanceName  = errors.New("invalid instance name")

	// ErrAllocationExhausted means no free subnet or port block was
	// available. Per-slot and non-fatal to a batch.
	ErrAllocationExhausted = errors.New("subnet/port allocation exhausted")

	ErrStartFailed         = errors.New("instance start failed")
	ErrTeardownTimeout     = errors.New("graceful stop timed out")
	ErrTeardownForceFailed = errors.New("forced kill failed")

	ErrConfigIncomplete = errors.New("configuration bundle incomplete")
	ErrUnownedSlot      = errors.New("slot not owned by wallet")

	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrBundleNotFound  = errors.New("configuration bundle not found")
)
