package contract

import "errors"

// Sentinel errors for the record-store failure taxonomy. Every failure is
// detected before any state mutation, so all of them are safe to retry with
// corrected arguments. Callers match with errors.Is; the peer surfaces the
// wrapped message verbatim.
var (
	// ErrAlreadyMinted is returned when a principal that already owns a
	// profile attempts to create another one.
	ErrAlreadyMinted = errors.New("principal has already minted a profile")

	// ErrNotOwner is returned by every owner-gated mutation when the caller
	// is not the record's current owner.
	ErrNotOwner = errors.New("caller is not the owner of this record")

	// ErrIndexOutOfRange is returned when a project index is >= the
	// profile's projectCount.
	ErrIndexOutOfRange = errors.New("project index out of range")

	// ErrNotFound is returned when a referenced record does not exist,
	// including a project slot that is in range but was removed.
	ErrNotFound = errors.New("record not found")
)
