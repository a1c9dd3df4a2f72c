package matching

import "errors"

var (
	// ErrInsufficientCandidates means too few players need a santa for a
	// matching run to be meaningful. Callers should wait for more signups.
	ErrInsufficientCandidates = errors.New("not enough candidates for matching")

	// ErrNoValidAssignment means the repair pass could not produce a legal
	// ring. Nothing is written; re-running with fresh randomness is the
	// intended recovery.
	ErrNoValidAssignment = errors.New("no valid assignment found")
)
