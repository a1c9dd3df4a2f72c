package lifecycle

import "errors"

var (
	// ErrMatchNotFound means the referenced match does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrPlayerNotFound means the referenced player does not exist.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrCapacityConflict means the target santa has no free capacity.
	// Distinct from not-found so callers can say "pick another handle"
	// rather than "that player is gone".
	ErrCapacityConflict = errors.New("santa has no free capacity")

	// ErrInvalidTransition means a publish call asked for a backward or
	// skipping status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)
