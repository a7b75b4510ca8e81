package caption

import "errors"

// ErrInvalidDuration indicates a timeline was created with a non-positive total duration.
var ErrInvalidDuration = errors.New("invalid timeline duration")

// ErrInvariant indicates a segment sequence violates the timeline invariant
// (unsorted, overlapping, out of bounds, or empty intervals).
var ErrInvariant = errors.New("timeline invariant violated")
