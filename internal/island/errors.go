package island

import "github.com/pkg/errors"

var (
	// ErrTopology indicates an island that is not a simple quad lattice:
	// a face without exactly four corners, no structural corner, a branching
	// continuation or rows of differing length. Nothing is written.
	ErrTopology = errors.New("island: not a simple quad grid")

	// ErrSafetyLimitExceeded indicates a lattice walk that revisited a corner
	// or ran past the step ceiling, i.e. cyclic or corrupt adjacency.
	ErrSafetyLimitExceeded = errors.New("island: lattice walk exceeded safety limit")
)
