package ac

import "errors"

var (
	// ErrCorruptAutomaton is returned when a node record or an edge
	// table refers to an offset or state kind that isn't valid.
	ErrCorruptAutomaton = errors.New("ac: automaton section is corrupt")

	// ErrTooManyEdges describes a Sparse node with more than the
	// format's 8-edge limit. The builder promotes such nodes to Dense
	// instead, and no code path in this package returns it.
	ErrTooManyEdges = errors.New("ac: sparse node edge count exceeds format limit")
)
