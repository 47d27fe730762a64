package emit

import "errors"

// Errors returned under the fail policies.
var (
	// ErrIncompleteNode is returned for a node without usable coordinates.
	ErrIncompleteNode = errors.New("incomplete node")

	// ErrIncompleteEdge is returned for an edge without geometry or upstream id.
	ErrIncompleteEdge = errors.New("incomplete edge")

	// ErrDanglingReference is returned for an edge endpoint that was not emitted.
	ErrDanglingReference = errors.New("dangling node reference")
)
