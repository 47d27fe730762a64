package roadnet

import "errors"

// ErrMalformedGraph is returned when a graph file cannot be decoded.
var ErrMalformedGraph = errors.New("malformed graph")
