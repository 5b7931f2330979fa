package nnet

import (
	"errors"

	"github.com/taposh/cxxnet/stream"
)

var (
	// ErrMalformed reports a directive whose key or value does not follow
	// the configuration grammar: bad edge syntax, bad input_shape, unknown
	// layer type, or a missing/duplicate layer tag.
	ErrMalformed = errors.New("malformed configuration")

	// ErrMismatch reports a directive replayed against a finalized
	// structure that disagrees with it. The textual configuration must
	// replay a fixed structure verbatim.
	ErrMismatch = errors.New("configuration does not match network structure")

	// ErrTruncated reports a model stream that ended mid-record. A compiler
	// whose LoadStructure failed this way must not be used until a fresh
	// load succeeds.
	ErrTruncated = stream.ErrTruncated
)
