package engine

import "errors"

var (
	// ErrInvalidInput is returned before any attempt runs when the input is
	// empty or a rectangle has a non-positive side.
	ErrInvalidInput = errors.New("invalid packing input")

	// ErrInvalidHint is returned when an operation that needs exactly one
	// ordering criterion receives zero or several.
	ErrInvalidHint = errors.New("packing hint must be a single ordering")

	// ErrPackingFailed is returned when no ordering could place every
	// rectangle within the canvas ceiling.
	ErrPackingFailed = errors.New("could not pack rectangles")

	// errCeilingExceeded fails a single attempt; the search driver recovers
	// from it by trying the next ordering.
	errCeilingExceeded = errors.New("canvas ceiling exceeded")

	// errNotRun marks attempts skipped because the context was done.
	errNotRun = errors.New("attempt not run")
)
