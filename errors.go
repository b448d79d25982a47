package motionhdr

import "errors"

var (
	// ErrInvalidInput reports a missing input file or one that fails the JPEG signature check.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConverged reports that the declared primary length never matched the measured one.
	ErrNotConverged = errors.New("descriptor did not converge")
	// ErrLengthMismatch reports a declared segment length that differs from the bytes on disk.
	ErrLengthMismatch = errors.New("segment length mismatch")
	// ErrDuplicateOutput reports two batch jobs writing the same output path.
	ErrDuplicateOutput = errors.New("duplicate output path")
	// ErrNoDescriptor reports a JPEG without a GContainer directory.
	ErrNoDescriptor = errors.New("container descriptor not found")
)
