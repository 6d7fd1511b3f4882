package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrOutOfBounds        = errors.New("tensor extends beyond weights blob")
	ErrNegativeOffset     = errors.New("negative offset or size")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrInvalidFormat      = errors.New("not an lle archive")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrMissingMember      = errors.New("archive member missing")
	ErrInvalidShape       = errors.New("invalid tensor shape")
)

// ValidationError provides detailed information about validation failures.
// It unwraps to one of the sentinel errors above.
type ValidationError struct {
	Kind    error  // Sentinel describing the failure
	Tensor  string // Primary tensor involved
	Tensor2 string // Secondary tensor (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%v: tensors %q and %q: %s", e.Kind, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%v: tensor %q: %s", e.Kind, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// WeightIndexMismatchError reports a weights index that does not line up
// with the parameters of the rebuilt model.
type WeightIndexMismatchError struct {
	Index   int    // Position in Model.Parameters, or -1 for a count mismatch
	Details string // What differed
}

// Error implements the error interface.
func (e *WeightIndexMismatchError) Error() string {
	if e.Index < 0 {
		return "weights index mismatch: " + e.Details
	}
	return fmt.Sprintf("weights index mismatch at parameter %d: %s", e.Index, e.Details)
}
