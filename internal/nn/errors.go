package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

// Common errors.
var (
	ErrCacheMismatch     = errors.New("backward called without a matching forward cache")
	ErrNotDifferentiable = errors.New("loss does not provide a gradient")
	ErrEmptyTrace        = errors.New("trace does not match the model's layers")
)

// CacheError reports a Backward call that received a cache its Forward
// did not produce.
type CacheError struct {
	Layer string
}

// Error implements the error interface.
func (e *CacheError) Error() string {
	return fmt.Sprintf("nn.%s: %v", e.Layer, ErrCacheMismatch)
}

// Unwrap returns ErrCacheMismatch.
func (e *CacheError) Unwrap() error {
	return ErrCacheMismatch
}

// BoundsError reports an index outside the valid range, e.g. an Embedding
// lookup outside [0, vocab) or a class index outside [0, classes).
type BoundsError struct {
	Op    string  // Operation name
	Index float32 // Offending value, as stored in the input tensor
	Limit int     // Exclusive upper bound
}

// Error implements the error interface.
func (e *BoundsError) Error() string {
	return fmt.Sprintf("nn.%s: index %v out of bounds for size %d", e.Op, e.Index, e.Limit)
}

// UnknownLayerTypeError reports a type tag with no registered constructor.
type UnknownLayerTypeError struct {
	Type string
}

// Error implements the error interface.
func (e *UnknownLayerTypeError) Error() string {
	return fmt.Sprintf("unknown layer type %q", e.Type)
}

// validIndex reports whether v is an integer in [0, limit). The range is
// checked in float32 before any conversion, since int(v) is undefined for
// values outside the int range.
func validIndex(v float32, limit int) bool {
	return v >= 0 && v < float32(limit) && v == math32.Trunc(v)
}

// shapeMismatch builds the ShapeError layers panic with on malformed input.
func shapeMismatch(op string, got tensor.Shape, format string, args ...any) *tensor.ShapeError {
	return &tensor.ShapeError{Op: op, Left: got.Clone(), Msg: fmt.Sprintf(format, args...)}
}
