package tensor

import (
	"errors"
	"fmt"
)

// ShapeError reports a rank or dimension mismatch in a tensor operation.
//
// The math layer panics with a *ShapeError when an operation receives
// operands it cannot combine; Guard turns such panics back into errors
// at API boundaries.
type ShapeError struct {
	Op    string // Operation name (e.g., "MatMul", "Reshape")
	Left  Shape  // Shape of the receiver
	Right Shape  // Shape of the other operand or requested shape (may be nil)
	Msg   string // Human readable detail
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Right != nil {
		return fmt.Sprintf("tensor.%s: %s (left %v, right %v)", e.Op, e.Msg, e.Left, e.Right)
	}
	return fmt.Sprintf("tensor.%s: %s (shape %v)", e.Op, e.Msg, e.Left)
}

func shapeErr(op string, left, right Shape, format string, args ...any) *ShapeError {
	e := &ShapeError{Op: op, Left: left.Clone(), Msg: fmt.Sprintf(format, args...)}
	if right != nil {
		e.Right = right.Clone()
	}
	return e
}

// Guard runs fn and converts a panic carrying an error into a returned error.
//
// Panics with non-error values are re-raised: they indicate bugs rather than
// misuse of the API.
func Guard(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = e
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

// IsShapeError reports whether err wraps a *ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
