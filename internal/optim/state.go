package optim

import (
	"fmt"

	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/tensor"
)

// State holds an optimizer's step counter and per-parameter buffers.
//
// Buffers are keyed by nn.Parameter.ID, so reordering layers or adding
// new ones never hands one parameter another parameter's moments.
// Each buffer is locked to the shape the parameter had when the state
// was created.
type State struct {
	step  int
	slots map[string]*slot
}

// slot holds the auxiliary buffers of one parameter. Optimizers use as
// many of them as they need (SGD momentum uses first, Adam both).
type slot struct {
	shape  tensor.Shape
	first  *tensor.Tensor
	second *tensor.Tensor
}

// newState allocates zeroed buffers for params.
func newState(params []*nn.Parameter, buffers int) *State {
	s := &State{slots: make(map[string]*slot, len(params))}
	for _, p := range params {
		sl := &slot{shape: p.Shape().Clone()}
		if buffers > 0 {
			sl.first = tensor.Zeros(sl.shape...)
		}
		if buffers > 1 {
			sl.second = tensor.Zeros(sl.shape...)
		}
		s.slots[p.ID()] = sl
	}
	return s
}

// Steps returns the number of completed optimizer steps.
func (s *State) Steps() int {
	return s.step
}

// Len returns the number of tracked parameters.
func (s *State) Len() int {
	return len(s.slots)
}

// update is a single-parameter update rule. data and grad have the same
// length; sl holds the parameter's buffers.
type update func(data, grad []float32, sl *slot)

// apply validates every parameter against s, advances the step counter
// and runs fn on each parameter in order.
func (s *State) apply(op string, params []*nn.Parameter, fn update) error {
	if s == nil {
		return fmt.Errorf("%s: nil state", op)
	}
	slots := make([]*slot, len(params))
	for i, p := range params {
		sl, ok := s.slots[p.ID()]
		if !ok {
			return fmt.Errorf("%s: %s (%s): %w", op, p.Name(), p.ID(), ErrUnknownParameter)
		}
		if !sl.shape.Equal(p.Shape()) {
			return &tensor.ShapeError{Op: op, Left: sl.shape.Clone(), Right: p.Shape().Clone(),
				Msg: fmt.Sprintf("parameter %s changed shape since state was created", p.Name())}
		}
		if p.Grad() == nil {
			return fmt.Errorf("%s: %s: %w", op, p.Name(), ErrMissingGradient)
		}
		if p.Grad().NumElements() != p.Tensor().NumElements() {
			return &tensor.ShapeError{Op: op, Left: p.Shape().Clone(), Right: p.Grad().Shape().Clone(),
				Msg: fmt.Sprintf("gradient of %s does not match parameter", p.Name())}
		}
		slots[i] = sl
	}

	s.step++
	for i, p := range params {
		fn(p.Tensor().Data(), p.Grad().Data(), slots[i])
	}
	return nil
}
