// Package scalar implements the scalar half of the autodiff engine: a
// float64 value wrapped with operation history, differentiated through
// the shared backpropagation machinery in internal/autodiff.
package scalar

import (
	"fmt"

	"github.com/minigrad-ml/minigrad/internal/autodiff"
	"github.com/minigrad-ml/minigrad/internal/operators"
)

// History records how a computed Scalar was produced: the function, the
// context stashed during its forward pass, and the input operands. A
// History with a nil function marks a leaf.
type History struct {
	fn     Function
	ctx    *Context
	inputs []*Scalar
}

// Context carries values saved by a forward computation for reuse by
// the matching backward computation. It is created inside Apply, stored
// unchanged in the History, and never mutated outside that
// forward/backward pair.
type Context struct {
	noGrad bool
	saved  []float64
}

// SaveForBackward stashes values for the backward pass.
// No-op when gradients are disabled for this invocation.
func (c *Context) SaveForBackward(vals ...float64) {
	if c.noGrad {
		return
	}
	c.saved = append(c.saved, vals...)
}

// Saved returns the values stashed during the forward pass.
func (c *Context) Saved() []float64 { return c.saved }

// Scalar wraps a float64 with optional History and an accumulated
// derivative slot. Leaves (created with New) accumulate gradients
// during backpropagation; computed scalars route gradients to their
// inputs; constants (created with Constant) are ignored entirely.
type Scalar struct {
	data       float64
	derivative *float64
	history    *History
	id         uint64
}

// New creates a leaf scalar: a gradient accumulation target.
func New(v float64) *Scalar {
	return &Scalar{
		data:    v,
		history: &History{},
		id:      autodiff.NextID(),
	}
}

// Constant creates a scalar excluded from differentiation.
func Constant(v float64) *Scalar {
	return &Scalar{
		data: v,
		id:   autodiff.NextID(),
	}
}

// Value returns the wrapped float64.
func (s *Scalar) Value() float64 { return s.data }

// SetValue overwrites the wrapped float64. Intended for parameter
// updates between training steps; it does not touch history.
func (s *Scalar) SetValue(v float64) { s.data = v }

// Derivative returns the accumulated gradient, or 0 if backpropagation
// has not reached this scalar.
func (s *Scalar) Derivative() float64 {
	if s.derivative == nil {
		return 0
	}
	return *s.derivative
}

// ZeroDerivative clears the accumulated gradient.
func (s *Scalar) ZeroDerivative() { s.derivative = nil }

// String returns a human-readable representation.
func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(%g)", s.data)
}

// ID returns the scalar's stable graph identifier.
func (s *Scalar) ID() uint64 { return s.id }

// IsLeaf reports whether this scalar was created by the user rather
// than computed by a function.
func (s *Scalar) IsLeaf() bool {
	return s.history != nil && s.history.fn == nil
}

// IsConstant reports whether this scalar is excluded from
// differentiation.
func (s *Scalar) IsConstant() bool { return s.history == nil }

// Parents returns the scalars this one was computed from.
func (s *Scalar) Parents() []autodiff.Variable[float64] {
	if s.history == nil {
		return nil
	}
	parents := make([]autodiff.Variable[float64], 0, len(s.history.inputs))
	for _, in := range s.history.inputs {
		parents = append(parents, in)
	}
	return parents
}

// ChainRule routes dOut through the producing function's backward pass,
// pairing each non-constant input with its gradient contribution.
func (s *Scalar) ChainRule(dOut float64) ([]autodiff.Gradient[float64], error) {
	h := s.history
	if h == nil || h.fn == nil {
		return nil, fmt.Errorf("chain rule on non-computed scalar %s", s)
	}
	grads := h.fn.Backward(h.ctx, dOut)
	if len(grads) != len(h.inputs) {
		return nil, fmt.Errorf("%s backward returned %d gradients for %d inputs",
			h.fn.Name(), len(grads), len(h.inputs))
	}
	out := make([]autodiff.Gradient[float64], 0, len(h.inputs))
	for i, in := range h.inputs {
		if in.IsConstant() {
			continue
		}
		out = append(out, autodiff.Gradient[float64]{Variable: in, Derivative: grads[i]})
	}
	return out, nil
}

// AccumulateDerivative adds d into the gradient slot.
// Panics if called on a non-leaf scalar; only leaves accumulate.
func (s *Scalar) AccumulateDerivative(d float64) {
	if !s.IsLeaf() {
		panic(fmt.Sprintf("scalar: accumulate derivative on non-leaf %s", s))
	}
	if s.derivative == nil {
		zero := 0.0
		s.derivative = &zero
	}
	*s.derivative += d
}

// Backward runs backpropagation from this scalar with seed derivative
// 1.0, storing gradients on every reachable leaf.
func (s *Scalar) Backward() error {
	return s.BackwardWithGrad(1.0)
}

// BackwardWithGrad runs backpropagation with an explicit seed
// derivative.
func (s *Scalar) BackwardWithGrad(d float64) error {
	return autodiff.Backpropagate[float64](s, d, operators.Add)
}

// CentralDifference approximates the derivative of f with respect to
// its arg-th argument at vals using a symmetric difference quotient
// with step epsilon.
func CentralDifference(f func(...float64) float64, arg int, epsilon float64, vals ...float64) float64 {
	up := append([]float64(nil), vals...)
	up[arg] += epsilon
	down := append([]float64(nil), vals...)
	down[arg] -= epsilon
	return (f(up...) - f(down...)) / (2 * epsilon)
}
