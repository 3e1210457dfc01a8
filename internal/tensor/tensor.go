// Package tensor provides the strided N-dimensional half of the
// engine: the indexing engine (index/stride/broadcast arithmetic), the
// TensorData store, and the autodiff-aware Tensor built on both.
package tensor

import (
	"fmt"
	"math/rand"

	"github.com/minigrad-ml/minigrad/internal/autodiff"
	"github.com/minigrad-ml/minigrad/internal/operators"
)

// History records how a computed Tensor was produced: the function, the
// context stashed during its forward pass, and the input operands. A
// History with a nil function marks a leaf.
type History struct {
	fn     Function
	ctx    *Context
	inputs []*Tensor
}

// Context carries TensorData values saved by a forward computation for
// reuse by the matching backward computation. It is created inside
// Apply, stored unchanged in the History, and never mutated outside
// that forward/backward pair.
type Context struct {
	noGrad bool
	saved  []*TensorData
}

// SaveForBackward stashes values for the backward pass.
// No-op when gradients are disabled for this invocation.
func (c *Context) SaveForBackward(vals ...*TensorData) {
	if c.noGrad {
		return
	}
	c.saved = append(c.saved, vals...)
}

// Saved returns the values stashed during the forward pass.
func (c *Context) Saved() []*TensorData { return c.saved }

// Tensor wraps a TensorData with optional History and an accumulated
// gradient slot, implementing the autodiff Variable protocol with
// tensor-valued derivatives.
type Tensor struct {
	data    *TensorData
	history *History
	grad    *Tensor
	id      uint64
}

// FromData wraps a TensorData as a constant tensor (no gradient
// tracking). Call RequireGrad to turn it into a leaf.
func FromData(data *TensorData) *Tensor {
	return &Tensor{data: data, id: autodiff.NextID()}
}

// FromSlice creates a constant tensor from a flat slice and shape.
// The slice becomes the tensor's buffer; it is not copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	td, err := NewTensorData(data, shape, nil)
	if err != nil {
		return nil, err
	}
	return FromData(td), nil
}

// FromFloat wraps a single float64 as a 1-element tensor.
func FromFloat(v float64) *Tensor {
	t, err := FromSlice([]float64{v}, Shape{1})
	if err != nil {
		panic(err) // shape {1} always matches a 1-element buffer
	}
	return t
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return FromData(emptyLike(shape))
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1.0)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	td := emptyLike(shape)
	for i := range td.storage {
		td.storage[i] = value
	}
	return FromData(td)
}

// Rand creates a tensor with values drawn uniformly from [0, 1) using
// the supplied random source.
func Rand(shape Shape, rng *rand.Rand) *Tensor {
	td := emptyLike(shape)
	for i := range td.storage {
		td.storage[i] = rng.Float64()
	}
	return FromData(td)
}

// RequireGrad marks the tensor as a leaf: a gradient accumulation
// target. Returns the tensor for chaining.
func (t *Tensor) RequireGrad() *Tensor {
	t.history = &History{}
	return t
}

// Data returns the underlying TensorData.
func (t *Tensor) Data() *TensorData { return t.data }

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.data.shape }

// Size returns the total number of elements.
func (t *Tensor) Size() int { return t.data.Size() }

// Dims returns the number of dimensions.
func (t *Tensor) Dims() int { return t.data.Dims() }

// Item returns the value of a 1-element tensor.
// Panics if the tensor holds more than one element.
func (t *Tensor) Item() float64 {
	if t.Size() != 1 {
		panic(fmt.Sprintf("tensor: Item on tensor of shape %v", t.Shape()))
	}
	return t.data.storage[0]
}

// At reads the value at the given index.
// Panics on an invalid index; use Data().Get for a recoverable error.
func (t *Tensor) At(index ...int) float64 {
	v, err := t.data.Get(index...)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes value at the given index.
// Panics on an invalid index; use Data().Set for a recoverable error.
func (t *Tensor) Set(value float64, index ...int) {
	if err := t.data.Set(value, index...); err != nil {
		panic(err)
	}
}

// Detach returns a tensor sharing the same data with no gradient
// tracking.
func (t *Tensor) Detach() *Tensor {
	return FromData(t.data)
}

// Grad returns the accumulated gradient, or nil if backpropagation has
// not reached this tensor.
func (t *Tensor) Grad() *Tensor { return t.grad }

// ZeroGrad clears the accumulated gradient.
func (t *Tensor) ZeroGrad() { t.grad = nil }

// String returns a human-readable representation.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v%s", t.Shape(), t.data)
}

// ID returns the tensor's stable graph identifier.
func (t *Tensor) ID() uint64 { return t.id }

// IsLeaf reports whether this tensor was created by the user rather
// than computed by a function.
func (t *Tensor) IsLeaf() bool {
	return t.history != nil && t.history.fn == nil
}

// IsConstant reports whether this tensor is excluded from
// differentiation.
func (t *Tensor) IsConstant() bool { return t.history == nil }

// Parents returns the tensors this one was computed from.
func (t *Tensor) Parents() []autodiff.Variable[*Tensor] {
	if t.history == nil {
		return nil
	}
	parents := make([]autodiff.Variable[*Tensor], 0, len(t.history.inputs))
	for _, in := range t.history.inputs {
		parents = append(parents, in)
	}
	return parents
}

// ChainRule routes dOut through the producing function's backward pass.
// Gradients whose shape was enlarged by broadcasting during the forward
// pass are reduced back to the matching input's shape.
func (t *Tensor) ChainRule(dOut *Tensor) ([]autodiff.Gradient[*Tensor], error) {
	h := t.history
	if h == nil || h.fn == nil {
		return nil, fmt.Errorf("chain rule on non-computed tensor of shape %v", t.Shape())
	}
	grads, err := h.fn.Backward(h.ctx, dOut)
	if err != nil {
		return nil, fmt.Errorf("%s backward: %w", h.fn.Name(), err)
	}
	if len(grads) != len(h.inputs) {
		return nil, fmt.Errorf("%s backward returned %d gradients for %d inputs",
			h.fn.Name(), len(grads), len(h.inputs))
	}
	out := make([]autodiff.Gradient[*Tensor], 0, len(h.inputs))
	for i, in := range h.inputs {
		if in.IsConstant() {
			continue
		}
		g, err := reduceToShape(in.Shape(), grads[i])
		if err != nil {
			return nil, fmt.Errorf("%s backward: %w", h.fn.Name(), err)
		}
		out = append(out, autodiff.Gradient[*Tensor]{Variable: in, Derivative: g})
	}
	return out, nil
}

// AccumulateDerivative adds d into the gradient slot.
// Panics if called on a non-leaf tensor; only leaves accumulate.
func (t *Tensor) AccumulateDerivative(d *Tensor) {
	if !t.IsLeaf() {
		panic(fmt.Sprintf("tensor: accumulate derivative on non-leaf of shape %v", t.Shape()))
	}
	if t.grad == nil {
		t.grad = Zeros(t.Shape())
	}
	t.grad = addTensors(t.grad, d)
}

// Backward runs backpropagation from this tensor, seeding with a ones
// tensor of the output's shape, and stores gradients on every
// reachable leaf.
func (t *Tensor) Backward() error {
	return t.BackwardWithGrad(Ones(t.Shape()))
}

// BackwardWithGrad runs backpropagation with an explicit seed gradient.
func (t *Tensor) BackwardWithGrad(d *Tensor) error {
	return autodiff.Backpropagate[*Tensor](t, d, addTensors)
}

// addTensors sums two gradient contributions of identical shape.
// Used as the accumulation function during backpropagation.
func addTensors(a, b *Tensor) *Tensor {
	return FromData(addTD(a.data, b.data))
}

// reduceToShape shrinks grad back to shape after a broadcast expansion:
// dimensions the forward pass broadcast up are summed out, then the
// result is re-viewed to the original shape. Returns grad unchanged
// when the shapes already match.
func reduceToShape(shape Shape, grad *Tensor) (*Tensor, error) {
	if shape.Equal(grad.Shape()) {
		return grad, nil
	}
	trueShape, err := ShapeBroadcast(shape, grad.Shape())
	if err != nil {
		return nil, err
	}
	buf := emptyLike(trueShape)
	if err := mapInto(operators.ID, buf, grad.data); err != nil {
		return nil, err
	}
	// Left-pad the target shape with 1s and sum out every dimension the
	// broadcast enlarged.
	padded := make(Shape, len(trueShape))
	pad := len(trueShape) - len(shape)
	for i := range padded {
		if i < pad {
			padded[i] = 1
		} else {
			padded[i] = shape[i-pad]
		}
	}
	out := buf
	for dim := range out.shape {
		if padded[dim] == 1 && out.shape[dim] != 1 {
			out, err = reduceTD(operators.Add, 0.0, out, dim)
			if err != nil {
				return nil, err
			}
		}
	}
	viewed, err := NewTensorData(out.Contiguous().storage, shape, nil)
	if err != nil {
		return nil, err
	}
	return FromData(viewed), nil
}
