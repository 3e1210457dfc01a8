package tensor

import (
	"fmt"

	"github.com/minigrad-ml/minigrad/internal/operators"
)

// Function is the differentiable function protocol for tensors, the
// N-dimensional analogue of the scalar protocol: a forward computation
// over detached operands paired with a backward computation consuming
// the same context.
//
// Elementwise functions are stateless singletons; shape-transforming
// functions (Permute, View, Sum) carry their immutable parameters on
// the per-application instance.
type Function interface {
	// Name identifies the function in error messages.
	Name() string
	// Forward computes the result from detached operands, optionally
	// stashing TensorData values into ctx for the backward pass.
	Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error)
	// Backward consumes the context and the gradient flowing back from
	// the output, producing one gradient per input, in input order.
	Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error)
}

// Apply invokes fn through the differentiable function protocol: it
// detaches the operands, runs the forward pass with a fresh context,
// and — if any operand participates in the graph — attaches a History
// referencing fn, the context and the operands. Inputs are never
// mutated.
func Apply(fn Function, inputs ...*Tensor) (*Tensor, error) {
	needGrad := false
	raw := make([]*Tensor, len(inputs))
	for i, in := range inputs {
		if !in.IsConstant() {
			needGrad = true
		}
		raw[i] = in.Detach()
	}
	ctx := &Context{noGrad: !needGrad}
	out, err := fn.Forward(ctx, raw...)
	if err != nil {
		return nil, fmt.Errorf("%s forward: %w", fn.Name(), err)
	}
	if needGrad {
		out.history = &History{fn: fn, ctx: ctx, inputs: inputs}
	}
	return out, nil
}

// Elementwise function singletons. Comparisons are non-differentiable
// and return zero gradient for every input by convention.
var (
	NegFn     Function = negTensorFunc{}
	InvFn     Function = invTensorFunc{}
	AddFn     Function = addTensorFunc{}
	MulFn     Function = mulTensorFunc{}
	SigmoidFn Function = sigmoidTensorFunc{}
	ReLUFn    Function = reluTensorFunc{}
	LogFn     Function = logTensorFunc{}
	ExpFn     Function = expTensorFunc{}
	LTFn      Function = ltTensorFunc{}
	EQFn      Function = eqTensorFunc{}
	IsCloseFn Function = isCloseTensorFunc{}
	CopyFn    Function = copyTensorFunc{}
	MatMulFn  Function = matMulTensorFunc{}
)

type negTensorFunc struct{}

func (negTensorFunc) Name() string { return "Neg" }
func (negTensorFunc) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	return FromData(mapTD(operators.Neg, inputs[0].data)), nil
}
func (negTensorFunc) Backward(_ *Context, dOut *Tensor) ([]*Tensor, error) {
	return []*Tensor{FromData(mapTD(operators.Neg, dOut.data))}, nil
}

type invTensorFunc struct{}

func (invTensorFunc) Name() string { return "Inv" }
func (invTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data)
	return FromData(mapTD(operators.Inv, inputs[0].data)), nil
}
func (invTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a := ctx.Saved()[0]
	g, err := zipTD(operators.InvBack, a, dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

type addTensorFunc struct{}

func (addTensorFunc) Name() string { return "Add" }
func (addTensorFunc) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	out, err := zipTD(operators.Add, inputs[0].data, inputs[1].data)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}
func (addTensorFunc) Backward(_ *Context, dOut *Tensor) ([]*Tensor, error) {
	return []*Tensor{dOut, dOut}, nil
}

type mulTensorFunc struct{}

func (mulTensorFunc) Name() string { return "Mul" }
func (mulTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data, inputs[1].data)
	out, err := zipTD(operators.Mul, inputs[0].data, inputs[1].data)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}
func (mulTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a, b := ctx.Saved()[0], ctx.Saved()[1]
	gradA, err := zipTD(operators.Mul, b, dOut.data)
	if err != nil {
		return nil, err
	}
	gradB, err := zipTD(operators.Mul, a, dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(gradA), FromData(gradB)}, nil
}

type sigmoidTensorFunc struct{}

func (sigmoidTensorFunc) Name() string { return "Sigmoid" }
func (sigmoidTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data)
	return FromData(mapTD(operators.Sigmoid, inputs[0].data)), nil
}
func (sigmoidTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a := ctx.Saved()[0]
	g, err := zipTD(func(x, d float64) float64 {
		s := operators.Sigmoid(x)
		return s * (1.0 - s) * d
	}, a, dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

type reluTensorFunc struct{}

func (reluTensorFunc) Name() string { return "ReLU" }
func (reluTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data)
	return FromData(mapTD(operators.ReLU, inputs[0].data)), nil
}
func (reluTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a := ctx.Saved()[0]
	g, err := zipTD(operators.ReLUBack, a, dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

type logTensorFunc struct{}

func (logTensorFunc) Name() string { return "Log" }
func (logTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data)
	return FromData(mapTD(operators.Log, inputs[0].data)), nil
}
func (logTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a := ctx.Saved()[0]
	g, err := zipTD(operators.LogBack, a, dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

type expTensorFunc struct{}

func (expTensorFunc) Name() string { return "Exp" }
func (expTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data)
	return FromData(mapTD(operators.Exp, inputs[0].data)), nil
}
func (expTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a := ctx.Saved()[0]
	g, err := zipTD(func(x, d float64) float64 {
		return operators.Exp(x) * d
	}, a, dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

type ltTensorFunc struct{}

func (ltTensorFunc) Name() string { return "LT" }
func (ltTensorFunc) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	out, err := zipTD(operators.Lt, inputs[0].data, inputs[1].data)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}
func (ltTensorFunc) Backward(ctx *Context, _ *Tensor) ([]*Tensor, error) {
	return zeroGrads(ctx, 2), nil
}

type eqTensorFunc struct{}

func (eqTensorFunc) Name() string { return "EQ" }
func (eqTensorFunc) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	out, err := zipTD(operators.Eq, inputs[0].data, inputs[1].data)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}
func (eqTensorFunc) Backward(ctx *Context, _ *Tensor) ([]*Tensor, error) {
	return zeroGrads(ctx, 2), nil
}

type isCloseTensorFunc struct{}

func (isCloseTensorFunc) Name() string { return "IsClose" }
func (isCloseTensorFunc) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	out, err := zipTD(operators.IsClose, inputs[0].data, inputs[1].data)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}
func (isCloseTensorFunc) Backward(ctx *Context, _ *Tensor) ([]*Tensor, error) {
	return zeroGrads(ctx, 2), nil
}

// zeroGrads builds 1-element zero gradients for a non-differentiable
// function with n inputs. ChainRule reduces each to the input's shape.
func zeroGrads(_ *Context, n int) []*Tensor {
	grads := make([]*Tensor, n)
	for i := range grads {
		grads[i] = Zeros(Shape{1})
	}
	return grads
}

type copyTensorFunc struct{}

func (copyTensorFunc) Name() string { return "Copy" }
func (copyTensorFunc) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	return FromData(inputs[0].data.Contiguous()), nil
}
func (copyTensorFunc) Backward(_ *Context, dOut *Tensor) ([]*Tensor, error) {
	return []*Tensor{dOut}, nil
}

// SumFn reduces over one dimension with addition.
type SumFn struct {
	Dim int
}

func (SumFn) Name() string { return "Sum" }

// Forward saves the input so backward can recover its shape.
func (f SumFn) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data)
	out, err := reduceTD(operators.Add, 0.0, inputs[0].data, f.Dim)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}

// Backward broadcasts the incoming gradient back over the reduced
// dimension.
func (f SumFn) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a := ctx.Saved()[0]
	g := emptyLike(a.shape)
	if err := mapInto(operators.ID, g, dOut.data); err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

// AllFn reduces over one dimension with multiplication, treating the
// 0.0/1.0 payloads as booleans. Non-differentiable.
type AllFn struct {
	Dim int
}

func (AllFn) Name() string { return "All" }
func (f AllFn) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	out, err := reduceTD(operators.Mul, 1.0, inputs[0].data, f.Dim)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}
func (AllFn) Backward(ctx *Context, _ *Tensor) ([]*Tensor, error) {
	return zeroGrads(ctx, 1), nil
}

// PermuteFn reorders dimensions according to Order (zero-copy view).
type PermuteFn struct {
	Order []int
}

func (PermuteFn) Name() string { return "Permute" }
func (f PermuteFn) Forward(_ *Context, inputs ...*Tensor) (*Tensor, error) {
	return FromData(inputs[0].data.Permute(f.Order...)), nil
}

// Backward applies the inverse permutation to the incoming gradient.
func (f PermuteFn) Backward(_ *Context, dOut *Tensor) ([]*Tensor, error) {
	inverse := make([]int, len(f.Order))
	for i, o := range f.Order {
		inverse[o] = i
	}
	return []*Tensor{FromData(dOut.data.Permute(inverse...))}, nil
}

// ViewFn reinterprets a contiguous tensor under a new shape of equal
// size (zero-copy).
type ViewFn struct {
	Shape Shape
}

func (ViewFn) Name() string { return "View" }
func (f ViewFn) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	a := inputs[0].data
	if !a.contiguousLayout() {
		return nil, indexingErrorf("view requires a contiguous tensor, got strides %v for shape %v", a.strides, a.shape)
	}
	if f.Shape.NumElements() != a.Size() {
		return nil, indexingErrorf("cannot view shape %v as %v: sizes differ", a.shape, f.Shape)
	}
	ctx.SaveForBackward(a)
	out, err := NewTensorData(a.storage, f.Shape, nil)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}

// Backward restores the original shape.
func (f ViewFn) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	orig := ctx.Saved()[0]
	g, err := NewTensorData(dOut.data.Contiguous().storage, orig.shape, nil)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(g)}, nil
}

type matMulTensorFunc struct{}

func (matMulTensorFunc) Name() string { return "MatMul" }
func (matMulTensorFunc) Forward(ctx *Context, inputs ...*Tensor) (*Tensor, error) {
	ctx.SaveForBackward(inputs[0].data, inputs[1].data)
	out, err := matmulTD(inputs[0].data, inputs[1].data)
	if err != nil {
		return nil, err
	}
	return FromData(out), nil
}

// Backward uses dA = dC·Bᵀ and dB = Aᵀ·dC.
func (matMulTensorFunc) Backward(ctx *Context, dOut *Tensor) ([]*Tensor, error) {
	a, b := ctx.Saved()[0], ctx.Saved()[1]
	gradA, err := matmulTD(dOut.data, b.Permute(1, 0))
	if err != nil {
		return nil, err
	}
	gradB, err := matmulTD(a.Permute(1, 0), dOut.data)
	if err != nil {
		return nil, err
	}
	return []*Tensor{FromData(gradA), FromData(gradB)}, nil
}

// Operator sugar. Each method applies the corresponding function
// through the protocol; invalid shapes panic with the underlying
// IndexingError (use Apply directly for a recoverable error).

func mustApply(fn Function, inputs ...*Tensor) *Tensor {
	out, err := Apply(fn, inputs...)
	if err != nil {
		panic(err)
	}
	return out
}

// Neg returns -t elementwise.
func (t *Tensor) Neg() *Tensor { return mustApply(NegFn, t) }

// Inv returns 1/t elementwise.
func (t *Tensor) Inv() *Tensor { return mustApply(InvFn, t) }

// Add returns t + other with broadcasting.
func (t *Tensor) Add(other *Tensor) *Tensor { return mustApply(AddFn, t, other) }

// Sub returns t - other with broadcasting.
func (t *Tensor) Sub(other *Tensor) *Tensor { return mustApply(AddFn, t, other.Neg()) }

// Mul returns t * other elementwise with broadcasting.
func (t *Tensor) Mul(other *Tensor) *Tensor { return mustApply(MulFn, t, other) }

// Div returns t / other elementwise with broadcasting.
func (t *Tensor) Div(other *Tensor) *Tensor { return mustApply(MulFn, t, other.Inv()) }

// Sigmoid applies the logistic function elementwise.
func (t *Tensor) Sigmoid() *Tensor { return mustApply(SigmoidFn, t) }

// ReLU applies max(0, x) elementwise.
func (t *Tensor) ReLU() *Tensor { return mustApply(ReLUFn, t) }

// Log applies the natural logarithm elementwise.
func (t *Tensor) Log() *Tensor { return mustApply(LogFn, t) }

// Exp applies e^x elementwise.
func (t *Tensor) Exp() *Tensor { return mustApply(ExpFn, t) }

// Lt returns the elementwise comparison t < other (0.0/1.0 payload).
func (t *Tensor) Lt(other *Tensor) *Tensor { return mustApply(LTFn, t, other) }

// Gt returns the elementwise comparison t > other, i.e. other < t.
func (t *Tensor) Gt(other *Tensor) *Tensor { return mustApply(LTFn, other, t) }

// Eq returns the elementwise comparison t == other (0.0/1.0 payload).
func (t *Tensor) Eq(other *Tensor) *Tensor { return mustApply(EQFn, t, other) }

// IsClose returns elementwise closeness |t - other| < 1e-2.
func (t *Tensor) IsClose(other *Tensor) *Tensor { return mustApply(IsCloseFn, t, other) }

// Contiguous returns a tensor with canonical row-major layout,
// differentiable (identity backward).
func (t *Tensor) Contiguous() *Tensor { return mustApply(CopyFn, t) }

// Permute reorders dimensions according to order (zero-copy view).
func (t *Tensor) Permute(order ...int) *Tensor {
	return mustApply(PermuteFn{Order: append([]int(nil), order...)}, t)
}

// View reinterprets the tensor under a new shape of equal size.
// The tensor must be contiguous.
func (t *Tensor) View(shape ...int) *Tensor {
	return mustApply(ViewFn{Shape: Shape(shape).Clone()}, t)
}

// Sum reduces with addition: over the single given dimension (keeping
// rank, reduced dimension becomes 1), or over all elements into a
// 1-element tensor when no dimension is given.
func (t *Tensor) Sum(dim ...int) *Tensor {
	switch len(dim) {
	case 0:
		flat := t.Contiguous().View(t.Size())
		return mustApply(SumFn{Dim: 0}, flat)
	case 1:
		return mustApply(SumFn{Dim: dim[0]}, t)
	default:
		panic(fmt.Sprintf("tensor: Sum takes at most one dimension, got %v", dim))
	}
}

// Mean reduces with addition and divides by the number of reduced
// elements.
func (t *Tensor) Mean(dim ...int) *Tensor {
	n := t.Size()
	if len(dim) == 1 {
		n = t.Shape()[dim[0]]
	}
	return t.Sum(dim...).Mul(FromFloat(1.0 / float64(n)))
}

// All reduces with multiplication over the 0.0/1.0 payload: over one
// dimension, or over all elements when no dimension is given.
func (t *Tensor) All(dim ...int) *Tensor {
	switch len(dim) {
	case 0:
		flat := t.Contiguous().View(t.Size())
		return mustApply(AllFn{Dim: 0}, flat)
	case 1:
		return mustApply(AllFn{Dim: dim[0]}, t)
	default:
		panic(fmt.Sprintf("tensor: All takes at most one dimension, got %v", dim))
	}
}

// MatMul returns the 2-D matrix product t · other.
func (t *Tensor) MatMul(other *Tensor) *Tensor { return mustApply(MatMulFn, t, other) }
