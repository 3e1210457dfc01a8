package scalar

import (
	"github.com/minigrad-ml/minigrad/internal/autodiff"
	"github.com/minigrad-ml/minigrad/internal/operators"
)

// Function is the differentiable function protocol for scalars: a pure
// forward computation paired with a backward computation that consumes
// the same context and produces one gradient per original input.
//
// Each concrete function is a stateless singleton registered once below
// and referenced by identity from History records.
type Function interface {
	// Name identifies the function in error messages.
	Name() string
	// Forward computes the result from raw inputs, optionally stashing
	// values into ctx for the backward pass.
	Forward(ctx *Context, inputs ...float64) float64
	// Backward consumes the context and the gradient flowing back from
	// the output, producing one gradient per input, in input order.
	Backward(ctx *Context, dOut float64) []float64
}

// Apply invokes fn through the differentiable function protocol: it
// unwraps the operands, runs the forward pass with a fresh context, and
// wraps the result with a History referencing fn, the context and the
// operands. Inputs are never mutated.
//
// Apply accepts only wrapped values; promote bare numbers with New or
// Constant first.
func Apply(fn Function, inputs ...*Scalar) *Scalar {
	raw := make([]float64, len(inputs))
	for i, in := range inputs {
		raw[i] = in.data
	}
	ctx := &Context{}
	out := fn.Forward(ctx, raw...)
	return &Scalar{
		data:    out,
		history: &History{fn: fn, ctx: ctx, inputs: inputs},
		id:      autodiff.NextID(),
	}
}

// Concrete scalar functions. Comparisons are non-differentiable and
// return zero gradient for every input by convention.
var (
	Add     Function = addFunc{}
	Mul     Function = mulFunc{}
	Log     Function = logFunc{}
	Inv     Function = invFunc{}
	Neg     Function = negFunc{}
	Sigmoid Function = sigmoidFunc{}
	ReLU    Function = reluFunc{}
	Exp     Function = expFunc{}
	LT      Function = ltFunc{}
	GT      Function = gtFunc{}
	EQ      Function = eqFunc{}
)

// addFunc computes f(a, b) = a + b.
type addFunc struct{}

func (addFunc) Name() string { return "Add" }
func (addFunc) Forward(_ *Context, inputs ...float64) float64 {
	return operators.Add(inputs[0], inputs[1])
}
func (addFunc) Backward(_ *Context, dOut float64) []float64 {
	return []float64{dOut, dOut}
}

// mulFunc computes f(a, b) = a * b.
type mulFunc struct{}

func (mulFunc) Name() string { return "Mul" }
func (mulFunc) Forward(ctx *Context, inputs ...float64) float64 {
	ctx.SaveForBackward(inputs[0], inputs[1])
	return operators.Mul(inputs[0], inputs[1])
}
func (mulFunc) Backward(ctx *Context, dOut float64) []float64 {
	a, b := ctx.Saved()[0], ctx.Saved()[1]
	return []float64{b * dOut, a * dOut}
}

// logFunc computes f(a) = log(a).
type logFunc struct{}

func (logFunc) Name() string { return "Log" }
func (logFunc) Forward(ctx *Context, inputs ...float64) float64 {
	ctx.SaveForBackward(inputs[0])
	return operators.Log(inputs[0])
}
func (logFunc) Backward(ctx *Context, dOut float64) []float64 {
	return []float64{operators.LogBack(ctx.Saved()[0], dOut)}
}

// invFunc computes f(a) = 1 / a.
type invFunc struct{}

func (invFunc) Name() string { return "Inv" }
func (invFunc) Forward(ctx *Context, inputs ...float64) float64 {
	ctx.SaveForBackward(inputs[0])
	return operators.Inv(inputs[0])
}
func (invFunc) Backward(ctx *Context, dOut float64) []float64 {
	return []float64{operators.InvBack(ctx.Saved()[0], dOut)}
}

// negFunc computes f(a) = -a.
type negFunc struct{}

func (negFunc) Name() string { return "Neg" }
func (negFunc) Forward(_ *Context, inputs ...float64) float64 {
	return operators.Neg(inputs[0])
}
func (negFunc) Backward(_ *Context, dOut float64) []float64 {
	return []float64{-dOut}
}

// sigmoidFunc computes f(a) = 1 / (1 + e^-a).
type sigmoidFunc struct{}

func (sigmoidFunc) Name() string { return "Sigmoid" }
func (sigmoidFunc) Forward(ctx *Context, inputs ...float64) float64 {
	ctx.SaveForBackward(inputs[0])
	return operators.Sigmoid(inputs[0])
}
func (sigmoidFunc) Backward(ctx *Context, dOut float64) []float64 {
	s := operators.Sigmoid(ctx.Saved()[0])
	return []float64{s * (1.0 - s) * dOut}
}

// reluFunc computes f(a) = max(0, a).
type reluFunc struct{}

func (reluFunc) Name() string { return "ReLU" }
func (reluFunc) Forward(ctx *Context, inputs ...float64) float64 {
	ctx.SaveForBackward(inputs[0])
	return operators.ReLU(inputs[0])
}
func (reluFunc) Backward(ctx *Context, dOut float64) []float64 {
	return []float64{operators.ReLUBack(ctx.Saved()[0], dOut)}
}

// expFunc computes f(a) = e^a.
type expFunc struct{}

func (expFunc) Name() string { return "Exp" }
func (expFunc) Forward(ctx *Context, inputs ...float64) float64 {
	ctx.SaveForBackward(inputs[0])
	return operators.Exp(inputs[0])
}
func (expFunc) Backward(ctx *Context, dOut float64) []float64 {
	return []float64{operators.Exp(ctx.Saved()[0]) * dOut}
}

// ltFunc computes f(a, b) = 1.0 if a < b else 0.0.
type ltFunc struct{}

func (ltFunc) Name() string { return "LT" }
func (ltFunc) Forward(_ *Context, inputs ...float64) float64 {
	return operators.Lt(inputs[0], inputs[1])
}
func (ltFunc) Backward(_ *Context, _ float64) []float64 {
	return []float64{0.0, 0.0}
}

// gtFunc computes f(a, b) = 1.0 if a > b else 0.0.
type gtFunc struct{}

func (gtFunc) Name() string { return "GT" }
func (gtFunc) Forward(_ *Context, inputs ...float64) float64 {
	return operators.Gt(inputs[0], inputs[1])
}
func (gtFunc) Backward(_ *Context, _ float64) []float64 {
	return []float64{0.0, 0.0}
}

// eqFunc computes f(a, b) = 1.0 if a == b else 0.0.
type eqFunc struct{}

func (eqFunc) Name() string { return "EQ" }
func (eqFunc) Forward(_ *Context, inputs ...float64) float64 {
	return operators.Eq(inputs[0], inputs[1])
}
func (eqFunc) Backward(_ *Context, _ float64) []float64 {
	return []float64{0.0, 0.0}
}

// Operator sugar. Each method applies the corresponding function
// through the protocol, so results always carry history.

// Add returns s + other.
func (s *Scalar) Add(other *Scalar) *Scalar { return Apply(Add, s, other) }

// Mul returns s * other.
func (s *Scalar) Mul(other *Scalar) *Scalar { return Apply(Mul, s, other) }

// Neg returns -s.
func (s *Scalar) Neg() *Scalar { return Apply(Neg, s) }

// Sub returns s - other.
func (s *Scalar) Sub(other *Scalar) *Scalar { return s.Add(other.Neg()) }

// Inv returns 1 / s.
func (s *Scalar) Inv() *Scalar { return Apply(Inv, s) }

// Div returns s / other.
func (s *Scalar) Div(other *Scalar) *Scalar { return s.Mul(other.Inv()) }

// Log returns log(s).
func (s *Scalar) Log() *Scalar { return Apply(Log, s) }

// Exp returns e^s.
func (s *Scalar) Exp() *Scalar { return Apply(Exp, s) }

// Sigmoid returns 1 / (1 + e^-s).
func (s *Scalar) Sigmoid() *Scalar { return Apply(Sigmoid, s) }

// ReLU returns max(0, s).
func (s *Scalar) ReLU() *Scalar { return Apply(ReLU, s) }

// Lt returns 1.0 if s < other else 0.0.
func (s *Scalar) Lt(other *Scalar) *Scalar { return Apply(LT, s, other) }

// Gt returns 1.0 if s > other else 0.0.
func (s *Scalar) Gt(other *Scalar) *Scalar { return Apply(GT, s, other) }

// Eq returns 1.0 if s == other else 0.0.
func (s *Scalar) Eq(other *Scalar) *Scalar { return Apply(EQ, s, other) }
