// Package operators provides the pure scalar math primitives that every
// differentiable function is built from, together with their derivative
// helpers and a small set of higher-order list combinators.
//
// All functions are stateless and operate on float64. Comparison results
// use the 0.0/1.0 convention so they compose with arithmetic.
package operators

import "math"

// closeTolerance is the absolute tolerance used by IsClose.
const closeTolerance = 1e-2

// Mul returns a * b.
func Mul(a, b float64) float64 { return a * b }

// ID returns its argument unchanged.
func ID(a float64) float64 { return a }

// Add returns a + b.
func Add(a, b float64) float64 { return a + b }

// Neg returns -a.
func Neg(a float64) float64 { return -a }

// Lt returns 1.0 if a < b, else 0.0.
func Lt(a, b float64) float64 {
	if a < b {
		return 1.0
	}
	return 0.0
}

// Gt returns 1.0 if a > b, else 0.0.
func Gt(a, b float64) float64 {
	if a > b {
		return 1.0
	}
	return 0.0
}

// Eq returns 1.0 if a == b, else 0.0.
func Eq(a, b float64) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

// Max returns the larger of a and b.
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// IsClose returns 1.0 if |a - b| < 1e-2, else 0.0.
func IsClose(a, b float64) float64 {
	if math.Abs(a-b) < closeTolerance {
		return 1.0
	}
	return 0.0
}

// Sigmoid computes 1 / (1 + e^-x) using the numerically stable split
// form: for negative x the equivalent e^x / (1 + e^x) avoids overflow.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1.0 + e)
}

// ReLU returns max(0, x).
func ReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0.0
}

// Log returns the natural logarithm of x.
func Log(x float64) float64 { return math.Log(x) }

// Exp returns e^x.
func Exp(x float64) float64 { return math.Exp(x) }

// Inv returns 1 / x.
func Inv(x float64) float64 { return 1.0 / x }

// LogBack computes d * d(log(x))/dx = d / x.
func LogBack(x, d float64) float64 { return d / x }

// InvBack computes d * d(1/x)/dx = -d / x².
func InvBack(x, d float64) float64 { return -d / (x * x) }

// ReLUBack computes d * d(relu(x))/dx: d where x > 0, else 0.
func ReLUBack(x, d float64) float64 {
	if x > 0 {
		return d
	}
	return 0.0
}

// Map lifts a unary function to operate elementwise over a slice.
func Map(fn func(float64) float64) func([]float64) []float64 {
	return func(xs []float64) []float64 {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = fn(x)
		}
		return out
	}
}

// ZipWith lifts a binary function to operate pairwise over two slices.
// The slices must have equal length.
func ZipWith(fn func(a, b float64) float64) func(a, b []float64) []float64 {
	return func(a, b []float64) []float64 {
		out := make([]float64, len(a))
		for i := range a {
			out[i] = fn(a[i], b[i])
		}
		return out
	}
}

// Reduce folds a binary function over a slice starting from start.
func Reduce(fn func(a, b float64) float64, start float64) func([]float64) float64 {
	return func(xs []float64) float64 {
		acc := start
		for _, x := range xs {
			acc = fn(acc, x)
		}
		return acc
	}
}

// Sum returns the sum of the slice elements.
func Sum(xs []float64) float64 { return Reduce(Add, 0.0)(xs) }

// Prod returns the product of the slice elements.
func Prod(xs []float64) float64 { return Reduce(Mul, 1.0)(xs) }
