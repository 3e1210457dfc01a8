// Copyright 2025 Minigrad ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package scalar provides the public API for scalar automatic
// differentiation: float64 values wrapped with operation history.
//
// # Basic Usage
//
//	x := scalar.New(2.0)
//	y := scalar.New(3.0)
//	z := x.Mul(y).Add(x) // z = x*y + x
//	_ = z.Backward()
//	// x.Derivative() == y + 1 == 4
//	// y.Derivative() == x == 2
//
// Bare numbers are promoted explicitly: New creates a leaf that
// accumulates gradients, Constant creates a value excluded from
// differentiation.
package scalar

import (
	"github.com/minigrad-ml/minigrad/internal/scalar"
)

// Scalar wraps a float64 with operation history and a derivative slot.
type Scalar = scalar.Scalar

// History records how a computed scalar was produced.
type History = scalar.History

// Context bridges a forward computation to its matching backward
// computation.
type Context = scalar.Context

// Function is the differentiable function protocol for scalars.
type Function = scalar.Function

// Construction.
var (
	// New creates a leaf scalar: a gradient accumulation target.
	New = scalar.New
	// Constant creates a scalar excluded from differentiation.
	Constant = scalar.Constant
)

// Apply invokes a scalar function through the differentiable function
// protocol.
var Apply = scalar.Apply

// Concrete scalar functions, registered once and referenced by
// identity. Comparisons yield zero gradient for every input.
var (
	Add     = scalar.Add
	Mul     = scalar.Mul
	Log     = scalar.Log
	Inv     = scalar.Inv
	Neg     = scalar.Neg
	Sigmoid = scalar.Sigmoid
	ReLU    = scalar.ReLU
	Exp     = scalar.Exp
	LT      = scalar.LT
	GT      = scalar.GT
	EQ      = scalar.EQ
)

// CentralDifference approximates a partial derivative with a symmetric
// difference quotient; used for gradient checking.
var CentralDifference = scalar.CentralDifference
