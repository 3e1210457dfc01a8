// Copyright 2025 Minigrad ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff exposes the computation-graph protocol shared by the
// scalar and tensor engines.
//
// Most users never touch this package directly: Scalar.Backward and
// Tensor.Backward drive it internally. It is public for collaborators
// that define their own differentiable value types.
//
// Example:
//
//	x := scalar.New(2.0)
//	z := x.Mul(x)
//	_ = autodiff.Backpropagate[float64](z, 1.0, func(a, b float64) float64 { return a + b })
package autodiff

import (
	"github.com/minigrad-ml/minigrad/internal/autodiff"
)

// Variable is a node in the computation graph with derivative type D.
type Variable[D any] = autodiff.Variable[D]

// Gradient pairs a variable with a derivative contribution flowing to it.
type Gradient[D any] = autodiff.Gradient[D]

// NextID returns a fresh process-wide variable identifier.
func NextID() uint64 {
	return autodiff.NextID()
}

// TopologicalOrder returns every non-constant variable reachable from
// root, consumers before producers.
func TopologicalOrder[D any](root Variable[D]) []Variable[D] {
	return autodiff.TopologicalOrder(root)
}

// Backpropagate runs reverse-mode differentiation from root with
// incoming derivative d, combining repeated contributions with sum.
func Backpropagate[D any](root Variable[D], d D, sum func(a, b D) D) error {
	return autodiff.Backpropagate(root, d, sum)
}
