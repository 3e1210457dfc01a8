// Copyright 2025 Minigrad ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for strided tensors: the
// indexing engine, the TensorData store, and the autodiff-aware Tensor.
//
// # Overview
//
// A TensorData owns a flat float64 buffer plus shape/stride metadata;
// permutation produces zero-copy views sharing the buffer. A Tensor
// wraps a TensorData with operation history so that gradients can flow
// back through every operation that produced it.
//
// # Basic Usage
//
//	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	x.RequireGrad()
//	y := x.Mul(x).Sum()
//	_ = y.Backward()
//	grad := x.Grad() // dy/dx = 2x
//
// # Broadcasting
//
// Elementwise operations broadcast shapes following NumPy rules: shapes
// are aligned from the right and dimensions must be equal or 1.
// Incompatible shapes fail with an IndexingError.
package tensor

import (
	"github.com/minigrad-ml/minigrad/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3-D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// TensorData owns a flat buffer plus shape/stride metadata and exposes
// coordinate-level access and zero-copy shape transforms.
type TensorData = tensor.TensorData

// Tensor wraps a TensorData with operation history and a gradient slot.
type Tensor = tensor.Tensor

// History records how a computed tensor was produced.
type History = tensor.History

// Context bridges a forward computation to its matching backward
// computation.
type Context = tensor.Context

// Function is the differentiable function protocol for tensors.
type Function = tensor.Function

// IndexingError reports an invalid index, stride, or shape combination.
type IndexingError = tensor.IndexingError

// Indexing engine free functions.
var (
	// IndexToPosition converts a multidimensional index into a storage
	// position via the dot product with strides.
	IndexToPosition = tensor.IndexToPosition
	// ToIndex converts an ordinal into an index in canonical row-major
	// enumeration order.
	ToIndex = tensor.ToIndex
	// StridesFromShape returns contiguous row-major strides.
	StridesFromShape = tensor.StridesFromShape
	// ShapeBroadcast broadcasts two shapes into a union shape.
	ShapeBroadcast = tensor.ShapeBroadcast
	// BroadcastIndex projects an index in a broadcast shape down to a
	// smaller shape.
	BroadcastIndex = tensor.BroadcastIndex
)

// Construction.
var (
	// NewTensorData constructs a TensorData from buffer, shape and
	// optional strides.
	NewTensorData = tensor.NewTensorData
	// FromData wraps a TensorData as a constant tensor.
	FromData = tensor.FromData
	// FromSlice creates a constant tensor from a flat slice and shape.
	FromSlice = tensor.FromSlice
	// FromFloat wraps a float64 as a 1-element tensor.
	FromFloat = tensor.FromFloat
	// Zeros creates a tensor filled with zeros.
	Zeros = tensor.Zeros
	// Ones creates a tensor filled with ones.
	Ones = tensor.Ones
	// Full creates a tensor filled with a value.
	Full = tensor.Full
	// Rand creates a tensor with uniform random values from an
	// explicit random source.
	Rand = tensor.Rand
)

// Apply invokes a tensor function through the differentiable function
// protocol, returning a recoverable error on invalid shapes.
var Apply = tensor.Apply
