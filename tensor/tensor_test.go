// Copyright 2025 Minigrad ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/minigrad-ml/minigrad/tensor"
)

// TestTensorDataAPI verifies the TensorData alias exposes the expected API.
func TestTensorDataAPI(t *testing.T) {
	td, err := tensor.NewTensorData([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, nil)
	if err != nil {
		t.Fatalf("NewTensorData failed: %v", err)
	}

	if !td.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", td.Shape())
	}
	if td.Size() != 6 {
		t.Errorf("Size() = %d, want 6", td.Size())
	}
	if !td.IsContiguous() {
		t.Error("IsContiguous() = false for row-major layout")
	}

	perm := td.Permute(1, 0)
	if !perm.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Permute shape = %v, want [3 2]", perm.Shape())
	}
	v, err := perm.Get(2, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 6 {
		t.Errorf("permuted Get(2,1) = %v, want 6", v)
	}
}

// TestIndexingAPI verifies the indexing engine free functions.
func TestIndexingAPI(t *testing.T) {
	strides := tensor.StridesFromShape(tensor.Shape{2, 3})
	pos, err := tensor.IndexToPosition([]int{1, 2}, strides)
	if err != nil {
		t.Fatalf("IndexToPosition failed: %v", err)
	}
	if pos != 5 {
		t.Errorf("IndexToPosition([1 2], %v) = %d, want 5", strides, pos)
	}

	shape, err := tensor.ShapeBroadcast(tensor.Shape{2, 1}, tensor.Shape{1, 3})
	if err != nil {
		t.Fatalf("ShapeBroadcast failed: %v", err)
	}
	if !shape.Equal(tensor.Shape{2, 3}) {
		t.Errorf("ShapeBroadcast = %v, want [2 3]", shape)
	}
}

// TestAutodiffEndToEnd drives a gradient computation through the public
// surface only.
func TestAutodiffEndToEnd(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	x.RequireGrad()

	y := x.Mul(x).Sum()
	if err := y.Backward(); err != nil {
		t.Fatalf("Backward failed: %v", err)
	}
	if y.Item() != 14 {
		t.Errorf("sum of squares = %v, want 14", y.Item())
	}

	grad := x.Grad()
	if grad == nil {
		t.Fatal("Grad() = nil after backward")
	}
	for i, want := range []float64{2, 4, 6} {
		if got := grad.At(i); got != want {
			t.Errorf("grad[%d] = %v, want %v", i, got, want)
		}
	}
}
