package tensor

import (
	"fmt"

	"github.com/ziutek/blas"

	"github.com/minigrad-ml/minigrad/internal/operators"
)

// BLAS-backed kernels for the two hot paths: matrix multiplication and
// gradient accumulation. Both fall back to the stride-aware generic
// path when operands are not in canonical row-major layout.

// matmulTD computes the 2-D matrix product a · b. Shapes (n,k) and
// (k,m) produce (n,m); anything else fails with an IndexingError.
func matmulTD(a, b *TensorData) (*TensorData, error) {
	if a.Dims() != 2 || b.Dims() != 2 {
		return nil, indexingErrorf("matmul requires 2-D operands, got shapes %v and %v", a.shape, b.shape)
	}
	n, k := a.shape[0], a.shape[1]
	if b.shape[0] != k {
		return nil, indexingErrorf("cannot multiply shapes %v and %v: inner dimensions %d and %d differ",
			a.shape, b.shape, k, b.shape[0])
	}
	m := b.shape[1]

	ac, bc := a.Contiguous(), b.Contiguous()
	out := emptyLike(Shape{n, m})
	for i := 0; i < n; i++ {
		row := ac.storage[i*k : (i+1)*k]
		for j := 0; j < m; j++ {
			// Column j of b walks the contiguous buffer with stride m.
			out.storage[i*m+j] = blas.Ddot(k, row, 1, bc.storage[j:], m)
		}
	}
	return out, nil
}

// addTD sums two buffers of identical shape, via Daxpy when both are in
// canonical layout. Gradient contributions always match shapes by the
// time they are combined; a mismatch is a defect upstream.
func addTD(a, b *TensorData) *TensorData {
	if a.shape.Equal(b.shape) && a.contiguousLayout() && b.contiguousLayout() {
		out := emptyLike(a.shape)
		copy(out.storage, a.storage)
		blas.Daxpy(len(out.storage), 1.0, b.storage, 1, out.storage, 1)
		return out
	}
	out, err := zipTD(operators.Add, a, b)
	if err != nil {
		panic(fmt.Sprintf("tensor: gradient accumulation over shapes %v and %v: %v", a.shape, b.shape, err))
	}
	return out
}
