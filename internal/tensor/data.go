package tensor

import (
	"fmt"
	"iter"
	"math/rand"
	"slices"
	"strings"
)

// TensorData owns a flat float64 buffer plus shape/stride metadata and
// exposes coordinate-level access and zero-copy shape transforms.
//
// Multiple TensorData values may alias the same buffer with different
// shape/stride views (Permute never copies). The design assumes a
// single writer at a time per buffer.
type TensorData struct {
	storage []float64
	shape   Shape
	strides []int
}

// NewTensorData constructs a TensorData from a flat buffer, a shape and
// optional strides (pass nil for contiguous row-major strides).
//
// Returns an IndexingError if the stride and shape lengths differ.
// Panics if the buffer length does not equal the product of the shape;
// that is a defect in the calling code, not bad input.
func NewTensorData(storage []float64, shape Shape, strides []int) (*TensorData, error) {
	if strides == nil {
		strides = StridesFromShape(shape)
	}
	if len(strides) != len(shape) {
		return nil, indexingErrorf("length of strides %v must match shape %v", strides, shape)
	}
	if len(storage) != shape.NumElements() {
		panic(fmt.Sprintf("tensor: storage length %d does not match shape %v (size %d)",
			len(storage), shape, shape.NumElements()))
	}
	return &TensorData{
		storage: storage,
		shape:   shape.Clone(),
		strides: slices.Clone(strides),
	}, nil
}

// Size returns the total number of elements.
func (t *TensorData) Size() int { return t.shape.NumElements() }

// Dims returns the number of dimensions.
func (t *TensorData) Dims() int { return len(t.shape) }

// Shape returns the tensor's shape.
func (t *TensorData) Shape() Shape { return t.shape }

// Strides returns the tensor's memory strides.
func (t *TensorData) Strides() []int { return t.strides }

// Storage returns the underlying flat buffer.
// Writes through the returned slice are visible to every view sharing it.
func (t *TensorData) Storage() []float64 { return t.storage }

// IsContiguous reports whether the layout is contiguous, i.e. outer
// dimensions have strides at least as big as inner dimensions.
func (t *TensorData) IsContiguous() bool {
	last := int(^uint(0) >> 1) // MaxInt
	for _, stride := range t.strides {
		if stride > last {
			return false
		}
		last = stride
	}
	return true
}

// Index validates a coordinate against the shape and converts it into a
// storage position. A single integer is treated as a one-element index.
// Returns an IndexingError on dimension mismatch, out-of-range or
// negative coordinates.
func (t *TensorData) Index(index ...int) (int, error) {
	if len(index) != len(t.shape) {
		return 0, indexingErrorf("index %v must be size of %v", index, t.shape)
	}
	for i, ind := range index {
		if ind >= t.shape[i] {
			return 0, indexingErrorf("index %v out of range %v", index, t.shape)
		}
		if ind < 0 {
			return 0, indexingErrorf("negative indexing for %v not supported", index)
		}
	}
	return IndexToPosition(index, t.strides)
}

// Indices yields every valid index in canonical row-major enumeration
// order. The sequence is finite and restartable; each yielded slice is
// a fresh copy.
func (t *TensorData) Indices() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		index := make([]int, t.Dims())
		for ordinal := 0; ordinal < t.Size(); ordinal++ {
			ToIndex(ordinal, t.shape, index)
			if !yield(slices.Clone(index)) {
				return
			}
		}
	}
}

// Sample returns a random valid index drawn from rng, each dimension
// uniform over its valid range.
func (t *TensorData) Sample(rng *rand.Rand) []int {
	index := make([]int, t.Dims())
	for i, dim := range t.shape {
		index[i] = rng.Intn(dim)
	}
	return index
}

// Get reads the value at the given index.
func (t *TensorData) Get(index ...int) (float64, error) {
	pos, err := t.Index(index...)
	if err != nil {
		return 0, err
	}
	return t.storage[pos], nil
}

// Set writes value at the given index.
func (t *TensorData) Set(value float64, index ...int) error {
	pos, err := t.Index(index...)
	if err != nil {
		return err
	}
	t.storage[pos] = value
	return nil
}

// Permute returns a view of the tensor with dimensions reordered
// according to order, sharing the same buffer (no copy). If order is
// the identity permutation the receiver itself is returned.
//
// Panics if order is not a permutation of 0..Dims()-1; passing anything
// else is a defect in the calling code.
func (t *TensorData) Permute(order ...int) *TensorData {
	if !isPermutation(order, t.Dims()) {
		panic(fmt.Sprintf("tensor: permute order %v must assign a position to each dimension of shape %v",
			order, t.shape))
	}
	identity := true
	for i, o := range order {
		if o != i {
			identity = false
			break
		}
	}
	if identity {
		return t
	}
	newShape := make(Shape, len(order))
	newStrides := make([]int, len(order))
	for i, o := range order {
		newShape[i] = t.shape[o]
		newStrides[i] = t.strides[o]
	}
	return &TensorData{
		storage: t.storage,
		shape:   newShape,
		strides: newStrides,
	}
}

// isPermutation reports whether order is a bijection over 0..dims-1.
func isPermutation(order []int, dims int) bool {
	if len(order) != dims {
		return false
	}
	seen := make([]bool, dims)
	for _, o := range order {
		if o < 0 || o >= dims || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}

// contiguousLayout reports whether the strides are exactly the canonical
// row-major strides for the shape, which is what the BLAS fast paths
// need (stronger than IsContiguous).
func (t *TensorData) contiguousLayout() bool {
	return slices.Equal(t.strides, StridesFromShape(t.shape))
}

// Contiguous returns a TensorData with canonical row-major layout,
// copying the buffer only if the receiver is not already laid out that
// way.
func (t *TensorData) Contiguous() *TensorData {
	if t.contiguousLayout() {
		return t
	}
	out := emptyLike(t.shape)
	if err := mapInto(func(x float64) float64 { return x }, out, t); err != nil {
		panic(fmt.Sprintf("tensor: contiguous copy failed: %v", err))
	}
	return out
}

// emptyLike allocates a zero-filled contiguous TensorData for shape.
func emptyLike(shape Shape) *TensorData {
	return &TensorData{
		storage: make([]float64, shape.NumElements()),
		shape:   shape.Clone(),
		strides: StridesFromShape(shape),
	}
}

// String renders the buffer as nested bracketed rows following shape
// boundaries. Debugging aid only.
func (t *TensorData) String() string {
	var sb strings.Builder
	for index := range t.Indices() {
		var open string
		for i := len(index) - 1; i >= 0; i-- {
			if index[i] != 0 {
				break
			}
			open = "\n" + strings.Repeat("\t", i) + "[" + open
		}
		sb.WriteString(open)
		v, err := t.Get(index...)
		if err != nil {
			panic(err) // Indices() only yields valid indices
		}
		fmt.Fprintf(&sb, "%3.2f", v)
		var closing string
		for i := len(index) - 1; i >= 0; i-- {
			if index[i] != t.shape[i]-1 {
				break
			}
			closing += "]"
		}
		if closing != "" {
			sb.WriteString(closing)
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
