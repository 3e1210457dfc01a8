package tensor

import "fmt"

// IndexingError reports an invalid index, stride, or shape combination.
// It always carries the offending values in its message. Callers can
// detect it with errors.As.
type IndexingError struct {
	msg string
}

// Error implements the error interface.
func (e *IndexingError) Error() string { return e.msg }

// indexingErrorf builds an IndexingError from a format string.
func indexingErrorf(format string, args ...any) *IndexingError {
	return &IndexingError{msg: fmt.Sprintf(format, args...)}
}

// IndexToPosition converts a multidimensional index into a position in
// flat storage: the dot product of index and strides.
func IndexToPosition(index, strides []int) (int, error) {
	if len(index) != len(strides) {
		return 0, indexingErrorf("index %v must have same length as strides %v", index, strides)
	}
	position := 0
	for i, ind := range index {
		position += ind * strides[i]
	}
	return position, nil
}

// ToIndex fills out with the index corresponding to ordinal in shape.
// Enumerating ordinals 0 .. size-1 produces every valid index exactly
// once, in canonical row-major order. This is independent of strides, so
// it need not be the inverse of IndexToPosition for non-contiguous
// layouts.
func ToIndex(ordinal int, shape Shape, out []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = ordinal % shape[i]
		ordinal /= shape[i]
	}
}

// StridesFromShape returns contiguous row-major strides for shape: the
// last dimension has stride 1 and each preceding stride is the product
// of all dimension sizes to its right.
func StridesFromShape(shape Shape) []int {
	strides := make([]int, len(shape))
	offset := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = offset
		offset *= shape[i]
	}
	return strides
}

// ShapeBroadcast broadcasts two shapes into a union shape following
// NumPy rules: shapes are aligned from the right, the shorter one is
// padded on the left with 1s, and each aligned dimension pair must be
// equal or contain a 1.
//
// Examples:
//
//	(5, 3) + (3,)   → (5, 3)
//	(1, 3) + (5, 1) → (5, 3)
//	(2, 3) + (4, 3) → IndexingError
func ShapeBroadcast(a, b Shape) (Shape, error) {
	maxLen := max(len(a), len(b))
	out := make(Shape, maxLen)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}
		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			out[maxLen-1-i] = aDim
		case aDim == 1:
			out[maxLen-1-i] = bDim
		case bDim == 1:
			out[maxLen-1-i] = aDim
		default:
			return nil, indexingErrorf("cannot broadcast shapes %v and %v (dimension %d: %d vs %d)",
				a, b, maxLen-1-i, aDim, bDim)
		}
	}
	return out, nil
}

// BroadcastIndex projects bigIndex, an index into the broadcast shape
// bigShape, down to an index into the smaller shape, writing it to out.
// If shape has zero dimensions out is left untouched (scalar case).
// Otherwise shape is padded on the left with 1s to match bigShape's
// rank; dimensions of size 1 collapse to coordinate 0 and all others
// copy the corresponding big coordinate.
func BroadcastIndex(bigIndex []int, bigShape, shape Shape, out []int) error {
	if len(shape) == 0 {
		return nil
	}
	pad := len(bigShape) - len(shape)
	if pad < 0 {
		return indexingErrorf("shape %v must not have more dimensions than broadcast shape %v", shape, bigShape)
	}
	for dim := range bigShape {
		size := 1
		if dim >= pad {
			size = shape[dim-pad]
		}
		if size != 1 && size != bigShape[dim] {
			return indexingErrorf("shapes %v and %v are not broadcast-compatible (dimension %d: %d vs %d)",
				bigShape, shape, dim, bigShape[dim], size)
		}
	}
	for dim := range shape {
		if shape[dim] > 1 {
			out[dim] = bigIndex[dim+pad]
		} else {
			out[dim] = 0
		}
	}
	return nil
}
