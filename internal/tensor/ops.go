package tensor

// Stride-aware higher-order operations over TensorData. These are the
// engine behind every tensor function: they iterate by ordinal through
// the indexing engine only, so they work over permuted and otherwise
// non-contiguous views without copying.

// mapInto writes fn(a[...]) into every coordinate of out. out's shape
// may be a broadcast enlargement of a's shape.
func mapInto(fn func(float64) float64, out, a *TensorData) error {
	outIndex := make([]int, out.Dims())
	aIndex := make([]int, a.Dims())
	for ordinal := 0; ordinal < out.Size(); ordinal++ {
		ToIndex(ordinal, out.shape, outIndex)
		if err := BroadcastIndex(outIndex, out.shape, a.shape, aIndex); err != nil {
			return err
		}
		outPos, err := IndexToPosition(outIndex, out.strides)
		if err != nil {
			return err
		}
		aPos, err := IndexToPosition(aIndex, a.strides)
		if err != nil {
			return err
		}
		out.storage[outPos] = fn(a.storage[aPos])
	}
	return nil
}

// zipInto writes fn(a[...], b[...]) into every coordinate of out,
// projecting out's coordinates down to a and b per broadcasting rules.
func zipInto(fn func(a, b float64) float64, out, a, b *TensorData) error {
	outIndex := make([]int, out.Dims())
	aIndex := make([]int, a.Dims())
	bIndex := make([]int, b.Dims())
	for ordinal := 0; ordinal < out.Size(); ordinal++ {
		ToIndex(ordinal, out.shape, outIndex)
		if err := BroadcastIndex(outIndex, out.shape, a.shape, aIndex); err != nil {
			return err
		}
		if err := BroadcastIndex(outIndex, out.shape, b.shape, bIndex); err != nil {
			return err
		}
		outPos, err := IndexToPosition(outIndex, out.strides)
		if err != nil {
			return err
		}
		aPos, err := IndexToPosition(aIndex, a.strides)
		if err != nil {
			return err
		}
		bPos, err := IndexToPosition(bIndex, b.strides)
		if err != nil {
			return err
		}
		out.storage[outPos] = fn(a.storage[aPos], b.storage[bPos])
	}
	return nil
}

// reduceInto folds fn over dimension dim of a into out, whose shape
// must equal a's with dim set to 1. out must be pre-filled with the
// fold's start value.
func reduceInto(fn func(acc, x float64) float64, out, a *TensorData, dim int) error {
	aIndex := make([]int, a.Dims())
	outIndex := make([]int, out.Dims())
	for ordinal := 0; ordinal < a.Size(); ordinal++ {
		ToIndex(ordinal, a.shape, aIndex)
		copy(outIndex, aIndex)
		outIndex[dim] = 0
		outPos, err := IndexToPosition(outIndex, out.strides)
		if err != nil {
			return err
		}
		aPos, err := IndexToPosition(aIndex, a.strides)
		if err != nil {
			return err
		}
		out.storage[outPos] = fn(out.storage[outPos], a.storage[aPos])
	}
	return nil
}

// mapTD applies fn elementwise to a fresh contiguous copy of a.
func mapTD(fn func(float64) float64, a *TensorData) *TensorData {
	out := emptyLike(a.shape)
	// Shapes are identical, so mapInto cannot fail.
	if err := mapInto(fn, out, a); err != nil {
		panic(err)
	}
	return out
}

// zipTD applies fn pairwise to a and b, broadcasting their shapes.
// Returns an IndexingError if the shapes are not broadcast-compatible.
func zipTD(fn func(a, b float64) float64, a, b *TensorData) (*TensorData, error) {
	shape, err := ShapeBroadcast(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	out := emptyLike(shape)
	if err := zipInto(fn, out, a, b); err != nil {
		return nil, err
	}
	return out, nil
}

// reduceTD folds fn over dimension dim of a starting from start. The
// result keeps a's rank with dim collapsed to size 1.
func reduceTD(fn func(acc, x float64) float64, start float64, a *TensorData, dim int) (*TensorData, error) {
	if dim < 0 || dim >= a.Dims() {
		return nil, indexingErrorf("reduce dimension %d out of range for shape %v", dim, a.shape)
	}
	outShape := a.shape.Clone()
	outShape[dim] = 1
	out := emptyLike(outShape)
	for i := range out.storage {
		out.storage[i] = start
	}
	if err := reduceInto(fn, out, a, dim); err != nil {
		return nil, err
	}
	return out, nil
}
