package ops

// iterIndices calls f with every n-dimensional index of shape, in row-major
// order. The index slice is reused between calls.
func iterIndices(shape []int, f func(index []int)) {
	for _, d := range shape {
		if d == 0 {
			return
		}
	}
	index := make([]int, len(shape))
	for {
		f(index)
		dim := len(shape) - 1
		for ; dim >= 0; dim-- {
			index[dim]++
			if index[dim] < shape[dim] {
				break
			}
			index[dim] = 0
		}
		if dim < 0 {
			return
		}
	}
}

// resolveAxis normalizes a possibly negative axis and checks its range.
func resolveAxis(axis, ndim int) (int, bool) {
	if axis < 0 {
		axis += ndim
	}
	if axis < 0 || axis >= ndim {
		return 0, false
	}
	return axis, true
}
