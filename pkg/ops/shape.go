package ops

import (
	"fmt"
	"sort"

	"github.com/loomml/loom/pkg/tensor"
)

// Reshape changes a tensor's shape without changing its elements. The
// second input is a 1D int tensor holding the new shape; at most one entry
// may be -1, which is inferred from the remaining dimensions.
type Reshape struct{}

func (Reshape) Name() string { return "Reshape" }

func resolveShape(numElements int, spec *tensor.Tensor[int32]) ([]int, error) {
	shape := make([]int, spec.Len())
	inferred := -1
	known := 1
	for i, v := range spec.Data() {
		switch {
		case v == -1:
			if inferred >= 0 {
				return nil, fmt.Errorf("%w: shape has more than one -1 entry", ErrInvalidValue)
			}
			inferred = i
		case v < 0:
			return nil, fmt.Errorf("%w: negative dimension %d", ErrInvalidValue, v)
		default:
			shape[i] = int(v)
			known *= int(v)
		}
	}
	if inferred >= 0 {
		if known == 0 || numElements%known != 0 {
			return nil, fmt.Errorf("%w: cannot infer -1 dimension for %d elements", ErrInvalidValue, numElements)
		}
		shape[inferred] = numElements / known
	}
	return shape, nil
}

func (Reshape) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	spec, err := IntInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	shape, err := resolveShape(input.Len(), spec)
	if err != nil {
		return nil, err
	}
	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		return reshaped(t.Clone(), shape)
	case *tensor.Tensor[int32]:
		return reshaped(t.Clone(), shape)
	default:
		return nil, ErrUnsupportedType
	}
}

func (op Reshape) RunInPlace(first Value, rest []Value) (Value, error) {
	spec, err := IntInput(rest, 0)
	if err != nil {
		return nil, err
	}
	shape, err := resolveShape(first.Len(), spec)
	if err != nil {
		return nil, err
	}
	// The storage is owned here, so the reshaped view can share it.
	switch t := first.(type) {
	case *tensor.Tensor[float32]:
		return reshaped(t, shape)
	case *tensor.Tensor[int32]:
		return reshaped(t, shape)
	default:
		return nil, ErrUnsupportedType
	}
}

func reshaped[T tensor.Scalar](t *tensor.Tensor[T], shape []int) (Value, error) {
	out, err := t.Reshape(shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleShapes, err)
	}
	return out, nil
}

// Shape returns a tensor's dimensions as a 1D int tensor.
type Shape struct{}

func (Shape) Name() string { return "Shape" }

func (Shape) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	shape := input.Shape()
	out := make([]int32, len(shape))
	for i, d := range shape {
		out[i] = int32(d)
	}
	return tensor.FromVec(out), nil
}

// Squeeze removes size-1 dimensions. When Axes is nil every size-1
// dimension is removed; otherwise only the listed dimensions, which must
// have size 1, are removed.
type Squeeze struct {
	Axes []int
}

func (Squeeze) Name() string { return "Squeeze" }

func (op Squeeze) outShape(shape []int) ([]int, error) {
	keep := make([]bool, len(shape))
	for i := range keep {
		keep[i] = true
	}
	if op.Axes == nil {
		for i, d := range shape {
			if d == 1 {
				keep[i] = false
			}
		}
	} else {
		for _, axis := range op.Axes {
			axis, ok := resolveAxis(axis, len(shape))
			if !ok {
				return nil, fmt.Errorf("%w: squeeze axis %d out of range for shape %v", ErrInvalidValue, axis, shape)
			}
			if shape[axis] != 1 {
				return nil, fmt.Errorf("%w: squeeze axis %d has size %d", ErrInvalidValue, axis, shape[axis])
			}
			keep[axis] = false
		}
	}
	out := make([]int, 0, len(shape))
	for i, d := range shape {
		if keep[i] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (op Squeeze) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	shape, err := op.outShape(input.Shape())
	if err != nil {
		return nil, err
	}
	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		return reshaped(t.Clone(), shape)
	case *tensor.Tensor[int32]:
		return reshaped(t.Clone(), shape)
	default:
		return nil, ErrUnsupportedType
	}
}

func (op Squeeze) RunInPlace(first Value, rest []Value) (Value, error) {
	shape, err := op.outShape(first.Shape())
	if err != nil {
		return nil, err
	}
	switch t := first.(type) {
	case *tensor.Tensor[float32]:
		return reshaped(t, shape)
	case *tensor.Tensor[int32]:
		return reshaped(t, shape)
	default:
		return nil, ErrUnsupportedType
	}
}

// Unsqueeze inserts size-1 dimensions at the listed positions in the
// output shape.
type Unsqueeze struct {
	Axes []int
}

func (Unsqueeze) Name() string { return "Unsqueeze" }

func (op Unsqueeze) outShape(shape []int) ([]int, error) {
	outNdim := len(shape) + len(op.Axes)
	axes := make([]int, 0, len(op.Axes))
	for _, axis := range op.Axes {
		axis, ok := resolveAxis(axis, outNdim)
		if !ok {
			return nil, fmt.Errorf("%w: unsqueeze axis %d out of range", ErrInvalidValue, axis)
		}
		axes = append(axes, axis)
	}
	sort.Ints(axes)

	out := make([]int, 0, outNdim)
	next := 0
	for i := 0; i < outNdim; i++ {
		if len(axes) > 0 && axes[0] == i {
			out = append(out, 1)
			axes = axes[1:]
			continue
		}
		if next >= len(shape) {
			return nil, fmt.Errorf("%w: duplicate unsqueeze axes", ErrInvalidValue)
		}
		out = append(out, shape[next])
		next++
	}
	return out, nil
}

func (op Unsqueeze) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	shape, err := op.outShape(input.Shape())
	if err != nil {
		return nil, err
	}
	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		return reshaped(t.Clone(), shape)
	case *tensor.Tensor[int32]:
		return reshaped(t.Clone(), shape)
	default:
		return nil, ErrUnsupportedType
	}
}

func (op Unsqueeze) RunInPlace(first Value, rest []Value) (Value, error) {
	shape, err := op.outShape(first.Shape())
	if err != nil {
		return nil, err
	}
	switch t := first.(type) {
	case *tensor.Tensor[float32]:
		return reshaped(t, shape)
	case *tensor.Tensor[int32]:
		return reshaped(t, shape)
	default:
		return nil, ErrUnsupportedType
	}
}

// Transpose permutes a tensor's dimensions. When Perm is nil the
// dimensions are reversed.
type Transpose struct {
	Perm []int
}

func (Transpose) Name() string { return "Transpose" }

func (op Transpose) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		return transposeTensor(t, op.Perm)
	case *tensor.Tensor[int32]:
		return transposeTensor(t, op.Perm)
	default:
		return nil, ErrUnsupportedType
	}
}

func transposeTensor[T tensor.Scalar](input *tensor.Tensor[T], perm []int) (*tensor.Tensor[T], error) {
	ndim := input.Ndim()
	if perm == nil {
		perm = make([]int, ndim)
		for i := range perm {
			perm[i] = ndim - 1 - i
		}
	}
	if len(perm) != ndim {
		return nil, fmt.Errorf("%w: permutation %v does not match rank %d", ErrInvalidValue, perm, ndim)
	}
	seen := make([]bool, ndim)
	outShape := make([]int, ndim)
	for i, p := range perm {
		if p < 0 || p >= ndim || seen[p] {
			return nil, fmt.Errorf("%w: invalid permutation %v", ErrInvalidValue, perm)
		}
		seen[p] = true
		outShape[i] = input.Shape()[p]
	}

	output := tensor.Zeros[T](outShape)
	outIndex := make([]int, ndim)
	iterIndices(input.Shape(), func(index []int) {
		for i, p := range perm {
			outIndex[i] = index[p]
		}
		output.Set(input.At(index...), outIndex...)
	})
	return output, nil
}
