package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// Slice extracts a region from a tensor. The inputs are the data tensor,
// 1D int tensors of start and end positions, and an optional 1D int tensor
// naming the axes the starts and ends apply to (defaulting to the leading
// axes). Negative starts and ends count from the end of the axis, and ends
// are clamped to the axis size.
type Slice struct{}

func (Slice) Name() string { return "Slice" }

func (Slice) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	starts, err := IntInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	ends, err := IntInput(inputs, 2)
	if err != nil {
		return nil, err
	}
	axes, err := OptionalIntInput(inputs, 3)
	if err != nil {
		return nil, err
	}

	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		return sliceTensor(t, starts, ends, axes)
	case *tensor.Tensor[int32]:
		return sliceTensor(t, starts, ends, axes)
	default:
		return nil, ErrUnsupportedType
	}
}

func sliceTensor[T tensor.Scalar](input *tensor.Tensor[T], starts, ends, axes *tensor.Tensor[int32]) (*tensor.Tensor[T], error) {
	if starts.Len() != ends.Len() {
		return nil, fmt.Errorf("%w: starts has %d entries, ends has %d", ErrInvalidValue, starts.Len(), ends.Len())
	}
	if axes != nil && axes.Len() != starts.Len() {
		return nil, fmt.Errorf("%w: axes has %d entries, starts has %d", ErrInvalidValue, axes.Len(), starts.Len())
	}

	ndim := input.Ndim()
	offset := make([]int, ndim)
	outShape := append([]int(nil), input.Shape()...)
	for i := 0; i < starts.Len(); i++ {
		axis := i
		if axes != nil {
			var ok bool
			axis, ok = resolveAxis(int(axes.Data()[i]), ndim)
			if !ok {
				return nil, fmt.Errorf("%w: slice axis %d out of range", ErrInvalidValue, axes.Data()[i])
			}
		} else if axis >= ndim {
			return nil, fmt.Errorf("%w: more slice ranges than dimensions", ErrInvalidValue)
		}
		size := input.Shape()[axis]

		start := int(starts.Data()[i])
		if start < 0 {
			start += size
		}
		end := int(ends.Data()[i])
		if end < 0 {
			end += size
		}
		end = min(end, size)
		if start < 0 || start > end {
			return nil, fmt.Errorf("%w: slice range [%d, %d) invalid for axis of size %d", ErrInvalidValue, starts.Data()[i], ends.Data()[i], size)
		}
		offset[axis] = start
		outShape[axis] = end - start
	}

	output := tensor.Zeros[T](outShape)
	inIndex := make([]int, ndim)
	iterIndices(outShape, func(index []int) {
		for d, ix := range index {
			inIndex[d] = ix + offset[d]
		}
		output.Set(input.At(inIndex...), index...)
	})
	return output, nil
}
