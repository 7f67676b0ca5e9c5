package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// Pad adds zero padding around a tensor. The second input is a 1D int
// tensor of length 2*ndim holding the padding at the start of each
// dimension followed by the padding at the end of each dimension.
type Pad struct{}

func (Pad) Name() string { return "Pad" }

func (Pad) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	pads, err := IntInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	if t, ok := AsFloat(input); ok {
		return padTensor(t, pads)
	}
	if t, ok := AsInt(input); ok {
		return padTensor(t, pads)
	}
	return nil, ErrUnsupportedType
}

func padTensor[T tensor.Scalar](input *tensor.Tensor[T], pads *tensor.Tensor[int32]) (*tensor.Tensor[T], error) {
	ndim := input.Ndim()
	if pads.Len() != 2*ndim {
		return nil, fmt.Errorf("%w: pads has %d elements, expected %d", ErrInvalidValue, pads.Len(), 2*ndim)
	}
	start := make([]int, ndim)
	outShape := make([]int, ndim)
	for d := 0; d < ndim; d++ {
		before := int(pads.Data()[d])
		after := int(pads.Data()[ndim+d])
		if before < 0 || after < 0 {
			return nil, fmt.Errorf("%w: negative padding", ErrInvalidValue)
		}
		start[d] = before
		outShape[d] = input.Shape()[d] + before + after
	}

	output := tensor.Zeros[T](outShape)
	outIndex := make([]int, ndim)
	iterIndices(input.Shape(), func(index []int) {
		for d, ix := range index {
			outIndex[d] = ix + start[d]
		}
		output.Set(input.At(index...), outIndex...)
	})
	return output, nil
}
