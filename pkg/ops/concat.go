package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// Concat joins two or more tensors along dimension Dim. All inputs must
// have the same element kind and the same shape apart from Dim. Input
// order is significant: it is the order of the joined segments.
type Concat struct {
	Dim int
}

func (Concat) Name() string { return "Concat" }

func (op Concat) Run(inputs []Value) (Value, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: concat requires at least 2 inputs", ErrMissingInputs)
	}
	if _, ok := AsFloat(inputs[0]); ok {
		ts := make([]*tensor.Tensor[float32], len(inputs))
		for i := range inputs {
			t, ok := AsFloat(inputs[i])
			if !ok {
				return nil, fmt.Errorf("%w: input %d is not a float tensor", ErrIncompatibleTypes, i)
			}
			ts[i] = t
		}
		return concatTensors(ts, op.Dim)
	}
	if _, ok := AsInt(inputs[0]); ok {
		ts := make([]*tensor.Tensor[int32], len(inputs))
		for i := range inputs {
			t, ok := AsInt(inputs[i])
			if !ok {
				return nil, fmt.Errorf("%w: input %d is not an int tensor", ErrIncompatibleTypes, i)
			}
			ts[i] = t
		}
		return concatTensors(ts, op.Dim)
	}
	return nil, ErrUnsupportedType
}

func concatTensors[T tensor.Scalar](inputs []*tensor.Tensor[T], dim int) (*tensor.Tensor[T], error) {
	first := inputs[0]
	dim, ok := resolveAxis(dim, first.Ndim())
	if !ok {
		return nil, fmt.Errorf("%w: concat dim %d out of range for shape %v", ErrInvalidValue, dim, first.Shape())
	}

	outShape := append([]int(nil), first.Shape()...)
	for _, t := range inputs[1:] {
		if t.Ndim() != first.Ndim() {
			return nil, fmt.Errorf("%w: inputs have different ranks", ErrIncompatibleShapes)
		}
		for d := 0; d < t.Ndim(); d++ {
			if d != dim && t.Shape()[d] != first.Shape()[d] {
				return nil, fmt.Errorf("%w: shapes %v and %v differ outside concat dim %d", ErrIncompatibleShapes, first.Shape(), t.Shape(), dim)
			}
		}
		outShape[dim] += t.Shape()[dim]
	}

	outer := 1
	for _, d := range outShape[:dim] {
		outer *= d
	}
	inner := 1
	for _, d := range outShape[dim+1:] {
		inner *= d
	}

	out := make([]T, 0, outer*outShape[dim]*inner)
	for o := 0; o < outer; o++ {
		for _, t := range inputs {
			block := t.Shape()[dim] * inner
			out = append(out, t.Data()[o*block:(o+1)*block]...)
		}
	}
	return tensor.FromData(outShape, out), nil
}
