package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// Gather selects entries from a tensor along Axis using an int tensor of
// indices, like numpy.take. The output shape is the input shape with the
// Axis dimension replaced by the shape of the indices.
type Gather struct {
	Axis int
}

func (Gather) Name() string { return "Gather" }

func (op Gather) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	indices, err := IntInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		return gatherTensor(t, op.Axis, indices)
	case *tensor.Tensor[int32]:
		return gatherTensor(t, op.Axis, indices)
	default:
		return nil, ErrUnsupportedType
	}
}

func gatherTensor[T tensor.Scalar](input *tensor.Tensor[T], axis int, indices *tensor.Tensor[int32]) (*tensor.Tensor[T], error) {
	axis, ok := resolveAxis(axis, input.Ndim())
	if !ok {
		return nil, fmt.Errorf("%w: gather axis out of range for shape %v", ErrInvalidValue, input.Shape())
	}

	outer, axisLen, inner := axisSplit(input.Shape(), axis)
	resolved := make([]int, indices.Len())
	for i, ix := range indices.Data() {
		idx := int(ix)
		if idx < 0 {
			idx += axisLen
		}
		if idx < 0 || idx >= axisLen {
			return nil, fmt.Errorf("%w: gather index %d out of range for axis of size %d", ErrInvalidValue, ix, axisLen)
		}
		resolved[i] = idx
	}

	outShape := make([]int, 0, input.Ndim()-1+indices.Ndim())
	outShape = append(outShape, input.Shape()[:axis]...)
	outShape = append(outShape, indices.Shape()...)
	outShape = append(outShape, input.Shape()[axis+1:]...)

	in := input.Data()
	out := make([]T, 0, outer*len(resolved)*inner)
	for o := 0; o < outer; o++ {
		for _, idx := range resolved {
			base := (o*axisLen + idx) * inner
			out = append(out, in[base:base+inner]...)
		}
	}
	return tensor.FromData(outShape, out), nil
}

// ConstantOfShape produces an int tensor of the shape given by its input,
// filled with Value.
type ConstantOfShape struct {
	Value int32
}

func (ConstantOfShape) Name() string { return "ConstantOfShape" }

func (op ConstantOfShape) Run(inputs []Value) (Value, error) {
	spec, err := IntInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	shape := make([]int, spec.Len())
	for i, d := range spec.Data() {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d", ErrInvalidValue, d)
		}
		shape[i] = int(d)
	}
	return tensor.Full(shape, op.Value), nil
}
