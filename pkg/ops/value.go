// Package ops defines the execution contract shared by every computation
// kind in a graph, and the built-in operator catalog.
package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// Value is a tensor of either supported element kind (float32 or int32).
// It is the currency passed between operators: the shape can be inspected
// without knowing the concrete kind, and the typed accessor helpers below
// unwrap it.
type Value interface {
	Shape() []int
	Len() int
}

var (
	_ Value = (*tensor.Tensor[float32])(nil)
	_ Value = (*tensor.Tensor[int32])(nil)
)

// AsFloat unwraps a value as a float tensor.
func AsFloat(v Value) (*tensor.Tensor[float32], bool) {
	t, ok := v.(*tensor.Tensor[float32])
	return t, ok
}

// AsInt unwraps a value as an int tensor.
func AsInt(v Value) (*tensor.Tensor[int32], bool) {
	t, ok := v.(*tensor.Tensor[int32])
	return t, ok
}

// CloneValue returns a deep copy of a value.
func CloneValue(v Value) Value {
	switch t := v.(type) {
	case *tensor.Tensor[float32]:
		return t.Clone()
	case *tensor.Tensor[int32]:
		return t.Clone()
	default:
		panic(fmt.Sprintf("unknown value type %T", v))
	}
}

// FloatInput extracts a required float tensor input from inputs.
func FloatInput(inputs []Value, index int) (*tensor.Tensor[float32], error) {
	if index >= len(inputs) {
		return nil, fmt.Errorf("%w: input %d", ErrMissingInputs, index)
	}
	t, ok := AsFloat(inputs[index])
	if !ok {
		return nil, fmt.Errorf("%w: input %d is not a float tensor", ErrUnsupportedType, index)
	}
	return t, nil
}

// IntInput extracts a required int tensor input from inputs.
func IntInput(inputs []Value, index int) (*tensor.Tensor[int32], error) {
	if index >= len(inputs) {
		return nil, fmt.Errorf("%w: input %d", ErrMissingInputs, index)
	}
	t, ok := AsInt(inputs[index])
	if !ok {
		return nil, fmt.Errorf("%w: input %d is not an int tensor", ErrUnsupportedType, index)
	}
	return t, nil
}

// OptionalFloatInput extracts an optional float tensor input from inputs.
// It returns nil without error when the input is absent.
func OptionalFloatInput(inputs []Value, index int) (*tensor.Tensor[float32], error) {
	if index >= len(inputs) || inputs[index] == nil {
		return nil, nil
	}
	return FloatInput(inputs, index)
}

// OptionalIntInput extracts an optional int tensor input from inputs.
// It returns nil without error when the input is absent.
func OptionalIntInput(inputs []Value, index int) (*tensor.Tensor[int32], error) {
	if index >= len(inputs) || inputs[index] == nil {
		return nil, nil
	}
	return IntInput(inputs, index)
}

// anyInput extracts a required input of either kind.
func anyInput(inputs []Value, index int) (Value, error) {
	if index >= len(inputs) || inputs[index] == nil {
		return nil, fmt.Errorf("%w: input %d", ErrMissingInputs, index)
	}
	return inputs[index], nil
}
