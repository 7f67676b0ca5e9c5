package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// elementwise applies f pairwise over two tensors. The shapes must be
// identical, or one operand must be a single-element tensor, which is
// broadcast against the other.
func elementwise[T tensor.Scalar](a, b *tensor.Tensor[T], f func(x, y T) T) (*tensor.Tensor[T], error) {
	switch {
	case tensor.SameShape(a, b):
		out := make([]T, a.Len())
		ad, bd := a.Data(), b.Data()
		for i := range out {
			out[i] = f(ad[i], bd[i])
		}
		return tensor.FromData(a.Shape(), out), nil
	case b.Len() == 1:
		y := b.Data()[0]
		return a.Map(func(x T) T { return f(x, y) }), nil
	case a.Len() == 1:
		x := a.Data()[0]
		return b.Map(func(y T) T { return f(x, y) }), nil
	default:
		return nil, fmt.Errorf("%w: %v and %v", ErrIncompatibleShapes, a.Shape(), b.Shape())
	}
}

// elementwiseInPlace applies f pairwise, writing results into a. It reports
// false when the shape combination cannot be handled destructively.
func elementwiseInPlace[T tensor.Scalar](a, b *tensor.Tensor[T], f func(x, y T) T) bool {
	switch {
	case tensor.SameShape(a, b):
		ad, bd := a.Data(), b.Data()
		for i := range ad {
			ad[i] = f(ad[i], bd[i])
		}
		return true
	case b.Len() == 1:
		y := b.Data()[0]
		a.Apply(func(x T) T { return f(x, y) })
		return true
	default:
		return false
	}
}

// runBinary dispatches a two-input elementwise operator on the element
// kind of its inputs.
func runBinary(inputs []Value, ff func(x, y float32) float32, fi func(x, y int32) int32) (Value, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: expected 2 inputs, got %d", ErrMissingInputs, len(inputs))
	}
	if a, ok := AsFloat(inputs[0]); ok {
		b, ok := AsFloat(inputs[1])
		if !ok {
			return nil, fmt.Errorf("%w: float and int", ErrIncompatibleTypes)
		}
		return elementwise(a, b, ff)
	}
	if a, ok := AsInt(inputs[0]); ok {
		b, ok := AsInt(inputs[1])
		if !ok {
			return nil, fmt.Errorf("%w: int and float", ErrIncompatibleTypes)
		}
		return elementwise(a, b, fi)
	}
	return nil, ErrUnsupportedType
}

// runBinaryInPlace overwrites the first input where possible, falling back
// to the allocating path otherwise.
func runBinaryInPlace(op Operator, first Value, rest []Value, ff func(x, y float32) float32, fi func(x, y int32) int32) (Value, error) {
	if len(rest) >= 1 {
		if a, ok := AsFloat(first); ok {
			if b, ok := AsFloat(rest[0]); ok && elementwiseInPlace(a, b, ff) {
				return a, nil
			}
		}
		if a, ok := AsInt(first); ok {
			if b, ok := AsInt(rest[0]); ok && elementwiseInPlace(a, b, fi) {
				return a, nil
			}
		}
	}
	return op.Run(append([]Value{first}, rest...))
}

// Add computes the elementwise sum of two tensors.
type Add struct{}

func (Add) Name() string { return "Add" }

func (Add) Run(inputs []Value) (Value, error) {
	return runBinary(inputs, func(x, y float32) float32 { return x + y }, func(x, y int32) int32 { return x + y })
}

func (op Add) RunInPlace(first Value, rest []Value) (Value, error) {
	return runBinaryInPlace(op, first, rest, func(x, y float32) float32 { return x + y }, func(x, y int32) int32 { return x + y })
}

// Sub computes the elementwise difference of two tensors.
type Sub struct{}

func (Sub) Name() string { return "Sub" }

func (Sub) Run(inputs []Value) (Value, error) {
	return runBinary(inputs, func(x, y float32) float32 { return x - y }, func(x, y int32) int32 { return x - y })
}

func (op Sub) RunInPlace(first Value, rest []Value) (Value, error) {
	return runBinaryInPlace(op, first, rest, func(x, y float32) float32 { return x - y }, func(x, y int32) int32 { return x - y })
}

// Mul computes the elementwise product of two tensors.
type Mul struct{}

func (Mul) Name() string { return "Mul" }

func (Mul) Run(inputs []Value) (Value, error) {
	return runBinary(inputs, func(x, y float32) float32 { return x * y }, func(x, y int32) int32 { return x * y })
}

func (op Mul) RunInPlace(first Value, rest []Value) (Value, error) {
	return runBinaryInPlace(op, first, rest, func(x, y float32) float32 { return x * y }, func(x, y int32) int32 { return x * y })
}

// Div computes the elementwise quotient of two tensors.
type Div struct{}

func (Div) Name() string { return "Div" }

func (Div) Run(inputs []Value) (Value, error) {
	return runBinary(inputs, func(x, y float32) float32 { return x / y }, func(x, y int32) int32 { return x / y })
}

func (op Div) RunInPlace(first Value, rest []Value) (Value, error) {
	return runBinaryInPlace(op, first, rest, func(x, y float32) float32 { return x / y }, func(x, y int32) int32 { return x / y })
}
