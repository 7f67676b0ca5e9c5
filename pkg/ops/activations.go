package ops

import (
	"fmt"
	"math"

	"github.com/loomml/loom/pkg/tensor"
)

// Relu applies the rectified linear unit function elementwise.
type Relu struct{}

func (Relu) Name() string { return "Relu" }

func (Relu) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	return input.Map(func(x float32) float32 { return max(x, 0) }), nil
}

func (r Relu) RunInPlace(first Value, rest []Value) (Value, error) {
	t, ok := AsFloat(first)
	if !ok {
		return r.Run(append([]Value{first}, rest...))
	}
	t.Apply(func(x float32) float32 { return max(x, 0) })
	return t, nil
}

// LeakyRelu scales negative elements by Alpha and leaves positive elements
// unchanged.
type LeakyRelu struct {
	Alpha float32
}

func (LeakyRelu) Name() string { return "LeakyRelu" }

func (op LeakyRelu) leaky(x float32) float32 {
	if x < 0 {
		return op.Alpha * x
	}
	return x
}

func (op LeakyRelu) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	return input.Map(op.leaky), nil
}

func (op LeakyRelu) RunInPlace(first Value, rest []Value) (Value, error) {
	t, ok := AsFloat(first)
	if !ok {
		return op.Run(append([]Value{first}, rest...))
	}
	t.Apply(op.leaky)
	return t, nil
}

// Sigmoid applies the logistic function elementwise.
type Sigmoid struct{}

func (Sigmoid) Name() string { return "Sigmoid" }

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func (Sigmoid) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	return input.Map(sigmoid), nil
}

func (s Sigmoid) RunInPlace(first Value, rest []Value) (Value, error) {
	t, ok := AsFloat(first)
	if !ok {
		return s.Run(append([]Value{first}, rest...))
	}
	t.Apply(sigmoid)
	return t, nil
}

// Clip limits elements to the range [Min, Max].
type Clip struct {
	Min float32
	Max float32
}

func (Clip) Name() string { return "Clip" }

func (op Clip) clip(x float32) float32 {
	return min(max(x, op.Min), op.Max)
}

func (op Clip) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	return input.Map(op.clip), nil
}

func (op Clip) RunInPlace(first Value, rest []Value) (Value, error) {
	t, ok := AsFloat(first)
	if !ok {
		return op.Run(append([]Value{first}, rest...))
	}
	t.Apply(op.clip)
	return t, nil
}

// Softmax normalizes elements along Axis into a probability distribution.
type Softmax struct {
	Axis int
}

func (Softmax) Name() string { return "Softmax" }

func (op Softmax) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	shape := input.Shape()
	if op.Axis < 0 || op.Axis >= len(shape) {
		return nil, fmt.Errorf("%w: softmax axis %d out of range for shape %v", ErrInvalidValue, op.Axis, shape)
	}

	outer, axisLen, inner := axisSplit(shape, op.Axis)
	in := input.Data()
	out := make([]float32, len(in))
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*axisLen*inner + i

			// Subtract the running max for numerical stability.
			maxVal := float32(math.Inf(-1))
			for a := 0; a < axisLen; a++ {
				maxVal = max(maxVal, in[base+a*inner])
			}
			sum := float32(0)
			for a := 0; a < axisLen; a++ {
				e := float32(math.Exp(float64(in[base+a*inner] - maxVal)))
				out[base+a*inner] = e
				sum += e
			}
			for a := 0; a < axisLen; a++ {
				out[base+a*inner] /= sum
			}
		}
	}
	return tensor.FromData(shape, out), nil
}

// axisSplit decomposes a shape around one axis for row-major iteration:
// the product of the leading dimensions, the axis length, and the product
// of the trailing dimensions.
func axisSplit(shape []int, axis int) (outer, axisLen, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:axis] {
		outer *= d
	}
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	return outer, shape[axis], inner
}

// Identity returns its input unchanged.
type Identity struct{}

func (Identity) Name() string { return "Identity" }

func (Identity) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	return CloneValue(input), nil
}

func (Identity) RunInPlace(first Value, rest []Value) (Value, error) {
	return first, nil
}
