package ops

import (
	"fmt"
	"math"

	"github.com/loomml/loom/pkg/tensor"
)

// reduction describes how a reduce operator folds the elements along its
// reduced axes into one value.
type reduction struct {
	init       float32
	accumulate func(acc, v float32) float32
	finish     func(acc float32, count int) float32
}

// reduceFloat folds a float tensor over the given axes. A nil axes slice
// reduces over every axis. When keepDims is set reduced axes remain in the
// output with size 1; otherwise they are removed.
func reduceFloat(input *tensor.Tensor[float32], axes []int, keepDims bool, r reduction) (*tensor.Tensor[float32], error) {
	ndim := input.Ndim()
	reduced := make([]bool, ndim)
	if axes == nil {
		for i := range reduced {
			reduced[i] = true
		}
	} else {
		for _, axis := range axes {
			axis, ok := resolveAxis(axis, ndim)
			if !ok {
				return nil, fmt.Errorf("%w: reduce axis out of range for shape %v", ErrInvalidValue, input.Shape())
			}
			reduced[axis] = true
		}
	}

	// Accumulate into a shape that keeps reduced axes as size 1, then
	// drop them afterwards if requested.
	accShape := make([]int, ndim)
	count := 1
	for d, size := range input.Shape() {
		if reduced[d] {
			accShape[d] = 1
			count *= size
		} else {
			accShape[d] = size
		}
	}
	accStrides := make([]int, ndim)
	stride := 1
	for d := ndim - 1; d >= 0; d-- {
		accStrides[d] = stride
		stride *= accShape[d]
	}

	acc := make([]float32, stride)
	for i := range acc {
		acc[i] = r.init
	}
	in := input.Data()
	pos := 0
	iterIndices(input.Shape(), func(index []int) {
		offset := 0
		for d, ix := range index {
			if !reduced[d] {
				offset += ix * accStrides[d]
			}
		}
		acc[offset] = r.accumulate(acc[offset], in[pos])
		pos++
	})
	if r.finish != nil {
		for i := range acc {
			acc[i] = r.finish(acc[i], count)
		}
	}

	outShape := accShape
	if !keepDims {
		outShape = make([]int, 0, ndim)
		for d, size := range accShape {
			if !reduced[d] {
				outShape = append(outShape, size)
			}
		}
	}
	return tensor.FromData(outShape, acc), nil
}

func runReduce(inputs []Value, axes []int, keepDims bool, r reduction) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	return reduceFloat(input, axes, keepDims, r)
}

// ReduceMean computes the mean over the given axes, or over all axes when
// Axes is nil.
type ReduceMean struct {
	Axes     []int
	KeepDims bool
}

func (ReduceMean) Name() string { return "ReduceMean" }

func (op ReduceMean) Run(inputs []Value) (Value, error) {
	return runReduce(inputs, op.Axes, op.KeepDims, reduction{
		accumulate: func(acc, v float32) float32 { return acc + v },
		finish:     func(acc float32, count int) float32 { return acc / float32(count) },
	})
}

// ReduceSum computes the sum over the given axes.
type ReduceSum struct {
	Axes     []int
	KeepDims bool
}

func (ReduceSum) Name() string { return "ReduceSum" }

func (op ReduceSum) Run(inputs []Value) (Value, error) {
	return runReduce(inputs, op.Axes, op.KeepDims, reduction{
		accumulate: func(acc, v float32) float32 { return acc + v },
	})
}

// ReduceProd computes the product over the given axes.
type ReduceProd struct {
	Axes     []int
	KeepDims bool
}

func (ReduceProd) Name() string { return "ReduceProd" }

func (op ReduceProd) Run(inputs []Value) (Value, error) {
	return runReduce(inputs, op.Axes, op.KeepDims, reduction{
		init:       1,
		accumulate: func(acc, v float32) float32 { return acc * v },
	})
}

// ReduceMin computes the minimum over the given axes.
type ReduceMin struct {
	Axes     []int
	KeepDims bool
}

func (ReduceMin) Name() string { return "ReduceMin" }

func (op ReduceMin) Run(inputs []Value) (Value, error) {
	return runReduce(inputs, op.Axes, op.KeepDims, reduction{
		init:       float32(math.Inf(1)),
		accumulate: func(acc, v float32) float32 { return min(acc, v) },
	})
}

// ReduceMax computes the maximum over the given axes.
type ReduceMax struct {
	Axes     []int
	KeepDims bool
}

func (ReduceMax) Name() string { return "ReduceMax" }

func (op ReduceMax) Run(inputs []Value) (Value, error) {
	return runReduce(inputs, op.Axes, op.KeepDims, reduction{
		init:       float32(math.Inf(-1)),
		accumulate: func(acc, v float32) float32 { return max(acc, v) },
	})
}

// ReduceL2 computes the Euclidean norm over the given axes.
type ReduceL2 struct {
	Axes     []int
	KeepDims bool
}

func (ReduceL2) Name() string { return "ReduceL2" }

func (op ReduceL2) Run(inputs []Value) (Value, error) {
	return runReduce(inputs, op.Axes, op.KeepDims, reduction{
		accumulate: func(acc, v float32) float32 { return acc + v*v },
		finish:     func(acc float32, _ int) float32 { return float32(math.Sqrt(float64(acc))) },
	})
}

// argReduce finds, along one axis, the position of the element selected by
// better. Ties resolve to the lowest position.
func argReduce(inputs []Value, axis int, keepDims bool, better func(candidate, best float32) bool) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	axis, ok := resolveAxis(axis, input.Ndim())
	if !ok {
		return nil, fmt.Errorf("%w: axis out of range for shape %v", ErrInvalidValue, input.Shape())
	}

	outer, axisLen, inner := axisSplit(input.Shape(), axis)
	if axisLen == 0 {
		return nil, fmt.Errorf("%w: cannot reduce over empty axis", ErrInvalidValue)
	}
	in := input.Data()
	out := make([]int32, outer*inner)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*axisLen*inner + i
			best := in[base]
			bestPos := 0
			for a := 1; a < axisLen; a++ {
				if v := in[base+a*inner]; better(v, best) {
					best = v
					bestPos = a
				}
			}
			out[o*inner+i] = int32(bestPos)
		}
	}

	outShape := make([]int, 0, input.Ndim())
	for d, size := range input.Shape() {
		if d == axis {
			if keepDims {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, size)
	}
	return tensor.FromData(outShape, out), nil
}

// ArgMax returns the positions of the largest elements along Axis.
type ArgMax struct {
	Axis     int
	KeepDims bool
}

func (ArgMax) Name() string { return "ArgMax" }

func (op ArgMax) Run(inputs []Value) (Value, error) {
	return argReduce(inputs, op.Axis, op.KeepDims, func(candidate, best float32) bool { return candidate > best })
}

// ArgMin returns the positions of the smallest elements along Axis.
type ArgMin struct {
	Axis     int
	KeepDims bool
}

func (ArgMin) Name() string { return "ArgMin" }

func (op ArgMin) Run(inputs []Value) (Value, error) {
	return argReduce(inputs, op.Axis, op.KeepDims, func(candidate, best float32) bool { return candidate < best })
}

// CumSum computes the cumulative sum along an axis. The axis is supplied
// as a single-element int tensor input.
type CumSum struct{}

func (CumSum) Name() string { return "CumSum" }

func (CumSum) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	axisTensor, err := IntInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	if axisTensor.Len() != 1 {
		return nil, fmt.Errorf("%w: axis input must have a single element", ErrInvalidValue)
	}
	axis, ok := resolveAxis(int(axisTensor.Data()[0]), input.Ndim())
	if !ok {
		return nil, fmt.Errorf("%w: axis out of range for shape %v", ErrInvalidValue, input.Shape())
	}

	outer, axisLen, inner := axisSplit(input.Shape(), axis)
	out := input.Clone()
	data := out.Data()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*axisLen*inner + i
			for a := 1; a < axisLen; a++ {
				data[base+a*inner] += data[base+(a-1)*inner]
			}
		}
	}
	return out, nil
}
