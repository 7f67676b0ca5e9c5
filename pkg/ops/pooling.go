package ops

import (
	"fmt"
	"math"

	"github.com/loomml/loom/pkg/tensor"
)

// MaxPool2d downsamples an NCHW input by taking the maximum over
// non-overlapping KernelSize x KernelSize windows.
type MaxPool2d struct {
	KernelSize int
}

func (MaxPool2d) Name() string { return "MaxPool2d" }

func (op MaxPool2d) Run(inputs []Value) (Value, error) {
	return pool2d(inputs, op.KernelSize, func(acc, v float32) float32 { return max(acc, v) }, float32(math.Inf(-1)), nil)
}

// AveragePool2d downsamples an NCHW input by averaging over
// non-overlapping KernelSize x KernelSize windows.
type AveragePool2d struct {
	KernelSize int
}

func (AveragePool2d) Name() string { return "AveragePool2d" }

func (op AveragePool2d) Run(inputs []Value) (Value, error) {
	k := op.KernelSize
	return pool2d(inputs, k, func(acc, v float32) float32 { return acc + v }, 0, func(acc float32) float32 {
		return acc / float32(k*k)
	})
}

func pool2d(inputs []Value, kernelSize int, accumulate func(acc, v float32) float32, init float32, finish func(acc float32) float32) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	if input.Ndim() != 4 {
		return nil, fmt.Errorf("%w: pooling input must be 4D, got %v", ErrIncompatibleShapes, input.Shape())
	}
	if kernelSize <= 0 {
		return nil, fmt.Errorf("%w: kernel size %d", ErrInvalidValue, kernelSize)
	}

	batch, chans, inH, inW := input.Shape()[0], input.Shape()[1], input.Shape()[2], input.Shape()[3]
	outH, outW := inH/kernelSize, inW/kernelSize

	output := tensor.Zeros[float32]([]int{batch, chans, outH, outW})
	for n := 0; n < batch; n++ {
		for c := 0; c < chans; c++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					acc := init
					for ky := 0; ky < kernelSize; ky++ {
						for kx := 0; kx < kernelSize; kx++ {
							acc = accumulate(acc, input.At(n, c, oy*kernelSize+ky, ox*kernelSize+kx))
						}
					}
					if finish != nil {
						acc = finish(acc)
					}
					output.Set(acc, n, c, oy, ox)
				}
			}
		}
	}
	return output, nil
}

// GlobalAveragePool averages an NCHW input over its spatial dimensions,
// producing an [n, c, 1, 1] output.
type GlobalAveragePool struct{}

func (GlobalAveragePool) Name() string { return "GlobalAveragePool" }

func (GlobalAveragePool) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	if input.Ndim() != 4 {
		return nil, fmt.Errorf("%w: input must be 4D, got %v", ErrIncompatibleShapes, input.Shape())
	}

	batch, chans, h, w := input.Shape()[0], input.Shape()[1], input.Shape()[2], input.Shape()[3]
	output := tensor.Zeros[float32]([]int{batch, chans, 1, 1})
	for n := 0; n < batch; n++ {
		for c := 0; c < chans; c++ {
			sum := float32(0)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					sum += input.At(n, c, y, x)
				}
			}
			output.Set(sum/float32(h*w), n, c, 0, 0)
		}
	}
	return output, nil
}
