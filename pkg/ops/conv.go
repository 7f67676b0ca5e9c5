package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// Padding specifies how much spatial padding a convolution or pooling
// operator applies to its input.
type Padding struct {
	// Same pads so the output has the same height and width as the input,
	// placing any odd remainder at the end (ONNX "SAME_UPPER").
	Same bool

	// Fixed holds top, left, bottom and right padding when Same is false.
	Fixed [4]int
}

// FixedPadding returns uniform padding of the given size on all sides.
func FixedPadding(size int) Padding {
	return Padding{Fixed: [4]int{size, size, size, size}}
}

func (p Padding) resolve(kh, kw int) (top, left, bottom, right int) {
	if p.Same {
		top = (kh - 1) / 2
		bottom = kh - 1 - top
		left = (kw - 1) / 2
		right = kw - 1 - left
		return top, left, bottom, right
	}
	return p.Fixed[0], p.Fixed[1], p.Fixed[2], p.Fixed[3]
}

// Conv2d performs a 2D convolution over an NCHW input with an
// [outChans, inChans/groups, kH, kW] kernel and an optional [outChans]
// bias. This is a reference implementation using a direct algorithm.
type Conv2d struct {
	Padding Padding
	Groups  int
}

func (Conv2d) Name() string { return "Conv2d" }

func (op Conv2d) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	kernel, err := FloatInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	bias, err := OptionalFloatInput(inputs, 2)
	if err != nil {
		return nil, err
	}
	if input.Ndim() != 4 || kernel.Ndim() != 4 {
		return nil, fmt.Errorf("%w: conv input and kernel must be 4D, got %v and %v", ErrIncompatibleShapes, input.Shape(), kernel.Shape())
	}

	batch, inC, inH, inW := input.Shape()[0], input.Shape()[1], input.Shape()[2], input.Shape()[3]
	outC, kInC, kH, kW := kernel.Shape()[0], kernel.Shape()[1], kernel.Shape()[2], kernel.Shape()[3]

	groups := op.Groups
	if groups == 0 {
		groups = 1
	}
	if inC%groups != 0 || outC%groups != 0 {
		return nil, fmt.Errorf("%w: channels %d/%d not divisible by %d groups", ErrIncompatibleShapes, inC, outC, groups)
	}
	if kInC != inC/groups {
		return nil, fmt.Errorf("%w: kernel has %d input channels, expected %d", ErrIncompatibleShapes, kInC, inC/groups)
	}
	if bias != nil && bias.Len() != outC {
		return nil, fmt.Errorf("%w: bias has %d elements, expected %d", ErrIncompatibleShapes, bias.Len(), outC)
	}

	padTop, padLeft, padBottom, padRight := op.Padding.resolve(kH, kW)
	outH := inH - kH + 1 + padTop + padBottom
	outW := inW - kW + 1 + padLeft + padRight
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("%w: kernel %dx%d larger than padded input %dx%d", ErrIncompatibleShapes, kH, kW, inH, inW)
	}

	output := tensor.Zeros[float32]([]int{batch, outC, outH, outW})
	groupInC := inC / groups
	groupOutC := outC / groups

	for n := 0; n < batch; n++ {
		for oc := 0; oc < outC; oc++ {
			group := oc / groupOutC
			biasVal := float32(0)
			if bias != nil {
				biasVal = bias.Data()[oc]
			}
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					sum := biasVal
					for ic := 0; ic < groupInC; ic++ {
						for ky := 0; ky < kH; ky++ {
							iy := oy + ky - padTop
							if iy < 0 || iy >= inH {
								continue
							}
							for kx := 0; kx < kW; kx++ {
								ix := ox + kx - padLeft
								if ix < 0 || ix >= inW {
									continue
								}
								sum += input.At(n, group*groupInC+ic, iy, ix) * kernel.At(oc, ic, ky, kx)
							}
						}
					}
					output.Set(sum, n, oc, oy, ox)
				}
			}
		}
	}
	return output, nil
}

// ConvTranspose2d performs a transposed 2D convolution (deconvolution)
// over an NCHW input with an [inChans, outChans, kH, kW] kernel.
type ConvTranspose2d struct {
	Stride int
}

func (ConvTranspose2d) Name() string { return "ConvTranspose2d" }

func (op ConvTranspose2d) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	kernel, err := FloatInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	if input.Ndim() != 4 || kernel.Ndim() != 4 {
		return nil, fmt.Errorf("%w: input and kernel must be 4D, got %v and %v", ErrIncompatibleShapes, input.Shape(), kernel.Shape())
	}

	batch, inC, inH, inW := input.Shape()[0], input.Shape()[1], input.Shape()[2], input.Shape()[3]
	kInC, outC, kH, kW := kernel.Shape()[0], kernel.Shape()[1], kernel.Shape()[2], kernel.Shape()[3]
	if kInC != inC {
		return nil, fmt.Errorf("%w: kernel has %d input channels, input has %d", ErrIncompatibleShapes, kInC, inC)
	}

	stride := op.Stride
	if stride == 0 {
		stride = 1
	}
	outH := (inH-1)*stride + kH
	outW := (inW-1)*stride + kW

	output := tensor.Zeros[float32]([]int{batch, outC, outH, outW})
	for n := 0; n < batch; n++ {
		for ic := 0; ic < inC; ic++ {
			for iy := 0; iy < inH; iy++ {
				for ix := 0; ix < inW; ix++ {
					v := input.At(n, ic, iy, ix)
					for oc := 0; oc < outC; oc++ {
						for ky := 0; ky < kH; ky++ {
							for kx := 0; kx < kW; kx++ {
								oy := iy*stride + ky
								ox := ix*stride + kx
								output.Set(output.At(n, oc, oy, ox)+v*kernel.At(ic, oc, ky, kx), n, oc, oy, ox)
							}
						}
					}
				}
			}
		}
	}
	return output, nil
}
