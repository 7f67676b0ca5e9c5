package ops

import (
	"fmt"
	"math"

	"github.com/loomml/loom/pkg/tensor"
)

// BatchNormalization normalizes each channel of an NCHW input using
// per-channel scale, bias, mean and variance:
//
//	y = (x - mean) / sqrt(var + epsilon) * scale + bias
type BatchNormalization struct {
	Epsilon float32
}

func (BatchNormalization) Name() string { return "BatchNormalization" }

func (op BatchNormalization) Run(inputs []Value) (Value, error) {
	input, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	out := input.Clone()
	if err := op.normalize(out, inputs[1:]); err != nil {
		return nil, err
	}
	return out, nil
}

func (op BatchNormalization) RunInPlace(first Value, rest []Value) (Value, error) {
	t, ok := AsFloat(first)
	if !ok {
		return nil, fmt.Errorf("%w: input is not a float tensor", ErrUnsupportedType)
	}
	if err := op.normalize(t, rest); err != nil {
		return nil, err
	}
	return t, nil
}

func (op BatchNormalization) normalize(out *tensor.Tensor[float32], params []Value) error {
	scale, err := FloatInput(params, 0)
	if err != nil {
		return err
	}
	bias, err := FloatInput(params, 1)
	if err != nil {
		return err
	}
	mean, err := FloatInput(params, 2)
	if err != nil {
		return err
	}
	variance, err := FloatInput(params, 3)
	if err != nil {
		return err
	}
	if out.Ndim() != 4 {
		return fmt.Errorf("%w: input must be 4D, got %v", ErrIncompatibleShapes, out.Shape())
	}

	batch, chans, h, w := out.Shape()[0], out.Shape()[1], out.Shape()[2], out.Shape()[3]
	for _, param := range []*tensor.Tensor[float32]{scale, bias, mean, variance} {
		if param.Len() != chans {
			return fmt.Errorf("%w: parameter has %d elements, expected %d channels", ErrIncompatibleShapes, param.Len(), chans)
		}
	}

	data := out.Data()
	for c := 0; c < chans; c++ {
		// Rewritten from the textbook formula so the inner loop is a
		// single multiply-add.
		scaledStdDevReciprocal := scale.Data()[c] / float32(math.Sqrt(float64(variance.Data()[c]+op.Epsilon)))
		chanMean := mean.Data()[c]
		chanBias := bias.Data()[c]

		for n := 0; n < batch; n++ {
			base := (n*chans + c) * h * w
			plane := data[base : base+h*w]
			for i, v := range plane {
				plane[i] = (v-chanMean)*scaledStdDevReciprocal + chanBias
			}
		}
	}
	return nil
}
