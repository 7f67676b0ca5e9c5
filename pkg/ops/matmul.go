package ops

import (
	"fmt"

	"github.com/loomml/loom/pkg/tensor"
)

// gemmSlice computes out += alpha * a*b for row-major matrices stored in
// flat slices.
func gemmSlice(out, a, b []float32, m, k, n int, alpha float32) {
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			av := alpha * a[i*k+l]
			outRow := out[i*n : (i+1)*n]
			bRow := b[l*n : (l+1)*n]
			for j := range outRow {
				outRow[j] += av * bRow[j]
			}
		}
	}
}

// MatMul multiplies two float matrices. Inputs with more than two
// dimensions are treated as stacks of matrices; the leading dimensions
// must match, or one input must be a plain matrix, which is broadcast.
type MatMul struct{}

func (MatMul) Name() string { return "MatMul" }

func (MatMul) Run(inputs []Value) (Value, error) {
	a, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	b, err := FloatInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	return matmul(a, b)
}

func matmul(a, b *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) < 2 || len(bShape) < 2 {
		return nil, fmt.Errorf("%w: matmul inputs must have at least 2 dims, got %v and %v", ErrIncompatibleShapes, aShape, bShape)
	}
	m, ka := aShape[len(aShape)-2], aShape[len(aShape)-1]
	kb, n := bShape[len(bShape)-2], bShape[len(bShape)-1]
	if ka != kb {
		return nil, fmt.Errorf("%w: inner dims %d and %d differ", ErrIncompatibleShapes, ka, kb)
	}

	aBatch := aShape[:len(aShape)-2]
	bBatch := bShape[:len(bShape)-2]
	var batchShape []int
	switch {
	case tensor.ShapeEqual(aBatch, bBatch):
		batchShape = aBatch
	case len(aBatch) == 0:
		batchShape = bBatch
	case len(bBatch) == 0:
		batchShape = aBatch
	default:
		return nil, fmt.Errorf("%w: batch dims %v and %v differ", ErrIncompatibleShapes, aBatch, bBatch)
	}
	batch := 1
	for _, d := range batchShape {
		batch *= d
	}

	outShape := append(append([]int(nil), batchShape...), m, n)
	out := make([]float32, batch*m*n)
	ad, bd := a.Data(), b.Data()
	for i := 0; i < batch; i++ {
		aOff, bOff := i*m*ka, i*ka*n
		if len(aBatch) == 0 {
			aOff = 0
		}
		if len(bBatch) == 0 {
			bOff = 0
		}
		gemmSlice(out[i*m*n:(i+1)*m*n], ad[aOff:aOff+m*ka], bd[bOff:bOff+ka*n], m, ka, n, 1)
	}
	return tensor.FromData(outShape, out), nil
}

// Gemm computes alpha * a*b + beta * c for float matrices, optionally
// transposing a or b first. The bias c may have shape [m, n], [n] or be a
// single element, and may be omitted.
type Gemm struct {
	Alpha      float32
	Beta       float32
	TransposeA bool
	TransposeB bool
}

func (Gemm) Name() string { return "Gemm" }

func (op Gemm) Run(inputs []Value) (Value, error) {
	a, err := FloatInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	b, err := FloatInput(inputs, 1)
	if err != nil {
		return nil, err
	}
	c, err := OptionalFloatInput(inputs, 2)
	if err != nil {
		return nil, err
	}
	if a.Ndim() != 2 || b.Ndim() != 2 {
		return nil, fmt.Errorf("%w: gemm inputs must be matrices, got %v and %v", ErrIncompatibleShapes, a.Shape(), b.Shape())
	}

	if op.TransposeA {
		a = transpose2d(a)
	}
	if op.TransposeB {
		b = transpose2d(b)
	}
	m, ka := a.Shape()[0], a.Shape()[1]
	kb, n := b.Shape()[0], b.Shape()[1]
	if ka != kb {
		return nil, fmt.Errorf("%w: inner dims %d and %d differ", ErrIncompatibleShapes, ka, kb)
	}

	out := make([]float32, m*n)
	if c != nil && op.Beta != 0 {
		cd := c.Data()
		switch {
		case tensor.ShapeEqual(c.Shape(), []int{m, n}):
			for i := range out {
				out[i] = op.Beta * cd[i]
			}
		case c.Len() == n:
			for i := 0; i < m; i++ {
				for j := 0; j < n; j++ {
					out[i*n+j] = op.Beta * cd[j]
				}
			}
		case c.Len() == 1:
			for i := range out {
				out[i] = op.Beta * cd[0]
			}
		default:
			return nil, fmt.Errorf("%w: bias shape %v does not broadcast to [%d %d]", ErrIncompatibleShapes, c.Shape(), m, n)
		}
	}
	gemmSlice(out, a.Data(), b.Data(), m, ka, n, op.Alpha)
	return tensor.FromData([]int{m, n}, out), nil
}

func transpose2d(t *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	rows, cols := t.Shape()[0], t.Shape()[1]
	in := t.Data()
	out := make([]float32, len(in))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = in[i*cols+j]
		}
	}
	return tensor.FromData([]int{cols, rows}, out)
}
