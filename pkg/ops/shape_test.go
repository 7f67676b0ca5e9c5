package ops

import (
	"errors"
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestReshape(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	spec := tensor.FromVec([]int32{3, 2})

	got, err := Reshape{}.Run([]Value{input, spec})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 2}, []float32{1, 2, 3, 4, 5, 6}, 0)
}

func TestReshapeInfersDimension(t *testing.T) {
	input := tensor.FromData([]int{2, 6}, make([]float32, 12))
	spec := tensor.FromVec([]int32{3, -1})

	got, err := Reshape{}.Run([]Value{input, spec})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 4}, make([]float32, 12), 0)
}

func TestReshapeRejectsTwoInferredDimensions(t *testing.T) {
	input := tensor.FromVec(make([]float32, 12))
	spec := tensor.FromVec([]int32{-1, -1})
	_, err := Reshape{}.Run([]Value{input, spec})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}

func TestShape(t *testing.T) {
	input := tensor.Zeros[float32]([]int{2, 3, 4})
	got, err := Shape{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkIntTensor(t, got, []int{3}, []int32{2, 3, 4})
}

func TestSqueeze(t *testing.T) {
	input := tensor.Zeros[float32]([]int{1, 3, 1, 2})

	got, err := Squeeze{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 2}, make([]float32, 6), 0)

	got, err = Squeeze{Axes: []int{0}}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run with axes: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 1, 2}, make([]float32, 6), 0)
}

func TestSqueezeRejectsNonUnitAxis(t *testing.T) {
	input := tensor.Zeros[float32]([]int{1, 3})
	_, err := Squeeze{Axes: []int{1}}.Run([]Value{input})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}

func TestUnsqueeze(t *testing.T) {
	input := tensor.FromVec([]float32{1, 2, 3})
	got, err := Unsqueeze{Axes: []int{0, 2}}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{1, 3, 1}, []float32{1, 2, 3}, 0)
}

func TestTranspose(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
	})

	got, err := Transpose{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 2}, []float32{
		1, 4,
		2, 5,
		3, 6,
	}, 0)
}

func TestTransposePerm(t *testing.T) {
	input := tensor.Zeros[float32]([]int{2, 3, 4})
	got, err := Transpose{Perm: []int{1, 0, 2}}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 2, 4}, make([]float32, 24), 0)
}

func TestTransposeRejectsBadPerm(t *testing.T) {
	input := tensor.Zeros[float32]([]int{2, 3})
	_, err := Transpose{Perm: []int{0, 0}}.Run([]Value{input})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}
