package ops

import (
	"errors"
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestConcat(t *testing.T) {
	a := tensor.FromData([]int{2, 2}, []float32{
		1, 2,
		3, 4,
	})
	b := tensor.FromData([]int{2, 1}, []float32{
		5,
		6,
	})

	got, err := Concat{Dim: 1}.Run([]Value{a, b})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 3}, []float32{
		1, 2, 5,
		3, 4, 6,
	}, 0)
}

func TestConcatThreeInputs(t *testing.T) {
	a := tensor.FromVec([]int32{1})
	b := tensor.FromVec([]int32{2, 3})
	c := tensor.FromVec([]int32{4})

	got, err := Concat{Dim: 0}.Run([]Value{a, b, c})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkIntTensor(t, got, []int{4}, []int32{1, 2, 3, 4})
}

func TestConcatShapeMismatch(t *testing.T) {
	a := tensor.Zeros[float32]([]int{2, 2})
	b := tensor.Zeros[float32]([]int{3, 3})
	_, err := Concat{Dim: 1}.Run([]Value{a, b})
	if !errors.Is(err, ErrIncompatibleShapes) {
		t.Fatalf("got error %v, want ErrIncompatibleShapes", err)
	}
}

func TestConcatMixedTypes(t *testing.T) {
	a := tensor.FromVec([]float32{1})
	b := tensor.FromVec([]int32{2})
	_, err := Concat{Dim: 0}.Run([]Value{a, b})
	if !errors.Is(err, ErrIncompatibleTypes) {
		t.Fatalf("got error %v, want ErrIncompatibleTypes", err)
	}
}

func TestPad(t *testing.T) {
	input := tensor.FromData([]int{2, 2}, []float32{
		1, 2,
		3, 4,
	})
	pads := tensor.FromVec([]int32{0, 1, 1, 0})

	got, err := Pad{}.Run([]Value{input, pads})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3, 3}, []float32{
		0, 1, 2,
		0, 3, 4,
		0, 0, 0,
	}, 0)
}

func TestPadWrongLength(t *testing.T) {
	input := tensor.Zeros[float32]([]int{2, 2})
	pads := tensor.FromVec([]int32{1, 1})
	_, err := Pad{}.Run([]Value{input, pads})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}
