package ops

import (
	"errors"
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestSlice(t *testing.T) {
	input := tensor.FromData([]int{3, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	starts := tensor.FromVec([]int32{1, 0})
	ends := tensor.FromVec([]int32{3, 2})

	got, err := Slice{}.Run([]Value{input, starts, ends})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 2}, []float32{
		4, 5,
		7, 8,
	}, 0)
}

func TestSliceNegativeAndClamped(t *testing.T) {
	input := tensor.FromVec([]float32{1, 2, 3, 4, 5})
	starts := tensor.FromVec([]int32{-2})
	ends := tensor.FromVec([]int32{100})

	got, err := Slice{}.Run([]Value{input, starts, ends})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2}, []float32{4, 5}, 0)
}

func TestSliceWithAxes(t *testing.T) {
	input := tensor.FromData([]int{2, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	})
	starts := tensor.FromVec([]int32{1})
	ends := tensor.FromVec([]int32{3})
	axes := tensor.FromVec([]int32{1})

	got, err := Slice{}.Run([]Value{input, starts, ends, axes})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 2}, []float32{
		2, 3,
		6, 7,
	}, 0)
}

func TestSliceInvalidRange(t *testing.T) {
	input := tensor.FromVec([]float32{1, 2, 3})
	starts := tensor.FromVec([]int32{2})
	ends := tensor.FromVec([]int32{1})
	_, err := Slice{}.Run([]Value{input, starts, ends})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}
