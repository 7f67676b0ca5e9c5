package ops

import (
	"errors"
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestGather(t *testing.T) {
	input := tensor.FromData([]int{3, 2}, []float32{
		1, 2,
		3, 4,
		5, 6,
	})
	indices := tensor.FromVec([]int32{2, 0})

	got, err := Gather{Axis: 0}.Run([]Value{input, indices})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 2}, []float32{
		5, 6,
		1, 2,
	}, 0)
}

func TestGatherNegativeIndex(t *testing.T) {
	input := tensor.FromVec([]float32{10, 20, 30})
	indices := tensor.FromVec([]int32{-1})

	got, err := Gather{Axis: 0}.Run([]Value{input, indices})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{1}, []float32{30}, 0)
}

func TestGatherAxis1(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
	})
	indices := tensor.FromVec([]int32{2, 1})

	got, err := Gather{Axis: 1}.Run([]Value{input, indices})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 2}, []float32{
		3, 2,
		6, 5,
	}, 0)
}

func TestGatherIndexOutOfRange(t *testing.T) {
	input := tensor.FromVec([]float32{1, 2})
	indices := tensor.FromVec([]int32{2})
	_, err := Gather{Axis: 0}.Run([]Value{input, indices})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}

func TestConstantOfShape(t *testing.T) {
	spec := tensor.FromVec([]int32{2, 3})
	got, err := ConstantOfShape{Value: 7}.Run([]Value{spec})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkIntTensor(t, got, []int{2, 3}, []int32{7, 7, 7, 7, 7, 7})
}
