package ops

import (
	"errors"
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestReduceMeanAllAxes(t *testing.T) {
	input := tensor.FromData([]int{2, 2}, []float32{1, 2, 3, 4})
	got, err := ReduceMean{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{}, []float32{2.5}, 1e-5)
}

func TestReduceMeanAxisKeepDims(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
	})

	got, err := ReduceMean{Axes: []int{1}}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2}, []float32{2, 5}, 1e-5)

	got, err = ReduceMean{Axes: []int{1}, KeepDims: true}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run with keepDims: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 1}, []float32{2, 5}, 1e-5)
}

func TestReduceSumNegativeAxis(t *testing.T) {
	input := tensor.FromData([]int{2, 2}, []float32{1, 2, 3, 4})
	got, err := ReduceSum{Axes: []int{-1}}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2}, []float32{3, 7}, 1e-5)
}

func TestReduceMinMaxProd(t *testing.T) {
	input := tensor.FromVec([]float32{3, 1, 4, 2})

	got, err := ReduceMin{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("ReduceMin: %v", err)
	}
	checkFloatTensor(t, got, []int{}, []float32{1}, 0)

	got, err = ReduceMax{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("ReduceMax: %v", err)
	}
	checkFloatTensor(t, got, []int{}, []float32{4}, 0)

	got, err = ReduceProd{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("ReduceProd: %v", err)
	}
	checkFloatTensor(t, got, []int{}, []float32{24}, 1e-5)
}

func TestReduceL2(t *testing.T) {
	input := tensor.FromVec([]float32{3, 4})
	got, err := ReduceL2{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{}, []float32{5}, 1e-5)
}

func TestReduceAxisOutOfRange(t *testing.T) {
	input := tensor.FromVec([]float32{1})
	_, err := ReduceSum{Axes: []int{3}}.Run([]Value{input})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got error %v, want ErrInvalidValue", err)
	}
}

func TestArgMax(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{
		1, 5, 3,
		9, 2, 9,
	})

	got, err := ArgMax{Axis: 1}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Ties resolve to the lowest position.
	checkIntTensor(t, got, []int{2}, []int32{1, 0})

	got, err = ArgMax{Axis: 1, KeepDims: true}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run with keepDims: %v", err)
	}
	checkIntTensor(t, got, []int{2, 1}, []int32{1, 0})
}

func TestArgMin(t *testing.T) {
	input := tensor.FromVec([]float32{3, 1, 2})
	got, err := ArgMin{Axis: 0}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkIntTensor(t, got, []int{}, []int32{1})
}

func TestCumSum(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
	})
	axis := tensor.FromVec([]int32{1})

	got, err := CumSum{}.Run([]Value{input, axis})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 3}, []float32{
		1, 3, 6,
		4, 9, 15,
	}, 1e-5)
}
