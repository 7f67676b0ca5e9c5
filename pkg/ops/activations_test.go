package ops

import (
	"errors"
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestRelu(t *testing.T) {
	input := tensor.FromVec([]float32{-2, -0.5, 0, 0.5, 2})
	got, err := Relu{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{5}, []float32{0, 0, 0, 0.5, 2}, 0)
}

func TestReluRejectsIntInput(t *testing.T) {
	_, err := Relu{}.Run([]Value{tensor.FromVec([]int32{1, 2})})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("got error %v, want ErrUnsupportedType", err)
	}
}

func TestLeakyRelu(t *testing.T) {
	input := tensor.FromVec([]float32{-10, -1, 0, 1})
	got, err := LeakyRelu{Alpha: 0.1}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{4}, []float32{-1, -0.1, 0, 1}, 1e-6)
}

func TestSigmoid(t *testing.T) {
	input := tensor.FromVec([]float32{-1, 0, 1})
	got, err := Sigmoid{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{3}, []float32{0.2689, 0.5, 0.7311}, 1e-4)
}

func TestClip(t *testing.T) {
	input := tensor.FromVec([]float32{-5, -1, 0, 1, 5})
	got, err := Clip{Min: -1, Max: 1}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{5}, []float32{-1, -1, 0, 1, 1}, 0)
}

func TestSoftmax(t *testing.T) {
	input := tensor.FromData([]int{2, 3}, []float32{
		1, 2, 3,
		0, 0, 0,
	})
	got, err := Softmax{Axis: 1}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2, 3}, []float32{
		0.0900, 0.2447, 0.6652,
		1.0 / 3, 1.0 / 3, 1.0 / 3,
	}, 1e-4)
}

func TestSoftmaxLargeInputsAreStable(t *testing.T) {
	input := tensor.FromVec([]float32{1000, 1001})
	got, err := Softmax{Axis: 0}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2}, []float32{0.2689, 0.7311}, 1e-4)
}

func TestReluRunInPlaceMutates(t *testing.T) {
	input := tensor.FromVec([]float32{-1, 1})
	got, err := Relu{}.RunInPlace(input, nil)
	if err != nil {
		t.Fatalf("RunInPlace: %v", err)
	}
	if got != Value(input) {
		t.Error("RunInPlace returned a different tensor")
	}
	checkFloatTensor(t, got, []int{2}, []float32{0, 1}, 0)
}
