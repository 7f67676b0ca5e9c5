package ops

import (
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestBatchNormalization(t *testing.T) {
	input := tensor.FromData([]int{1, 2, 1, 2}, []float32{
		1, 2,
		3, 4,
	})
	scale := tensor.FromVec([]float32{1, 2})
	bias := tensor.FromVec([]float32{0, 1})
	mean := tensor.FromVec([]float32{1.5, 3.5})
	variance := tensor.FromVec([]float32{0.25, 0.25})

	got, err := BatchNormalization{Epsilon: 0}.Run([]Value{input, scale, bias, mean, variance})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{1, 2, 1, 2}, []float32{
		-1, 1,
		-1, 3,
	}, 1e-4)

	// The allocating path must leave the input untouched.
	if input.Data()[0] != 1 {
		t.Errorf("input was mutated: got %v, want 1", input.Data()[0])
	}
}

func TestBatchNormalizationRunInPlace(t *testing.T) {
	input := tensor.FromData([]int{1, 1, 1, 2}, []float32{3, 5})
	scale := tensor.FromVec([]float32{1})
	bias := tensor.FromVec([]float32{0})
	mean := tensor.FromVec([]float32{4})
	variance := tensor.FromVec([]float32{1})

	got, err := BatchNormalization{Epsilon: 0}.RunInPlace(input, []Value{scale, bias, mean, variance})
	if err != nil {
		t.Fatalf("RunInPlace: %v", err)
	}
	if got != Value(input) {
		t.Error("RunInPlace returned a different tensor")
	}
	checkFloatTensor(t, got, []int{1, 1, 1, 2}, []float32{-1, 1}, 1e-5)
}
