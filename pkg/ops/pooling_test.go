package ops

import (
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestMaxPool2d(t *testing.T) {
	input := tensor.FromData([]int{1, 1, 4, 4}, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		-1, -2, 0, 0,
		-3, -4, 0, 9,
	})
	got, err := MaxPool2d{KernelSize: 2}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{1, 1, 2, 2}, []float32{
		4, 8,
		-1, 9,
	}, 0)
}

func TestAveragePool2d(t *testing.T) {
	input := tensor.FromData([]int{1, 1, 2, 4}, []float32{
		1, 3, 10, 20,
		5, 7, 30, 40,
	})
	got, err := AveragePool2d{KernelSize: 2}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{1, 1, 1, 2}, []float32{4, 25}, 1e-5)
}

func TestGlobalAveragePool(t *testing.T) {
	input := tensor.FromData([]int{1, 2, 2, 2}, []float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	})
	got, err := GlobalAveragePool{}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{1, 2, 1, 1}, []float32{2.5, 25}, 1e-5)
}
