package ops

import (
	"testing"

	"github.com/loomml/loom/pkg/tensor"
)

func TestCastFloatToInt(t *testing.T) {
	input := tensor.FromVec([]float32{1.9, -1.9, 0.5})
	got, err := Cast{To: DataTypeInt32}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Truncates towards zero.
	checkIntTensor(t, got, []int{3}, []int32{1, -1, 0})
}

func TestCastIntToFloat(t *testing.T) {
	input := tensor.FromVec([]int32{1, -2})
	got, err := Cast{To: DataTypeFloat}.Run([]Value{input})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	checkFloatTensor(t, got, []int{2}, []float32{1, -2}, 0)
}

func TestCastSameTypeInPlaceIsNoOp(t *testing.T) {
	input := tensor.FromVec([]float32{1, 2})
	got, err := Cast{To: DataTypeFloat}.RunInPlace(input, nil)
	if err != nil {
		t.Fatalf("RunInPlace: %v", err)
	}
	if got != Value(input) {
		t.Error("RunInPlace did not return the same tensor")
	}
}
