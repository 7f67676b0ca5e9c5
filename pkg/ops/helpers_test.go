package ops

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loomml/loom/pkg/tensor"
)

func checkFloatTensor(t *testing.T, got Value, wantShape []int, want []float32, tolerance float64) {
	t.Helper()
	gotTensor, ok := got.(*tensor.Tensor[float32])
	if !ok {
		t.Fatalf("got value of type %T, want float tensor", got)
	}
	if diff := cmp.Diff(wantShape, gotTensor.Shape()); diff != "" {
		t.Fatalf("unexpected shape (-want +got):\n%s", diff)
	}
	for i, v := range gotTensor.Data() {
		if math.Abs(float64(v-want[i])) > tolerance {
			t.Fatalf("element %d: got %v, want %v (tolerance %v)", i, v, want[i], tolerance)
		}
	}
}

func checkIntTensor(t *testing.T, got Value, wantShape []int, want []int32) {
	t.Helper()
	gotTensor, ok := got.(*tensor.Tensor[int32])
	if !ok {
		t.Fatalf("got value of type %T, want int tensor", got)
	}
	if diff := cmp.Diff(wantShape, gotTensor.Shape()); diff != "" {
		t.Fatalf("unexpected shape (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, gotTensor.Data()); diff != "" {
		t.Fatalf("unexpected elements (-want +got):\n%s", diff)
	}
}
