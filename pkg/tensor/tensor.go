// Package tensor provides the n-dimensional array container used by the
// graph execution engine. Tensors are dense, row-major and generic over the
// two element kinds the engine supports (float32 and int32).
package tensor

import (
	"fmt"
	"slices"
)

// Scalar is the set of element types a Tensor can hold.
type Scalar interface {
	~float32 | ~int32
}

// Tensor is a dense n-dimensional array with row-major layout.
type Tensor[T Scalar] struct {
	shape   []int
	strides []int
	data    []T
}

// FromData creates a tensor with the given shape, taking ownership of data.
// The length of data must match the product of the shape dimensions.
func FromData[T Scalar](shape []int, data []T) *Tensor[T] {
	n := numElements(shape)
	if len(data) != n {
		panic(fmt.Sprintf("tensor data has %d elements, shape %v requires %d", len(data), shape, n))
	}
	return &Tensor[T]{
		shape:   slices.Clone(shape),
		strides: contiguousStrides(shape),
		data:    data,
	}
}

// FromScalar creates a zero-dimensional tensor holding a single value.
func FromScalar[T Scalar](value T) *Tensor[T] {
	return FromData([]int{}, []T{value})
}

// FromVec creates a 1D tensor from a slice.
func FromVec[T Scalar](data []T) *Tensor[T] {
	return FromData([]int{len(data)}, data)
}

// Zeros creates a tensor of the given shape filled with the zero value.
func Zeros[T Scalar](shape []int) *Tensor[T] {
	return FromData(shape, make([]T, numElements(shape)))
}

// Full creates a tensor of the given shape with every element set to value.
func Full[T Scalar](shape []int, value T) *Tensor[T] {
	data := make([]T, numElements(shape))
	for i := range data {
		data[i] = value
	}
	return FromData(shape, data)
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func contiguousStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Shape returns the tensor's dimensions. Callers must not modify the
// returned slice.
func (t *Tensor[T]) Shape() []int {
	return t.shape
}

// Ndim returns the number of dimensions.
func (t *Tensor[T]) Ndim() int {
	return len(t.shape)
}

// Len returns the total number of elements.
func (t *Tensor[T]) Len() int {
	return len(t.data)
}

// Stride returns the distance in elements between successive entries along
// the given dimension.
func (t *Tensor[T]) Stride(dim int) int {
	return t.strides[dim]
}

// Data returns the backing element slice in row-major order.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// Offset converts an n-dimensional index to a position in Data.
func (t *Tensor[T]) Offset(index ...int) int {
	if len(index) != len(t.shape) {
		panic(fmt.Sprintf("index has %d dims, tensor has %d", len(index), len(t.shape)))
	}
	offset := 0
	for i, ix := range index {
		if ix < 0 || ix >= t.shape[i] {
			panic(fmt.Sprintf("index %v out of range for shape %v", index, t.shape))
		}
		offset += ix * t.strides[i]
	}
	return offset
}

// At returns the element at the given n-dimensional index.
func (t *Tensor[T]) At(index ...int) T {
	return t.data[t.Offset(index...)]
}

// Set stores a value at the given n-dimensional index.
func (t *Tensor[T]) Set(value T, index ...int) {
	t.data[t.Offset(index...)] = value
}

// Item returns the single element of a tensor with one element.
func (t *Tensor[T]) Item() T {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("Item called on tensor with %d elements", len(t.data)))
	}
	return t.data[0]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return FromData(t.shape, data)
}

// Reshape returns a tensor with the same elements and a new shape. The new
// shape must have the same number of elements. The returned tensor shares
// the backing data with the receiver.
func (t *Tensor[T]) Reshape(shape []int) (*Tensor[T], error) {
	if numElements(shape) != len(t.data) {
		return nil, fmt.Errorf("cannot reshape tensor of shape %v to %v", t.shape, shape)
	}
	return &Tensor[T]{
		shape:   slices.Clone(shape),
		strides: contiguousStrides(shape),
		data:    t.data,
	}, nil
}

// Map returns a new tensor produced by applying f to every element.
func (t *Tensor[T]) Map(f func(T) T) *Tensor[T] {
	data := make([]T, len(t.data))
	for i, v := range t.data {
		data[i] = f(v)
	}
	return FromData(t.shape, data)
}

// Apply replaces every element with f applied to it.
func (t *Tensor[T]) Apply(f func(T) T) {
	for i, v := range t.data {
		t.data[i] = f(v)
	}
}

// SameShape reports whether two tensors have identical shapes.
func SameShape[A, B Scalar](a *Tensor[A], b *Tensor[B]) bool {
	return ShapeEqual(a.shape, b.shape)
}

// ShapeEqual reports whether two shapes are identical.
func ShapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Convert produces a tensor with the same shape whose elements are converted
// to another scalar type.
func Convert[D, S Scalar](t *Tensor[S]) *Tensor[D] {
	data := make([]D, len(t.data))
	for i, v := range t.data {
		data[i] = D(v)
	}
	return FromData(t.shape, data)
}
