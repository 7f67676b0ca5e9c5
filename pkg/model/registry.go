package model

import (
	"fmt"

	"github.com/loomml/loom/pkg/ops"
)

// Attribute kinds used in the serialized form of an operator.
const (
	attrInt uint8 = iota
	attrFloat
	attrInts
	attrBool
)

type attrValue struct {
	kind uint8
	i    int64
	f    float32
	ints []int64
	b    bool
}

// attrMap holds an operator's serialized attributes.
type attrMap map[string]attrValue

func (a attrMap) setInt(name string, v int64) { a[name] = attrValue{kind: attrInt, i: v} }

func (a attrMap) setFloat(name string, v float32) { a[name] = attrValue{kind: attrFloat, f: v} }

func (a attrMap) setBool(name string, v bool) { a[name] = attrValue{kind: attrBool, b: v} }

func (a attrMap) setInts(name string, v []int) {
	ints := make([]int64, len(v))
	for i, x := range v {
		ints[i] = int64(x)
	}
	a[name] = attrValue{kind: attrInts, ints: ints}
}

func (a attrMap) intOr(name string, def int64) int64 {
	if v, ok := a[name]; ok && v.kind == attrInt {
		return v.i
	}
	return def
}

func (a attrMap) floatOr(name string, def float32) float32 {
	if v, ok := a[name]; ok && v.kind == attrFloat {
		return v.f
	}
	return def
}

func (a attrMap) boolOr(name string, def bool) bool {
	if v, ok := a[name]; ok && v.kind == attrBool {
		return v.b
	}
	return def
}

// intsOr returns the named int-list attribute, or nil when absent.
// Absence is meaningful: several operators treat a nil axis list as "all
// axes" or "derive from the input".
func (a attrMap) intsOr(name string) []int {
	v, ok := a[name]
	if !ok || v.kind != attrInts {
		return nil
	}
	out := make([]int, len(v.ints))
	for i, x := range v.ints {
		out[i] = int(x)
	}
	return out
}

// encodeOp converts a catalog operator into its registry name and
// serialized attributes.
func encodeOp(op ops.Operator) (attrMap, error) {
	attrs := make(attrMap)
	switch op := op.(type) {
	case ops.Relu, ops.Sigmoid, ops.Identity, ops.MatMul, ops.Pad, ops.Slice,
		ops.CumSum, ops.Shape, ops.Reshape, ops.GlobalAveragePool:
		// No attributes.
	case ops.LeakyRelu:
		attrs.setFloat("alpha", op.Alpha)
	case ops.Clip:
		attrs.setFloat("min", op.Min)
		attrs.setFloat("max", op.Max)
	case ops.Softmax:
		attrs.setInt("axis", int64(op.Axis))
	case ops.Concat:
		attrs.setInt("dim", int64(op.Dim))
	case ops.Conv2d:
		attrs.setBool("same", op.Padding.Same)
		attrs.setInts("pads", op.Padding.Fixed[:])
		attrs.setInt("groups", int64(op.Groups))
	case ops.ConvTranspose2d:
		attrs.setInt("stride", int64(op.Stride))
	case ops.MaxPool2d:
		attrs.setInt("kernelSize", int64(op.KernelSize))
	case ops.AveragePool2d:
		attrs.setInt("kernelSize", int64(op.KernelSize))
	case ops.BatchNormalization:
		attrs.setFloat("epsilon", op.Epsilon)
	case ops.Gemm:
		attrs.setFloat("alpha", op.Alpha)
		attrs.setFloat("beta", op.Beta)
		attrs.setBool("transposeA", op.TransposeA)
		attrs.setBool("transposeB", op.TransposeB)
	case ops.Gather:
		attrs.setInt("axis", int64(op.Axis))
	case ops.Cast:
		attrs.setInt("to", int64(op.To))
	case ops.ConstantOfShape:
		attrs.setInt("value", int64(op.Value))
	case ops.Squeeze:
		if op.Axes != nil {
			attrs.setInts("axes", op.Axes)
		}
	case ops.Unsqueeze:
		attrs.setInts("axes", op.Axes)
	case ops.Transpose:
		if op.Perm != nil {
			attrs.setInts("perm", op.Perm)
		}
	case ops.ArgMax:
		attrs.setInt("axis", int64(op.Axis))
		attrs.setBool("keepDims", op.KeepDims)
	case ops.ArgMin:
		attrs.setInt("axis", int64(op.Axis))
		attrs.setBool("keepDims", op.KeepDims)
	case ops.ReduceMean, ops.ReduceSum, ops.ReduceProd, ops.ReduceMin, ops.ReduceMax, ops.ReduceL2:
		axes, keepDims := reduceAttrs(op)
		if axes != nil {
			attrs.setInts("axes", axes)
		}
		attrs.setBool("keepDims", keepDims)
	case ops.Add, ops.Sub, ops.Mul, ops.Div:
		// No attributes.
	default:
		return nil, fmt.Errorf("operator %q is not a registered kind and cannot be serialized", op.Name())
	}
	return attrs, nil
}

func reduceAttrs(op ops.Operator) ([]int, bool) {
	switch op := op.(type) {
	case ops.ReduceMean:
		return op.Axes, op.KeepDims
	case ops.ReduceSum:
		return op.Axes, op.KeepDims
	case ops.ReduceProd:
		return op.Axes, op.KeepDims
	case ops.ReduceMin:
		return op.Axes, op.KeepDims
	case ops.ReduceMax:
		return op.Axes, op.KeepDims
	case ops.ReduceL2:
		return op.Axes, op.KeepDims
	default:
		return nil, false
	}
}

// decodeOp reconstructs a catalog operator from its registry name and
// serialized attributes.
func decodeOp(name string, attrs attrMap) (ops.Operator, error) {
	switch name {
	case "Relu":
		return ops.Relu{}, nil
	case "Sigmoid":
		return ops.Sigmoid{}, nil
	case "Identity":
		return ops.Identity{}, nil
	case "MatMul":
		return ops.MatMul{}, nil
	case "Pad":
		return ops.Pad{}, nil
	case "Slice":
		return ops.Slice{}, nil
	case "CumSum":
		return ops.CumSum{}, nil
	case "Shape":
		return ops.Shape{}, nil
	case "Reshape":
		return ops.Reshape{}, nil
	case "GlobalAveragePool":
		return ops.GlobalAveragePool{}, nil
	case "Add":
		return ops.Add{}, nil
	case "Sub":
		return ops.Sub{}, nil
	case "Mul":
		return ops.Mul{}, nil
	case "Div":
		return ops.Div{}, nil
	case "LeakyRelu":
		return ops.LeakyRelu{Alpha: attrs.floatOr("alpha", 0.01)}, nil
	case "Clip":
		return ops.Clip{Min: attrs.floatOr("min", 0), Max: attrs.floatOr("max", 0)}, nil
	case "Softmax":
		return ops.Softmax{Axis: int(attrs.intOr("axis", 0))}, nil
	case "Concat":
		return ops.Concat{Dim: int(attrs.intOr("dim", 0))}, nil
	case "Conv2d":
		padding := ops.Padding{Same: attrs.boolOr("same", false)}
		copy(padding.Fixed[:], attrs.intsOr("pads"))
		return ops.Conv2d{Padding: padding, Groups: int(attrs.intOr("groups", 1))}, nil
	case "ConvTranspose2d":
		return ops.ConvTranspose2d{Stride: int(attrs.intOr("stride", 1))}, nil
	case "MaxPool2d":
		return ops.MaxPool2d{KernelSize: int(attrs.intOr("kernelSize", 1))}, nil
	case "AveragePool2d":
		return ops.AveragePool2d{KernelSize: int(attrs.intOr("kernelSize", 1))}, nil
	case "BatchNormalization":
		return ops.BatchNormalization{Epsilon: attrs.floatOr("epsilon", 1e-5)}, nil
	case "Gemm":
		return ops.Gemm{
			Alpha:      attrs.floatOr("alpha", 1),
			Beta:       attrs.floatOr("beta", 1),
			TransposeA: attrs.boolOr("transposeA", false),
			TransposeB: attrs.boolOr("transposeB", false),
		}, nil
	case "Gather":
		return ops.Gather{Axis: int(attrs.intOr("axis", 0))}, nil
	case "Cast":
		return ops.Cast{To: ops.DataType(attrs.intOr("to", 0))}, nil
	case "ConstantOfShape":
		return ops.ConstantOfShape{Value: int32(attrs.intOr("value", 0))}, nil
	case "Squeeze":
		return ops.Squeeze{Axes: attrs.intsOr("axes")}, nil
	case "Unsqueeze":
		return ops.Unsqueeze{Axes: attrs.intsOr("axes")}, nil
	case "Transpose":
		return ops.Transpose{Perm: attrs.intsOr("perm")}, nil
	case "ArgMax":
		return ops.ArgMax{Axis: int(attrs.intOr("axis", 0)), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ArgMin":
		return ops.ArgMin{Axis: int(attrs.intOr("axis", 0)), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ReduceMean":
		return ops.ReduceMean{Axes: attrs.intsOr("axes"), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ReduceSum":
		return ops.ReduceSum{Axes: attrs.intsOr("axes"), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ReduceProd":
		return ops.ReduceProd{Axes: attrs.intsOr("axes"), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ReduceMin":
		return ops.ReduceMin{Axes: attrs.intsOr("axes"), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ReduceMax":
		return ops.ReduceMax{Axes: attrs.intsOr("axes"), KeepDims: attrs.boolOr("keepDims", false)}, nil
	case "ReduceL2":
		return ops.ReduceL2{Axes: attrs.intsOr("axes"), KeepDims: attrs.boolOr("keepDims", false)}, nil
	default:
		return nil, fmt.Errorf("unknown operator kind %q", name)
	}
}
