package ops

import "github.com/loomml/loom/pkg/tensor"

// DataType identifies a tensor element kind.
type DataType int

const (
	DataTypeFloat DataType = iota
	DataTypeInt32
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeFloat:
		return "float"
	case DataTypeInt32:
		return "int32"
	default:
		return "unknown"
	}
}

// Cast converts a tensor's elements to another data type. Float to int
// conversion truncates towards zero.
type Cast struct {
	To DataType
}

func (Cast) Name() string { return "Cast" }

func (op Cast) Run(inputs []Value) (Value, error) {
	input, err := anyInput(inputs, 0)
	if err != nil {
		return nil, err
	}
	switch t := input.(type) {
	case *tensor.Tensor[float32]:
		if op.To == DataTypeFloat {
			return t.Clone(), nil
		}
		return tensor.Convert[int32](t), nil
	case *tensor.Tensor[int32]:
		if op.To == DataTypeInt32 {
			return t.Clone(), nil
		}
		return tensor.Convert[float32](t), nil
	default:
		return nil, ErrUnsupportedType
	}
}

func (op Cast) RunInPlace(first Value, rest []Value) (Value, error) {
	// A cast to the value's existing type is a no-op on owned storage.
	if _, ok := AsFloat(first); ok && op.To == DataTypeFloat {
		return first, nil
	}
	if _, ok := AsInt(first); ok && op.To == DataTypeInt32 {
		return first, nil
	}
	return op.Run([]Value{first})
}
