package model

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"k8s.io/klog/v2"

	"github.com/loomml/loom/pkg/graph"
	"github.com/loomml/loom/pkg/ops"
	"github.com/loomml/loom/pkg/tensor"
)

// Model container format: the magic bytes and version, a sequence of graph
// construction records (value, constant or operator), and name tables for
// the model's inputs and outputs. Replaying the records through a Builder
// reproduces the graph with identical node IDs. All integers are
// little-endian.
const (
	formatMagic   = "LOOM"
	formatVersion = 1
)

const (
	dtypeFloat uint8 = iota
	dtypeInt32
)

// Save writes the model built by b to w.
func (b *Builder) Save(w io.Writer) error {
	bw := &binaryWriter{w: w}
	bw.bytes([]byte(formatMagic))
	bw.u32(formatVersion)

	bw.u32(uint32(len(b.records)))
	for _, rec := range b.records {
		bw.u8(uint8(rec.kind))
		switch rec.kind {
		case recordValue:
		case recordConstant:
			bw.constant(rec.value)
		case recordOperator:
			bw.str(rec.op.Name())
			attrs, err := encodeOp(rec.op)
			if err != nil {
				return err
			}
			bw.attrs(attrs)
			bw.u32(uint32(len(rec.inputs)))
			for _, id := range rec.inputs {
				bw.u32(uint32(id))
			}
		}
	}

	bw.nameTable(b.inputOrder, b.inputs)
	bw.nameTable(b.outputOrder, b.outputs)
	return bw.err
}

// Load reads a model from r.
func Load(ctx context.Context, r io.Reader) (*Model, error) {
	log := klog.FromContext(ctx)
	br := &binaryReader{r: r}

	magic := make([]byte, len(formatMagic))
	br.bytes(magic)
	if br.err == nil && string(magic) != formatMagic {
		return nil, fmt.Errorf("not a model file (bad magic %q)", magic)
	}
	if version := br.u32(); br.err == nil && version != formatVersion {
		return nil, fmt.Errorf("unsupported model format version %d", version)
	}

	b := NewBuilder()
	numRecords := br.u32()
	for i := uint32(0); i < numRecords && br.err == nil; i++ {
		switch kind := recordKind(br.u8()); kind {
		case recordValue:
			b.AddValue()
		case recordConstant:
			value, err := br.constant()
			if err != nil {
				return nil, err
			}
			b.AddConstant(value)
		case recordOperator:
			name := br.str()
			attrs := br.attrs()
			numInputs := br.u32()
			inputs := make([]graph.NodeID, numInputs)
			for j := range inputs {
				inputs[j] = graph.NodeID(br.u32())
			}
			if br.err != nil {
				break
			}
			op, err := decodeOp(name, attrs)
			if err != nil {
				return nil, err
			}
			b.AddOp(op, inputs...)
		default:
			return nil, fmt.Errorf("unknown record kind %d", kind)
		}
	}

	b.inputOrder, b.inputs = br.nameTable()
	b.outputOrder, b.outputs = br.nameTable()
	if br.err != nil {
		return nil, fmt.Errorf("reading model: %w", br.err)
	}

	m := b.Finish()
	log.V(2).Info("loaded model", "nodes", m.graph.NumNodes(), "inputs", m.inputOrder, "outputs", m.outputOrder)
	return m, nil
}

// LoadFile reads a model from the file at path.
func LoadFile(ctx context.Context, path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	m, err := Load(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("loading model from %q: %w", path, err)
	}
	return m, nil
}

type binaryWriter struct {
	w   io.Writer
	err error
}

func (bw *binaryWriter) bytes(p []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(p)
}

func (bw *binaryWriter) u8(v uint8) { bw.bytes([]byte{v}) }

func (bw *binaryWriter) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	bw.bytes(buf[:])
}

func (bw *binaryWriter) i64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	bw.bytes(buf[:])
}

func (bw *binaryWriter) str(s string) {
	bw.u32(uint32(len(s)))
	bw.bytes([]byte(s))
}

func (bw *binaryWriter) constant(value ops.Value) {
	switch t := value.(type) {
	case *tensor.Tensor[float32]:
		bw.u8(dtypeFloat)
		bw.shape(t.Shape())
		for _, v := range t.Data() {
			bw.u32(math.Float32bits(v))
		}
	case *tensor.Tensor[int32]:
		bw.u8(dtypeInt32)
		bw.shape(t.Shape())
		for _, v := range t.Data() {
			bw.u32(uint32(v))
		}
	default:
		if bw.err == nil {
			bw.err = fmt.Errorf("cannot serialize constant of type %T", value)
		}
	}
}

func (bw *binaryWriter) shape(shape []int) {
	bw.u32(uint32(len(shape)))
	for _, d := range shape {
		bw.u32(uint32(d))
	}
}

func (bw *binaryWriter) attrs(attrs attrMap) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	bw.u32(uint32(len(names)))
	for _, name := range names {
		attr := attrs[name]
		bw.str(name)
		bw.u8(attr.kind)
		switch attr.kind {
		case attrInt:
			bw.i64(attr.i)
		case attrFloat:
			bw.u32(math.Float32bits(attr.f))
		case attrInts:
			bw.u32(uint32(len(attr.ints)))
			for _, v := range attr.ints {
				bw.i64(v)
			}
		case attrBool:
			if attr.b {
				bw.u8(1)
			} else {
				bw.u8(0)
			}
		}
	}
}

func (bw *binaryWriter) nameTable(order []string, ids map[string]graph.NodeID) {
	bw.u32(uint32(len(order)))
	for _, name := range order {
		bw.str(name)
		bw.u32(uint32(ids[name]))
	}
}

type binaryReader struct {
	r   io.Reader
	err error
}

// maxLength bounds variable-length fields so a corrupt file fails with an
// error instead of a huge allocation.
const maxLength = 1 << 30

func (br *binaryReader) bytes(p []byte) {
	if br.err != nil {
		return
	}
	_, br.err = io.ReadFull(br.r, p)
}

func (br *binaryReader) u8() uint8 {
	var buf [1]byte
	br.bytes(buf[:])
	return buf[0]
}

func (br *binaryReader) u32() uint32 {
	var buf [4]byte
	br.bytes(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func (br *binaryReader) i64() int64 {
	var buf [8]byte
	br.bytes(buf[:])
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

func (br *binaryReader) length() int {
	n := br.u32()
	if br.err == nil && n > maxLength {
		br.err = fmt.Errorf("corrupt model: implausible length %d", n)
	}
	return int(n)
}

func (br *binaryReader) str() string {
	n := br.length()
	if br.err != nil {
		return ""
	}
	buf := make([]byte, n)
	br.bytes(buf)
	return string(buf)
}

func (br *binaryReader) constant() (ops.Value, error) {
	dtype := br.u8()
	shape := br.shape()
	if br.err != nil {
		return nil, br.err
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	switch dtype {
	case dtypeFloat:
		data := make([]float32, n)
		for i := range data {
			data[i] = math.Float32frombits(br.u32())
		}
		if br.err != nil {
			return nil, br.err
		}
		return tensor.FromData(shape, data), nil
	case dtypeInt32:
		data := make([]int32, n)
		for i := range data {
			data[i] = int32(br.u32())
		}
		if br.err != nil {
			return nil, br.err
		}
		return tensor.FromData(shape, data), nil
	default:
		return nil, fmt.Errorf("unknown constant dtype %d", dtype)
	}
}

func (br *binaryReader) shape() []int {
	ndim := br.length()
	if br.err != nil {
		return nil
	}
	shape := make([]int, ndim)
	for i := range shape {
		shape[i] = int(br.u32())
	}
	return shape
}

func (br *binaryReader) attrs() attrMap {
	attrs := make(attrMap)
	count := br.length()
	for i := 0; i < count && br.err == nil; i++ {
		name := br.str()
		kind := br.u8()
		attr := attrValue{kind: kind}
		switch kind {
		case attrInt:
			attr.i = br.i64()
		case attrFloat:
			attr.f = math.Float32frombits(br.u32())
		case attrInts:
			n := br.length()
			if br.err != nil {
				return attrs
			}
			attr.ints = make([]int64, n)
			for j := range attr.ints {
				attr.ints[j] = br.i64()
			}
		case attrBool:
			attr.b = br.u8() != 0
		default:
			br.err = fmt.Errorf("unknown attribute kind %d", kind)
			return attrs
		}
		attrs[name] = attr
	}
	return attrs
}

func (br *binaryReader) nameTable() ([]string, map[string]graph.NodeID) {
	count := br.length()
	order := make([]string, 0, count)
	ids := make(map[string]graph.NodeID, count)
	for i := 0; i < count && br.err == nil; i++ {
		name := br.str()
		id := graph.NodeID(br.u32())
		order = append(order, name)
		ids[name] = id
	}
	return order, ids
}
