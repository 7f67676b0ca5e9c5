// Package model builds, saves and loads serialized graph models: the
// operators, constants and named inputs/outputs that make up a network,
// in a compact binary container.
package model

import (
	"context"
	"fmt"

	"github.com/loomml/loom/pkg/graph"
	"github.com/loomml/loom/pkg/ops"
)

// Model is an executable graph together with the metadata mapping
// human-readable input and output names to node IDs.
type Model struct {
	graph   *graph.Graph
	inputs  map[string]graph.NodeID
	outputs map[string]graph.NodeID

	inputOrder  []string
	outputOrder []string
}

// Graph returns the model's underlying graph.
func (m *Model) Graph() *graph.Graph {
	return m.graph
}

// InputNames returns the model's input names in declaration order.
func (m *Model) InputNames() []string {
	return append([]string(nil), m.inputOrder...)
}

// OutputNames returns the model's output names in declaration order.
func (m *Model) OutputNames() []string {
	return append([]string(nil), m.outputOrder...)
}

// InputID resolves an input name to its node ID.
func (m *Model) InputID(name string) (graph.NodeID, bool) {
	id, ok := m.inputs[name]
	return id, ok
}

// OutputID resolves an output name to its node ID.
func (m *Model) OutputID(name string) (graph.NodeID, bool) {
	id, ok := m.outputs[name]
	return id, ok
}

// Run executes the model with inputs bound by name and returns the named
// outputs, in the order given.
func (m *Model) Run(ctx context.Context, inputs map[string]ops.Value, outputNames []string, opts *graph.RunOptions) ([]ops.Value, error) {
	bindings := make([]graph.Binding, 0, len(inputs))
	for _, name := range m.inputOrder {
		value, ok := inputs[name]
		if !ok {
			continue
		}
		bindings = append(bindings, graph.Binding{ID: m.inputs[name], Value: value})
	}
	for name := range inputs {
		if _, ok := m.inputs[name]; !ok {
			return nil, fmt.Errorf("model has no input named %q", name)
		}
	}

	outputIDs := make([]graph.NodeID, len(outputNames))
	for i, name := range outputNames {
		id, ok := m.outputs[name]
		if !ok {
			return nil, fmt.Errorf("model has no output named %q", name)
		}
		outputIDs[i] = id
	}

	return m.graph.Run(ctx, bindings, outputIDs, opts)
}

// recordKind tags one graph construction step in a model file.
type recordKind uint8

const (
	recordValue recordKind = iota
	recordConstant
	recordOperator
)

type record struct {
	kind recordKind

	// constant
	value ops.Value

	// operator
	op     ops.Operator
	inputs []graph.NodeID
}

// Builder constructs a Model incrementally, mirroring the graph
// construction API while recording enough to serialize the result.
type Builder struct {
	graph   *graph.Graph
	records []record

	inputs      map[string]graph.NodeID
	outputs     map[string]graph.NodeID
	inputOrder  []string
	outputOrder []string
}

// NewBuilder creates an empty model builder.
func NewBuilder() *Builder {
	return &Builder{
		graph:   graph.New(),
		inputs:  make(map[string]graph.NodeID),
		outputs: make(map[string]graph.NodeID),
	}
}

// AddValue adds an anonymous placeholder value node.
func (b *Builder) AddValue() graph.NodeID {
	b.records = append(b.records, record{kind: recordValue})
	return b.graph.AddValue()
}

// AddInput adds a named graph input and returns its node ID.
func (b *Builder) AddInput(name string) graph.NodeID {
	id := b.AddValue()
	if _, exists := b.inputs[name]; !exists {
		b.inputOrder = append(b.inputOrder, name)
	}
	b.inputs[name] = id
	return id
}

// AddConstant adds an immutable tensor and returns its node ID.
func (b *Builder) AddConstant(value ops.Value) graph.NodeID {
	b.records = append(b.records, record{kind: recordConstant, value: value})
	return b.graph.AddConstant(value)
}

// AddOp adds an operator node and returns the ID of its output. The
// operator must be a registered kind for the model to serialize.
func (b *Builder) AddOp(op ops.Operator, inputs ...graph.NodeID) graph.NodeID {
	b.records = append(b.records, record{kind: recordOperator, op: op, inputs: append([]graph.NodeID(nil), inputs...)})
	return b.graph.AddOp(op, inputs...)
}

// MarkOutput names a node as a model output.
func (b *Builder) MarkOutput(name string, id graph.NodeID) {
	if _, exists := b.outputs[name]; !exists {
		b.outputOrder = append(b.outputOrder, name)
	}
	b.outputs[name] = id
}

// Finish returns the built model. The builder must not be used afterwards.
func (b *Builder) Finish() *Model {
	return &Model{
		graph:       b.graph,
		inputs:      b.inputs,
		outputs:     b.outputs,
		inputOrder:  b.inputOrder,
		outputOrder: b.outputOrder,
	}
}
