// Package graph implements the dataflow graph execution engine: node
// storage, dependency-resolving plan construction and the executor that
// drives operators over tensor values.
package graph

import (
	"github.com/loomml/loom/pkg/ops"
)

// NodeID identifies a node in a Graph. IDs are stable for the lifetime of
// the graph and are never reused.
type NodeID int

type node interface {
	isNode()
}

// operatorNode is a computation step: an operator plus the IDs of the nodes
// supplying its inputs, in positional argument order, and the ID of the
// value node holding its output.
type operatorNode struct {
	op     ops.Operator
	inputs []NodeID
	output NodeID
}

// constantNode holds an immutable tensor such as weights or biases.
type constantNode struct {
	value ops.Value
}

// valueNode is a placeholder for a value that only exists at run time,
// such as a graph input or an operator output.
type valueNode struct{}

func (*operatorNode) isNode() {}
func (*constantNode) isNode() {}
func (*valueNode) isNode()    {}

// Graph is a static dataflow graph of operators and constants. Graphs are
// built once via the Add methods and may then be executed concurrently and
// repeatedly with Run; there is no node removal or mutation.
type Graph struct {
	nodes []node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

func (g *Graph) add(n node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// AddValue adds a placeholder value node and returns its ID. Value nodes
// serve as graph inputs and as operator output slots.
func (g *Graph) AddValue() NodeID {
	return g.add(&valueNode{})
}

// AddConstant adds an immutable tensor node and returns its ID.
func (g *Graph) AddConstant(value ops.Value) NodeID {
	return g.add(&constantNode{value: value})
}

// AddOp adds an operator node whose inputs are the given nodes, in
// positional order. Inputs may reference nodes that have not been added
// yet; they are validated when a plan is created, not here.
//
// Returns the ID of the operator's output node.
func (g *Graph) AddOp(op ops.Operator, inputs ...NodeID) NodeID {
	output := g.AddValue()
	g.add(&operatorNode{
		op:     op,
		inputs: append([]NodeID(nil), inputs...),
		output: output,
	})
	return output
}

// NumNodes returns the number of nodes added to the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Binding associates a graph input node with the tensor to use for it
// during a run. The value is borrowed for the duration of the call only.
type Binding struct {
	ID    NodeID
	Value ops.Value
}

// RunOptions configures a single Run call.
type RunOptions struct {
	// Timing logs each operator's plan position, name, input shapes and
	// elapsed time as the graph executes. It never changes results.
	Timing bool
}
