package graph

import "fmt"

// planStep is one entry in an execution plan: an operator node and the ID
// of the value node it produces.
type planStep struct {
	id   NodeID
	node *operatorNode
}

// planner builds an execution plan via a depth-first traversal of the
// graph starting at the requested output nodes.
type planner struct {
	// resolved holds every node ID whose value is available: bound
	// inputs, constants, and outputs of operators already in the plan.
	resolved map[NodeID]bool

	// producers maps an operator's output ID to the operator node.
	producers map[NodeID]*operatorNode

	// visiting holds the node IDs on the current traversal stack, to
	// detect dependency cycles.
	visiting map[NodeID]bool

	plan []planStep
}

// createPlan returns a sequence of operator invocations which, executed in
// order, computes every node in outputs from the bound inputs and the
// graph's constants. Output IDs that name a bound input or a constant need
// no computation and contribute no steps.
func (g *Graph) createPlan(inputs []Binding, outputs []NodeID) ([]planStep, error) {
	p := &planner{
		resolved:  make(map[NodeID]bool),
		producers: make(map[NodeID]*operatorNode),
		visiting:  make(map[NodeID]bool),
	}

	for _, binding := range inputs {
		p.resolved[binding.ID] = true
	}
	for id, n := range g.nodes {
		switch n := n.(type) {
		case *constantNode:
			p.resolved[NodeID(id)] = true
		case *operatorNode:
			p.producers[n.output] = n
		}
	}

	for _, outputID := range outputs {
		if p.resolved[outputID] {
			continue
		}
		opNode, ok := p.producers[outputID]
		if !ok {
			return nil, fmt.Errorf("cannot create execution plan: no value for requested output node %d", outputID)
		}
		if err := p.visit(outputID, opNode); err != nil {
			return nil, fmt.Errorf("cannot create execution plan: %w", err)
		}
	}

	return p.plan, nil
}

// visit schedules every unresolved dependency of opNode, then opNode
// itself. The resolved set ensures an operator reachable through multiple
// paths (a diamond dependency) is scheduled exactly once.
func (p *planner) visit(id NodeID, opNode *operatorNode) error {
	if p.visiting[id] {
		return fmt.Errorf("dependency cycle involving node %d", id)
	}
	p.visiting[id] = true
	defer delete(p.visiting, id)

	for _, input := range opNode.inputs {
		if p.resolved[input] {
			continue
		}
		inputOp, ok := p.producers[input]
		if !ok {
			return fmt.Errorf("no value for node %d, needed as input by operator %q producing node %d", input, opNode.op.Name(), id)
		}
		if err := p.visit(input, inputOp); err != nil {
			return err
		}
	}
	p.resolved[id] = true
	p.plan = append(p.plan, planStep{id: id, node: opNode})
	return nil
}
