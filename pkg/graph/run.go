package graph

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/loomml/loom/pkg/ops"
)

// Run computes the requested output values from the bound inputs, using the
// operators and constants in the graph. It returns one value per entry in
// outputs, in the same order.
//
// Input bindings are borrowed for the duration of the call; the graph keeps
// no reference to them afterwards. Run does not mutate the graph, so
// concurrent calls on the same graph are safe. ctx is used for logging
// only; a run is not cancellable once started.
//
// Run either produces every requested output or fails as a whole: planning
// errors (a requested output or a transitive operator input that no
// binding, constant or operator provides) and operator errors are returned,
// with no partial results.
func (g *Graph) Run(ctx context.Context, inputs []Binding, outputs []NodeID, opts *RunOptions) ([]ops.Value, error) {
	log := klog.FromContext(ctx)
	if opts == nil {
		opts = &RunOptions{}
	}

	plan, err := g.createPlan(inputs, outputs)
	if err != nil {
		return nil, err
	}

	// Bound values are borrowed: caller inputs plus the graph's constants.
	bound := make(map[NodeID]ops.Value, len(inputs))
	for _, binding := range inputs {
		bound[binding.ID] = binding.Value
	}
	for id, n := range g.nodes {
		if c, ok := n.(*constantNode); ok {
			bound[NodeID(id)] = c.value
		}
	}

	// remainingUses counts, per node, how many plan steps and requested
	// outputs still need its value. An intermediate whose count reaches
	// zero after serving as an operator's first input may be handed to
	// that operator for in-place execution.
	remainingUses := make(map[NodeID]int)
	for _, step := range plan {
		for _, input := range step.node.inputs {
			remainingUses[input]++
		}
	}
	for _, id := range outputs {
		remainingUses[id]++
	}

	// Intermediate values are owned by this call: operator outputs that
	// are neither bound inputs nor constants.
	intermediate := make(map[NodeID]ops.Value)

	for i, step := range plan {
		opInputs := make([]ops.Value, len(step.node.inputs))
		for j, inputID := range step.node.inputs {
			if v, ok := bound[inputID]; ok {
				opInputs[j] = v
			} else if v, ok := intermediate[inputID]; ok {
				opInputs[j] = v
			} else {
				panic(fmt.Sprintf("invalid plan did not produce input value %d for operator %q (node %d)", inputID, step.node.op.Name(), step.id))
			}
		}
		for _, inputID := range step.node.inputs {
			remainingUses[inputID]--
		}

		start := time.Now()
		output, err := g.runOperator(step, opInputs, intermediate, remainingUses)
		if err != nil {
			return nil, fmt.Errorf("operator %q (node %d): %w", step.node.op.Name(), step.id, err)
		}

		if opts.Timing {
			shapes := make([][]int, len(opInputs))
			for j, input := range opInputs {
				shapes[j] = input.Shape()
			}
			log.Info("operator executed", "step", i, "op", step.node.op.Name(), "inputShapes", shapes, "duration", time.Since(start))
		}

		intermediate[step.node.output] = output
	}

	// Assemble the requested outputs: bound values are cloned so the
	// caller gets an owned tensor, intermediates are moved out (or cloned,
	// if the same node is requested again).
	results := make([]ops.Value, 0, len(outputs))
	for _, id := range outputs {
		if v, ok := bound[id]; ok {
			results = append(results, ops.CloneValue(v))
		} else if v, ok := intermediate[id]; ok {
			remainingUses[id]--
			if remainingUses[id] > 0 {
				results = append(results, ops.CloneValue(v))
				continue
			}
			delete(intermediate, id)
			results = append(results, v)
		} else {
			panic(fmt.Sprintf("requested output %d missing after executing plan", id))
		}
	}
	return results, nil
}

// runOperator invokes one plan step, preferring in-place execution when
// the operator supports it and this call exclusively owns the first input
// with no later use of it.
func (g *Graph) runOperator(step planStep, opInputs []ops.Value, intermediate map[NodeID]ops.Value, remainingUses map[NodeID]int) (ops.Value, error) {
	if inPlace, ok := step.node.op.(ops.InPlaceOperator); ok && len(opInputs) > 0 {
		firstID := step.node.inputs[0]
		aliased := false
		for _, inputID := range step.node.inputs[1:] {
			if inputID == firstID {
				aliased = true
				break
			}
		}
		if _, owned := intermediate[firstID]; owned && !aliased && remainingUses[firstID] == 0 {
			delete(intermediate, firstID)
			return inPlace.RunInPlace(opInputs[0], opInputs[1:])
		}
	}
	return step.node.op.Run(opInputs)
}
