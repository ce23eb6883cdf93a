package core

import (
	"context"
	"log"
)

// defaultMaxTransitions bounds a flow whose successor graph never reaches a
// dead end, independently of any step limit enforced by the nodes.
const defaultMaxTransitions = 200

// Flow follows action edges from a start workflow until no successor matches.
// Edges registered on the running workflow win over edges on the flow itself.
type Flow[State any] struct {
	start          Workflow[State]
	next           successors[State]
	maxTransitions int
}

// NewFlow creates a Flow starting at start.
func NewFlow[State any](start Workflow[State]) *Flow[State] {
	return &Flow[State]{
		start:          start,
		next:           make(successors[State]),
		maxTransitions: defaultMaxTransitions,
	}
}

// WithMaxIterations overrides the transition cap. The stage tool loop takes
// two transitions per step, so its cap grows with the step limit.
func (f *Flow[State]) WithMaxIterations(n int) *Flow[State] {
	if n > 0 {
		f.maxTransitions = n
	}
	return f
}

// Run implements Workflow. It returns the last action taken, or
// ActionFailure when the flow is empty, cancelled or over its cap.
func (f *Flow[State]) Run(ctx context.Context, state *State) Action {
	if f.start == nil {
		log.Println("[Flow] Warning: no start node")
		return ActionFailure
	}

	action := ActionSuccess
	steps := 0
	for current := f.start; current != nil; current = f.route(current, action) {
		if steps == f.maxTransitions {
			log.Printf("[Flow] Warning: stopped after %d transitions", f.maxTransitions)
			return ActionFailure
		}
		if err := ctx.Err(); err != nil {
			log.Printf("[Flow] Cancelled: %v", err)
			return ActionFailure
		}
		action = current.Run(ctx, state)
		steps++
	}
	return action
}

func (f *Flow[State]) route(current Workflow[State], action Action) Workflow[State] {
	if next := current.GetSuccessor(action); next != nil {
		return next
	}
	return f.next[action]
}

func (f *Flow[State]) AddSuccessor(successor Workflow[State], action ...Action) Workflow[State] {
	return f.next.add(successor, action)
}

func (f *Flow[State]) GetSuccessor(action Action) Workflow[State] {
	return f.next[action]
}
