package core

import (
	"context"
	"log"
)

// Sequence runs its children one after another on the same state. A child
// returning ActionFailure stops the sequence. Unlike chaining nodes with
// successors, children keep no routing of their own, so a Flow or Loop can
// appear as a child without its successors leaking into the parent.
type Sequence[State any] struct {
	children []Workflow[State]
	next     successors[State]
}

// NewSequence creates a Sequence over children.
func NewSequence[State any](children ...Workflow[State]) *Sequence[State] {
	return &Sequence[State]{
		children: children,
		next:     make(successors[State]),
	}
}

// Run implements Workflow.Run. It returns ActionSuccess when every child
// finished and ActionFailure otherwise.
func (s *Sequence[State]) Run(ctx context.Context, state *State) Action {
	for _, child := range s.children {
		if ctx.Err() != nil {
			log.Printf("[Sequence] Context cancelled: %v", ctx.Err())
			return ActionFailure
		}
		if child.Run(ctx, state) == ActionFailure {
			return ActionFailure
		}
	}
	return ActionSuccess
}

func (s *Sequence[State]) AddSuccessor(successor Workflow[State], action ...Action) Workflow[State] {
	return s.next.add(successor, action)
}

func (s *Sequence[State]) GetSuccessor(action Action) Workflow[State] {
	return s.next[action]
}
