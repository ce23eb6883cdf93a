package core

import (
	"context"
	"log"
)

// Node runs a BaseNode and routes on the action its Post returns.
// Items are executed one after another, each exactly once.
type Node[State any, Item any, Result any] struct {
	label string
	impl  BaseNode[State, Item, Result]
	next  successors[State]
}

// NewNode wraps impl. label only appears in log lines.
func NewNode[State any, Item any, Result any](label string, impl BaseNode[State, Item, Result]) *Node[State, Item, Result] {
	return &Node[State, Item, Result]{
		label: label,
		impl:  impl,
		next:  make(successors[State]),
	}
}

// Run implements Workflow. Once ctx is cancelled the remaining items skip
// Exec and go straight to ExecFallback with the context error.
func (n *Node[State, Item, Result]) Run(ctx context.Context, state *State) Action {
	items := n.impl.Prep(state)
	if len(items) == 0 {
		return n.impl.Post(state, items)
	}

	results := make([]Result, len(items))
	for i, item := range items {
		results[i] = n.exec(ctx, item)
	}
	return n.impl.Post(state, items, results...)
}

func (n *Node[State, Item, Result]) exec(ctx context.Context, item Item) Result {
	if err := ctx.Err(); err != nil {
		return n.impl.ExecFallback(err)
	}
	res, err := n.impl.Exec(ctx, item)
	if err != nil {
		log.Printf("[Node] %s: exec failed: %v", n.label, err)
		return n.impl.ExecFallback(err)
	}
	return res
}

func (n *Node[State, Item, Result]) AddSuccessor(successor Workflow[State], action ...Action) Workflow[State] {
	return n.next.add(successor, action)
}

func (n *Node[State, Item, Result]) GetSuccessor(action Action) Workflow[State] {
	return n.next[action]
}
