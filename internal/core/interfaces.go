// Package core is the small graph engine under both the stage tool loop and
// the outer pipeline. A node prepares work items from a shared state, runs
// each item, then folds the results back into the state and names the next
// action; flows, sequences and loops route between nodes by that action.
package core

import "context"

// BaseNode is the three-phase contract a node implements.
//
// State is the shared value threaded through the graph (a stage turn or a
// pipeline run). Item is one unit of work produced by Prep; Result is what
// Exec produced for it.
type BaseNode[State any, Item any, Result any] interface {
	// Prep reads the state and returns the items to execute. It may return
	// none, in which case Post is called with no results.
	Prep(state *State) []Item

	// Exec handles one item. It must not touch the state.
	Exec(ctx context.Context, item Item) (Result, error)

	// Post writes results into the state and returns the routing action.
	Post(state *State, items []Item, results ...Result) Action

	// ExecFallback turns an Exec error (or a cancellation seen before Exec
	// ran) into a result Post can handle.
	ExecFallback(err error) Result
}

// Workflow is anything that can run against a state and be wired to
// successors: nodes, flows, sequences and loops.
type Workflow[State any] interface {
	Run(ctx context.Context, state *State) Action
	GetSuccessor(action Action) Workflow[State]
	// AddSuccessor wires successor for action (ActionDefault when omitted)
	// and returns successor so calls can be chained.
	AddSuccessor(successor Workflow[State], action ...Action) Workflow[State]
}
