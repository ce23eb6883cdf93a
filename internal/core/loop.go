package core

import (
	"context"
	"log"
)

// ExitCheck reports whether the pass that just finished raised an exit
// signal. It is called once per complete pass and should reset the signal so
// the next pass starts clean.
type ExitCheck[State any] func(state *State) bool

// PassHook observes the end of each pass.
type PassHook[State any] func(state *State, pass int, exited bool)

// Loop repeats body up to maxIterations complete passes. The exit check runs
// only between passes, so a signal raised mid-pass never cuts the pass short.
// Reaching the cap without a signal is a normal finish: the last pass's
// writes stand and no failure is reported.
type Loop[State any] struct {
	body          Workflow[State]
	maxIterations int
	shouldExit    ExitCheck[State]
	afterPass     PassHook[State]
	next          successors[State]
}

// NewLoop creates a Loop. maxIterations below 1 is clamped to 1.
func NewLoop[State any](body Workflow[State], maxIterations int, shouldExit ExitCheck[State]) *Loop[State] {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Loop[State]{
		body:          body,
		maxIterations: maxIterations,
		shouldExit:    shouldExit,
		next:          make(successors[State]),
	}
}

// OnPass registers a hook called after every complete pass.
func (l *Loop[State]) OnPass(hook PassHook[State]) *Loop[State] {
	l.afterPass = hook
	return l
}

// MaxIterations returns the pass cap.
func (l *Loop[State]) MaxIterations() int {
	return l.maxIterations
}

// Run implements Workflow.Run. A body failure ends the loop with
// ActionFailure; otherwise the loop returns ActionSuccess.
func (l *Loop[State]) Run(ctx context.Context, state *State) Action {
	if l.body == nil {
		log.Println("[Loop] Warning: started with no body")
		return ActionFailure
	}

	for pass := 1; pass <= l.maxIterations; pass++ {
		if ctx.Err() != nil {
			log.Printf("[Loop] Context cancelled: %v", ctx.Err())
			return ActionFailure
		}
		if l.body.Run(ctx, state) == ActionFailure {
			return ActionFailure
		}

		exited := l.shouldExit != nil && l.shouldExit(state)
		if l.afterPass != nil {
			l.afterPass(state, pass, exited)
		}
		if exited {
			return ActionSuccess
		}
	}
	return ActionSuccess
}

func (l *Loop[State]) AddSuccessor(successor Workflow[State], action ...Action) Workflow[State] {
	return l.next.add(successor, action)
}

func (l *Loop[State]) GetSuccessor(action Action) Workflow[State] {
	return l.next[action]
}
