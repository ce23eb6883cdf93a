// Package pipeline composes stages into a Sequential / Loop / Leaf topology
// and runs them against one shared session.
package pipeline

import (
	"context"

	"github.com/skillbridge/skillbridge/internal/state"
)

// Outcome is what a stage reports after its turn.
type Outcome struct {
	Reply         string   // final text of the stage's turn
	ToolCalls     []string // tool names in call order
	ExitSignalled bool     // exit_loop was invoked during the turn
}

// Stage is a unit of delegated work. How it decides which tools to call is
// its own business; the pipeline only guarantees that stages run one at a
// time on the same session and that a stage's writes are visible to the next.
type Stage interface {
	Name() string
	Run(ctx context.Context, sess *state.Session) (Outcome, error)
}

// StageFunc adapts a function to Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, sess *state.Session) (Outcome, error)
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Run(ctx context.Context, sess *state.Session) (Outcome, error) {
	return s.Fn(ctx, sess)
}
