package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/skillbridge/skillbridge/internal/core"
)

// AnswerNodeImpl implements BaseNode[StageState, AnswerPrep, AnswerResult].
// It closes the turn with the model's final text.
type AnswerNodeImpl struct{}

// AnswerPrep carries the decision that ended the turn.
type AnswerPrep struct {
	Answer string
	Forced bool // the step cap ended the turn
	Steps  int
}

// AnswerResult is the reply of the turn.
type AnswerResult struct {
	Answer string
}

func NewAnswerNode() *AnswerNodeImpl {
	return &AnswerNodeImpl{}
}

func (n *AnswerNodeImpl) Prep(state *StageState) []AnswerPrep {
	prep := AnswerPrep{Steps: len(state.StepHistory)}
	if d := state.LastDecision; d != nil {
		prep.Answer = d.Answer
		prep.Forced = d.Action == "tool"
	}
	return []AnswerPrep{prep}
}

func (n *AnswerNodeImpl) Exec(_ context.Context, prep AnswerPrep) (AnswerResult, error) {
	if prep.Forced {
		return AnswerResult{Answer: fmt.Sprintf("Stopped after %d steps.", prep.Steps)}, nil
	}
	return AnswerResult{Answer: prep.Answer}, nil
}

func (n *AnswerNodeImpl) ExecFallback(err error) AnswerResult {
	return AnswerResult{Answer: fmt.Sprintf("Turn ended with an error: %v", err)}
}

// Post stores the reply; the flow ends here.
func (n *AnswerNodeImpl) Post(state *StageState, prep []AnswerPrep, results ...AnswerResult) core.Action {
	if len(results) > 0 {
		state.Reply = results[0].Answer
	}
	step := StepRecord{
		StepNumber: len(state.StepHistory) + 1,
		Type:       "answer",
		Output:     state.Reply,
	}
	state.StepHistory = append(state.StepHistory, step)
	if state.OnStepComplete != nil {
		state.OnStepComplete(step)
	}
	log.Printf("[Answer] %s: %s", state.Stage, truncate(state.Reply, 120))
	return core.ActionEnd
}
