package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/skillbridge/skillbridge/internal/core"
	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// ToolNodeImpl implements BaseNode[StageState, ToolPrep, ToolExecResult].
// It executes every tool call of the last decision, in order.
type ToolNodeImpl struct{}

func NewToolNode() *ToolNodeImpl {
	return &ToolNodeImpl{}
}

// Prep resolves the requested tools against the stage's registry. A tool
// outside the stage's declared set resolves to nil.
func (n *ToolNodeImpl) Prep(state *StageState) []ToolPrep {
	d := state.LastDecision
	if d == nil {
		return nil
	}

	if len(d.ToolCalls) > 0 {
		preps := make([]ToolPrep, 0, len(d.ToolCalls))
		for _, tc := range d.ToolCalls {
			args := []byte(tc.Arguments)
			if len(args) == 0 {
				args = []byte("{}")
			}
			preps = append(preps, ToolPrep{
				ToolName:     tc.Name,
				Args:         args,
				ToolCallID:   tc.ID,
				ResolvedTool: resolve(state.ToolRegistry, tc.Name),
			})
		}
		return preps
	}

	argsJSON, err := json.Marshal(d.ToolParams)
	if err != nil || d.ToolParams == nil {
		if err != nil {
			log.Printf("[ToolNode] Failed to marshal tool params: %v", err)
		}
		argsJSON = []byte("{}")
	}
	return []ToolPrep{{
		ToolName:     d.ToolName,
		Args:         argsJSON,
		ResolvedTool: resolve(state.ToolRegistry, d.ToolName),
	}}
}

func resolve(reg *tool.Registry, name string) tool.Tool {
	if reg == nil {
		return nil
	}
	t, _ := reg.Get(name)
	return t
}

// Exec executes the pre-resolved tool carried in ToolPrep.
func (n *ToolNodeImpl) Exec(ctx context.Context, prep ToolPrep) (ToolExecResult, error) {
	res := ToolExecResult{ToolName: prep.ToolName, ToolCallID: prep.ToolCallID}
	if prep.ResolvedTool == nil {
		res.Error = fmt.Sprintf("tool %q is not available to this stage", prep.ToolName)
		return res, nil
	}

	result, err := prep.ResolvedTool.Execute(ctx, json.RawMessage(prep.Args))
	if err != nil {
		// Go errors from tools are not domain failures; they end the run.
		res.Fatal = fmt.Errorf("tool %s: %w", prep.ToolName, err)
		return res, nil
	}

	res.Output = result.Output
	res.Error = result.Error
	res.ExitLoop = result.ExitLoop
	return res, nil
}

// ExecFallback only sees cancellation: Exec itself never returns an error.
func (n *ToolNodeImpl) ExecFallback(err error) ToolExecResult {
	return ToolExecResult{Fatal: err}
}

// Post records the tool results and routes back to DecideNode.
func (n *ToolNodeImpl) Post(state *StageState, prep []ToolPrep, results ...ToolExecResult) core.Action {
	if len(results) == 0 || len(prep) == 0 {
		return core.ActionDefault
	}

	for i, result := range results {
		p := prep[i]
		if result.Fatal != nil {
			state.Err = result.Fatal
			log.Printf("[ToolNode] %s: %v", state.Stage, result.Fatal)
			return core.ActionEnd
		}

		// Merge output and error; preserve partial output when tools fail.
		output := result.Output
		if result.Error != "" {
			if output != "" {
				output = fmt.Sprintf("%s\n\nError: %s", output, result.Error)
			} else {
				output = fmt.Sprintf("Error: %s", result.Error)
			}
		}
		if result.ExitLoop {
			state.ExitSignalled = true
		}

		step := StepRecord{
			StepNumber: len(state.StepHistory) + 1,
			Type:       "tool",
			ToolName:   p.ToolName,
			Input:      string(p.Args),
			Output:     output,
			ToolCallID: p.ToolCallID,
			IsError:    result.Error != "",
		}
		state.StepHistory = append(state.StepHistory, step)
		if state.OnStepComplete != nil {
			state.OnStepComplete(step)
		}

		if state.UseFC {
			state.Messages = append(state.Messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       p.ToolName,
				ToolCallID: p.ToolCallID,
				Content:    output,
				IsError:    step.IsError,
			})
		}

		log.Printf("[ToolNode] %s executed %s: %s", state.Stage, p.ToolName, truncate(output, 100))
	}

	return core.ActionDefault
}
