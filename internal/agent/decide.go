package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/skillbridge/skillbridge/internal/core"
	"github.com/skillbridge/skillbridge/internal/llm"
)

// DecideNode implements BaseNode[StageState, DecidePrep, Decision].
// It asks the model for the next action: call tools, or end the turn.
type DecideNode struct {
	llmProvider llm.LLMProvider
	detector    LoopDetector
}

func NewDecideNode(provider llm.LLMProvider) *DecideNode {
	return &DecideNode{llmProvider: provider}
}

// Prep builds the conversation for the next model call.
func (n *DecideNode) Prep(state *StageState) []DecidePrep {
	if state.Err != nil {
		return nil
	}

	system := state.SystemPrompt
	if det := n.detector.Check(state.StepHistory); det.Detected {
		log.Printf("[Decide] %s: loop warning (%s): %s", state.Stage, det.Rule, det.Description)
		system += "\n\n" + loopWarning(det)
	}

	prep := DecidePrep{
		UseFC:     state.UseFC,
		StepCount: len(state.StepHistory),
	}
	if state.UseFC {
		prep.Messages = make([]llm.Message, 0, len(state.Messages)+2)
		prep.Messages = append(prep.Messages,
			llm.Message{Role: llm.RoleSystem, Content: system},
			llm.Message{Role: llm.RoleUser, Content: state.Input},
		)
		prep.Messages = append(prep.Messages, state.Messages...)
		prep.ToolDefinitions = state.ToolRegistry.GenerateToolDefinitions()
		return []DecidePrep{prep}
	}

	prep.Messages = []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: buildDecidePrompt(state)},
	}
	return []DecidePrep{prep}
}

// Exec calls the model to decide the next action.
func (n *DecideNode) Exec(ctx context.Context, prep DecidePrep) (Decision, error) {
	if prep.UseFC {
		return n.execFC(ctx, prep)
	}

	resp, err := n.llmProvider.CallLLM(ctx, prep.Messages)
	if err != nil {
		return Decision{}, fmt.Errorf("decide LLM call failed: %w", err)
	}

	decision, err := parseDecision(resp.Content)
	if err != nil {
		// Natural language instead of YAML is taken as the end of the turn.
		content := strings.TrimSpace(resp.Content)
		if content != "" && !strings.HasPrefix(content, "```") {
			log.Printf("[Decide] YAML parse failed, treating as direct answer: %s", truncate(content, 80))
			return Decision{Action: "answer", Answer: content}, nil
		}
		return Decision{}, fmt.Errorf("parse decision failed: %w", err)
	}
	return decision, nil
}

func (n *DecideNode) execFC(ctx context.Context, prep DecidePrep) (Decision, error) {
	resp, err := n.llmProvider.CallLLMWithTools(ctx, prep.Messages, prep.ToolDefinitions)
	if err != nil {
		return Decision{}, fmt.Errorf("decide LLM call failed: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		return Decision{
			Action: "answer",
			Answer: strings.TrimSpace(resp.Content),
			Raw:    resp,
		}, nil
	}

	names := make([]string, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		names[i] = tc.Name
	}
	return Decision{
		Action:    "tool",
		Reason:    truncate(strings.TrimSpace(resp.Content), 200),
		ToolName:  strings.Join(names, ","),
		ToolCalls: resp.ToolCalls,
		Raw:       resp,
	}, nil
}

// ExecFallback carries the model error to Post. Model failures end the run.
func (n *DecideNode) ExecFallback(err error) Decision {
	return Decision{Action: "error", Err: err}
}

// Post writes the decision to state and routes to the next node.
func (n *DecideNode) Post(state *StageState, prep []DecidePrep, results ...Decision) core.Action {
	if len(prep) == 0 || len(results) == 0 {
		return core.ActionEnd
	}

	decision := results[0]
	if decision.Err != nil {
		state.Err = decision.Err
		log.Printf("[Decide] %s: %v", state.Stage, decision.Err)
		return core.ActionEnd
	}

	state.LastDecision = &decision

	step := StepRecord{
		StepNumber: len(state.StepHistory) + 1,
		Type:       "decide",
		Action:     decision.Action,
		Input:      decision.Reason,
		ToolName:   decision.ToolName,
	}
	state.StepHistory = append(state.StepHistory, step)
	if state.OnStepComplete != nil {
		state.OnStepComplete(step)
	}

	log.Printf("[Decide] %s step %d: action=%s tool=%s", state.Stage, step.StepNumber, decision.Action, decision.ToolName)

	if decision.Action == "tool" && len(state.StepHistory) >= state.MaxSteps {
		log.Printf("[Decide] %s: max steps reached (%d), forcing the turn to end", state.Stage, state.MaxSteps)
		return core.ActionAnswer
	}

	switch decision.Action {
	case "tool":
		if state.UseFC {
			state.Messages = append(state.Messages, decision.Raw)
		}
		return core.ActionTool
	case "answer":
		return core.ActionAnswer
	default:
		log.Printf("[Decide] Unknown action %q, defaulting to answer", decision.Action)
		return core.ActionAnswer
	}
}

// ── YAML prompt ──

func buildDecidePrompt(state *StageState) string {
	var sb strings.Builder

	sb.WriteString("Task:\n")
	sb.WriteString(state.Input)
	sb.WriteString("\n\n")
	sb.WriteString(state.ToolRegistry.GenerateToolsPrompt())
	sb.WriteString("\n")

	if summary := buildStepSummary(state.StepHistory); summary != "" {
		sb.WriteString("Completed steps:\n")
		sb.WriteString(summary)
		sb.WriteString("\n")
	}

	remaining := state.MaxSteps - len(state.StepHistory)
	if remaining <= 3 && len(state.StepHistory) > 0 {
		fmt.Fprintf(&sb, "⚠️ Step budget remaining: %d. Finish with an answer soon.\n\n", remaining)
	}

	sb.WriteString(`Reply with your decision in YAML:
` + "```yaml" + `
action: "tool"            # or "answer"
reason: "why"
tool_name: "tool name"    # required when action=tool
tool_params:              # required when action=tool
  key: "value"
answer: |                 # when action=answer
  short note on what you stored
` + "```")
	return sb.String()
}

// recentWindowSize is the number of recent tool steps kept with full output.
// Older tool steps are compressed to a one-line summary.
const recentWindowSize = 3

func buildStepSummary(steps []StepRecord) string {
	if len(steps) == 0 {
		return ""
	}

	toolCount := 0
	for _, s := range steps {
		if s.Type == "tool" {
			toolCount++
		}
	}
	fullOutputThreshold := toolCount - recentWindowSize

	var sb strings.Builder
	toolIdx := 0
	for _, s := range steps {
		switch s.Type {
		case "decide":
			fmt.Fprintf(&sb, "  step %d [decide]: %s -> %s\n", s.StepNumber, s.Action, s.Input)
		case "tool":
			if toolIdx >= fullOutputThreshold {
				fmt.Fprintf(&sb, "  step %d [tool %s]: %s\n", s.StepNumber, s.ToolName, truncate(s.Output, 8000))
			} else {
				fmt.Fprintf(&sb, "  step %d [tool %s]: ran (%s), %d bytes of output\n", s.StepNumber, s.ToolName, truncate(s.Input, 80), len(s.Output))
			}
			toolIdx++
		}
	}
	return sb.String()
}
