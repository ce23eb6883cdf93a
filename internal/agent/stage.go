// Package agent runs a single stage turn: the model reads its instructions,
// calls session tools through a Decide/Tool loop, and ends the turn with text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/skillbridge/skillbridge/internal/core"
	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/pipeline"
	"github.com/skillbridge/skillbridge/internal/prompt"
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// defaultTask opens the turn of a stage that runs inside the pipeline.
const defaultTask = "Carry out your task now using the shared session state."

// Toolbox builds the full set of tools bound to a session.
type Toolbox func(sess *state.Session) *tool.Registry

// Config declares one stage.
type Config struct {
	Name   string
	Prompt string   // prompt file stem; empty means Name
	Tools  []string // tools the stage may call
	Task   string   // opening message for Run; empty means defaultTask
}

// Deps are the collaborators shared by every stage of a run.
type Deps struct {
	Provider llm.LLMProvider
	Prompts  *prompt.PromptLoader
	Toolbox  Toolbox
	MaxSteps int // 0 = DefaultMaxSteps
	OnStep   func(stage string, step StepRecord)
}

// Agent is a model-driven pipeline.Stage.
type Agent struct {
	cfg  Config
	deps Deps
}

var _ pipeline.Stage = (*Agent)(nil)

// New creates a stage agent.
func New(cfg Config, deps Deps) *Agent {
	if deps.MaxSteps <= 0 {
		deps.MaxSteps = DefaultMaxSteps
	}
	return &Agent{cfg: cfg, deps: deps}
}

func (a *Agent) Name() string { return a.cfg.Name }

// Run implements pipeline.Stage.
func (a *Agent) Run(ctx context.Context, sess *state.Session) (pipeline.Outcome, error) {
	task := a.cfg.Task
	if task == "" {
		task = defaultTask
	}
	return a.Respond(ctx, sess, task)
}

// Respond runs one turn opened by input. Model failures and tool Go errors
// are returned; tool-level failures are fed back to the model.
func (a *Agent) Respond(ctx context.Context, sess *state.Session, input string) (pipeline.Outcome, error) {
	promptName := a.cfg.Prompt
	if promptName == "" {
		promptName = a.cfg.Name
	}
	instructions, err := a.deps.Prompts.LoadStage(promptName)
	if err != nil {
		return pipeline.Outcome{}, err
	}
	if a.deps.Toolbox == nil {
		return pipeline.Outcome{}, errors.New("no toolbox configured")
	}
	reg, err := a.deps.Toolbox(sess).Subset(a.cfg.Tools...)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("tools: %w", err)
	}

	useFC := a.deps.Provider.IsToolCallingEnabled()
	st := &StageState{
		Stage:        a.cfg.Name,
		Input:        input,
		SystemPrompt: buildSystemPrompt(a.deps.Prompts, instructions, useFC),
		Session:      sess,
		ToolRegistry: reg,
		UseFC:        useFC,
		MaxSteps:     a.deps.MaxSteps,
	}
	if a.deps.OnStep != nil {
		name := a.cfg.Name
		st.OnStepComplete = func(step StepRecord) { a.deps.OnStep(name, step) }
	}

	log.Printf("[Stage] ▶ %s (tools: %v)", a.cfg.Name, reg.Names())
	action := BuildStageFlow(a.deps.Provider, a.deps.MaxSteps).Run(ctx, st)

	out := pipeline.Outcome{
		Reply:         st.Reply,
		ToolCalls:     st.toolCalls(),
		ExitSignalled: st.ExitSignalled,
	}
	switch {
	case st.Err != nil:
		return out, st.Err
	case ctx.Err() != nil:
		return out, ctx.Err()
	case action == core.ActionFailure:
		return out, errors.New("turn aborted by the flow transition cap")
	}

	log.Printf("[Stage] ✅ %s (%d tool calls, exit=%v)", a.cfg.Name, len(out.ToolCalls), out.ExitSignalled)
	return out, nil
}
