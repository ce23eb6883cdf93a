package career

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/skillbridge/skillbridge/internal/agent"
	"github.com/skillbridge/skillbridge/internal/journal"
	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/metrics"
	"github.com/skillbridge/skillbridge/internal/pipeline"
	"github.com/skillbridge/skillbridge/internal/prompt"
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
	"github.com/skillbridge/skillbridge/internal/tool/builtin"
)

// DefaultWritingLoopMax caps the draft/critique loop of the built-in topology.
const DefaultWritingLoopMax = 4

// RunRecorder stores run summaries; *journal.Journal satisfies it.
type RunRecorder interface {
	Record(ctx context.Context, run journal.Run) error
}

// Options configure a Coordinator.
type Options struct {
	Provider   llm.LLMProvider
	Prompts    *prompt.PromptLoader // nil = embedded prompts only
	Tools      builtin.Options
	Spec       pipeline.Spec // zero value = DefaultSpec(DefaultWritingLoopMax)
	MaxSteps   int           // per stage turn; 0 = agent.DefaultMaxSteps
	Metrics    *metrics.Recorder
	Journal    RunRecorder
	Transcript *agent.ExecLogger
	NewRunID   func() string // nil = uuid
}

// Result is what a run produced.
type Result struct {
	RunID      string
	Input      string
	Greeting   string // greeter reply before the pipeline
	Reply      string // final user-facing summary
	TargetRole string
	OutputPath string // file save_plan_to_file wrote, else the configured default
	ToolCalls  int
	Report     *pipeline.Report
	Session    *state.Session
	StartedAt  time.Time
	FinishedAt time.Time
}

// Coordinator is the entry point of a career pivot run: greeter, pipeline,
// then a summary turn of the greeter.
type Coordinator struct {
	opts     Options
	pipeline *pipeline.Pipeline
	greeter  *agent.Agent
	summary  *agent.Agent
}

// NewCoordinator validates the topology and assembles the stages.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Provider == nil {
		return nil, errors.New("coordinator needs an LLM provider")
	}
	if opts.Prompts == nil {
		opts.Prompts = prompt.NewPromptLoader("", "")
	}
	if opts.Spec.Kind == "" {
		opts.Spec = DefaultSpec(DefaultWritingLoopMax)
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}

	toolOpts := opts.Tools
	deps := agent.Deps{
		Provider: opts.Provider,
		Prompts:  opts.Prompts,
		Toolbox: func(sess *state.Session) *tool.Registry {
			return builtin.NewSessionRegistry(sess, toolOpts)
		},
		MaxSteps: opts.MaxSteps,
	}
	if opts.Transcript != nil {
		deps.OnStep = opts.Transcript.LogStep
	}

	var pipeOpts []pipeline.Option
	if opts.Metrics != nil {
		pipeOpts = append(pipeOpts, pipeline.WithObserver(opts.Metrics))
	}
	p, err := pipeline.Build(opts.Spec, NewStages(deps), pipeOpts...)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		opts:     opts,
		pipeline: p,
		greeter:  agent.New(greeterConfig, deps),
		summary:  agent.New(greeterSummaryConfig, deps),
	}, nil
}

// Topology renders the pipeline tree.
func (c *Coordinator) Topology() string {
	return c.pipeline.Spec().Tree()
}

// OutputPath is where file_saver writes the plan by default.
func (c *Coordinator) OutputPath() string {
	file := c.opts.Tools.OutputFile
	if file == "" {
		file = builtin.DefaultPlanFile
	}
	if c.opts.Tools.OutputDir == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.opts.Tools.OutputDir, file)
}

// Run executes one career pivot run for the user's request. The result is
// returned even on error and carries whatever was produced.
func (c *Coordinator) Run(ctx context.Context, input string) (*Result, error) {
	res := &Result{
		RunID:      c.opts.NewRunID(),
		Input:      input,
		OutputPath: c.OutputPath(),
		StartedAt:  time.Now(),
	}
	res.Session = state.NewSession(res.RunID)

	log.Printf("[Coordinator] ▶ Run %s", res.RunID)
	if c.opts.Transcript != nil {
		c.opts.Transcript.StartRun(res.RunID, input)
	}

	err := c.run(ctx, res)
	res.FinishedAt = time.Now()
	res.TargetRole = res.Session.GetString(state.KeyTargetRole, "")
	res.OutputPath = res.Session.GetString(state.KeyOutputPath, res.OutputPath)
	c.finish(ctx, res, err)
	return res, err
}

func (c *Coordinator) run(ctx context.Context, res *Result) error {
	sess := res.Session

	greeting, err := c.greeter.Respond(ctx, sess, res.Input)
	res.ToolCalls += len(greeting.ToolCalls)
	if err != nil {
		return fmt.Errorf("greeter: %w", err)
	}
	res.Greeting = greeting.Reply
	if !sess.Has(state.KeyResumeText) {
		log.Printf("[Coordinator] Warning: no resume text after greeting; stages will see %q", state.NotFound)
	}

	report, err := c.pipeline.Run(ctx, sess)
	res.Report = report
	if report != nil {
		res.ToolCalls += report.ToolCallCount()
	}
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	summary, err := c.summary.Run(ctx, sess)
	res.ToolCalls += len(summary.ToolCalls)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	res.Reply = summary.Reply
	return nil
}

func (c *Coordinator) finish(ctx context.Context, res *Result, runErr error) {
	status := journal.StatusCompleted
	if runErr != nil {
		status = journal.StatusFailed
		log.Printf("[Coordinator] ❌ Run %s failed: %v", res.RunID, runErr)
	} else {
		log.Printf("[Coordinator] ✅ Run %s finished in %s (%d tool calls)",
			res.RunID, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond), res.ToolCalls)
	}

	if c.opts.Metrics != nil {
		c.opts.Metrics.RunFinished(status)
	}
	if c.opts.Transcript != nil {
		if runErr != nil {
			c.opts.Transcript.EndRun(fmt.Sprintf("Run failed: %v", runErr))
		} else {
			c.opts.Transcript.EndRun(res.Reply)
		}
	}
	if c.opts.Journal == nil {
		return
	}

	run := journal.Run{
		ID:         res.RunID,
		Input:      res.Input,
		TargetRole: res.TargetRole,
		Status:     status,
		Reply:      res.Reply,
		OutputPath: res.OutputPath,
		ToolCalls:  res.ToolCalls,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if res.Report != nil {
		run.StageTurns = len(res.Report.Stages)
		if n := len(res.Report.Loops); n > 0 {
			last := res.Report.Loops[n-1]
			run.WritingPasses = last.Passes
			run.Converged = last.Exited
		}
	}
	// Record even when the run was cancelled.
	if err := c.opts.Journal.Record(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("[Coordinator] Warning: journal record failed: %v", err)
	}
}
