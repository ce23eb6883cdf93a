package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/skillbridge/skillbridge/internal/core"
	"github.com/skillbridge/skillbridge/internal/state"
)

// RunState is the core workflow state of one pipeline run.
type RunState struct {
	Session *state.Session
	Report  *Report
	Err     error

	exitRequested bool
	loop          string // innermost running loop
	pass          int
}

// Pipeline is a built, validated topology.
type Pipeline struct {
	spec     Spec
	root     core.Workflow[RunState]
	observer Observer
}

// Option configures Build.
type Option func(*Pipeline)

// WithObserver reports stage and loop completions to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Build validates spec against stages and assembles the workflow tree.
func Build(spec Spec, stages map[string]Stage, opts ...Option) (*Pipeline, error) {
	known := func(name string) bool {
		_, ok := stages[name]
		return ok
	}
	if err := spec.Validate(known); err != nil {
		return nil, err
	}

	p := &Pipeline{spec: spec}
	for _, opt := range opts {
		opt(p)
	}
	p.root = p.build(spec, stages, false)
	return p, nil
}

// Spec returns the topology the pipeline was built from.
func (p *Pipeline) Spec() Spec {
	return p.spec
}

func (p *Pipeline) build(spec Spec, stages map[string]Stage, inLoop bool) core.Workflow[RunState] {
	switch spec.Kind {
	case KindLeaf:
		return core.NewNode[RunState, stageCall, stageResult](spec.Stage, &stageNode{
			stage:    stages[spec.Stage],
			inLoop:   inLoop,
			observer: p.observer,
		})
	case KindLoop:
		body := core.NewSequence[RunState](
			p.build(spec.Children[0], stages, true),
			p.build(spec.Children[1], stages, true),
		)
		return &loopNode{
			name: spec.DisplayName(),
			loop: core.NewLoop[RunState](body, spec.MaxIterations, consumeExit),
			p:    p,
		}
	default:
		children := make([]core.Workflow[RunState], len(spec.Children))
		for i, c := range spec.Children {
			children[i] = p.build(c, stages, inLoop)
		}
		return core.NewSequence[RunState](children...)
	}
}

// Run executes the pipeline against sess. The first stage error aborts the
// run and is returned together with the partial report.
func (p *Pipeline) Run(ctx context.Context, sess *state.Session) (*Report, error) {
	rs := &RunState{Session: sess, Report: &Report{}}
	log.Printf("[Pipeline] ▶ %s (%d stages)", p.spec.DisplayName(), len(p.spec.Stages()))

	action := p.root.Run(ctx, rs)
	if action == core.ActionFailure {
		if rs.Err != nil {
			return rs.Report, rs.Err
		}
		if ctx.Err() != nil {
			return rs.Report, fmt.Errorf("pipeline cancelled: %w", ctx.Err())
		}
		return rs.Report, errors.New("pipeline failed")
	}
	log.Printf("[Pipeline] ✅ %s finished (%d stage turns, %d tool calls)",
		p.spec.DisplayName(), len(rs.Report.Stages), rs.Report.ToolCallCount())
	return rs.Report, nil
}

func consumeExit(rs *RunState) bool {
	exit := rs.exitRequested
	rs.exitRequested = false
	return exit
}

// ── loop node ──

// loopNode wraps core.Loop to keep the run report's loop record current.
type loopNode struct {
	name string
	loop *core.Loop[RunState]
	p    *Pipeline
}

func (l *loopNode) Run(ctx context.Context, rs *RunState) core.Action {
	rec := LoopRecord{Name: l.name, MaxIterations: l.loop.MaxIterations()}
	parent, parentPass := rs.loop, rs.pass
	rs.loop, rs.pass, rs.exitRequested = l.name, 1, false

	l.loop.OnPass(func(rs *RunState, pass int, exited bool) {
		rec.Passes, rec.Exited = pass, exited
		rs.pass = pass + 1
		if exited {
			log.Printf("[Pipeline] %s: exit signal after pass %d/%d", l.name, pass, rec.MaxIterations)
		} else {
			log.Printf("[Pipeline] %s: pass %d/%d complete", l.name, pass, rec.MaxIterations)
		}
	})
	action := l.loop.Run(ctx, rs)

	rs.loop, rs.pass = parent, parentPass
	rs.Report.Loops = append(rs.Report.Loops, rec)
	if l.p.observer != nil && action != core.ActionFailure {
		l.p.observer.LoopFinished(rec)
	}
	return action
}

func (l *loopNode) AddSuccessor(successor core.Workflow[RunState], action ...core.Action) core.Workflow[RunState] {
	return l.loop.AddSuccessor(successor, action...)
}

func (l *loopNode) GetSuccessor(action core.Action) core.Workflow[RunState] {
	return l.loop.GetSuccessor(action)
}

// ── stage node ──

type stageCall struct {
	stage   Stage
	session *state.Session
}

type stageResult struct {
	outcome  Outcome
	err      error
	duration time.Duration
}

// stageNode runs one stage: Prep hands over the session, Exec runs the
// stage turn, Post records it and raises the loop's exit flag.
type stageNode struct {
	stage    Stage
	inLoop   bool
	observer Observer
}

func (n *stageNode) Prep(rs *RunState) []stageCall {
	return []stageCall{{stage: n.stage, session: rs.Session}}
}

func (n *stageNode) Exec(ctx context.Context, call stageCall) (stageResult, error) {
	log.Printf("[Pipeline] ▶ stage %s", call.stage.Name())
	start := time.Now()
	out, err := call.stage.Run(ctx, call.session)
	if err != nil {
		return stageResult{}, fmt.Errorf("stage %s: %w", call.stage.Name(), err)
	}
	return stageResult{outcome: out, duration: time.Since(start)}, nil
}

func (n *stageNode) ExecFallback(err error) stageResult {
	return stageResult{err: err}
}

func (n *stageNode) Post(rs *RunState, _ []stageCall, results ...stageResult) core.Action {
	res := results[0]
	rec := StageRecord{
		Name:          n.stage.Name(),
		ToolCalls:     res.outcome.ToolCalls,
		ExitSignalled: res.outcome.ExitSignalled,
		Reply:         res.outcome.Reply,
		Duration:      res.duration,
	}
	if n.inLoop {
		rec.Loop, rec.Pass = rs.loop, rs.pass
	}
	if res.err != nil {
		rec.Err = res.err.Error()
	}
	rs.Report.Stages = append(rs.Report.Stages, rec)
	if n.observer != nil {
		n.observer.StageFinished(rec, res.err)
	}

	if res.err != nil {
		log.Printf("[Pipeline] ❌ stage %s failed: %v", rec.Name, res.err)
		rs.Err = res.err
		return core.ActionFailure
	}
	log.Printf("[Pipeline] ✓ stage %s (%d tool calls, %s)", rec.Name, len(rec.ToolCalls), rec.Duration.Round(time.Millisecond))
	if res.outcome.ExitSignalled {
		if n.inLoop {
			rs.exitRequested = true
		} else {
			log.Printf("[Pipeline] %s raised an exit signal outside a loop; ignored", rec.Name)
		}
	}
	return core.ActionContinue
}
