package career

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/skillbridge/skillbridge/internal/journal"
	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/llm/llmtest"
	"github.com/skillbridge/skillbridge/internal/metrics"
	"github.com/skillbridge/skillbridge/internal/pipeline"
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool/builtin"
)

// stageMarkers identify the running stage from its system prompt.
var stageMarkers = []struct {
	marker string
	stage  string
}{
	{"Greet the user warmly", StageGreeter},
	{"The specialist team has finished", StageGreeterSummary},
	{"technical career analyst", StageMarketAnalyst},
	{"career gap analyst", StageGapAnalyst},
	{"You are a study planner", StageStudyPlanner},
	{"expert resume writer", StageResumeDrafter},
	{"strict ATS scanner", StageATSCritic},
	{"You manage the output files", StageFileSaver},
}

func stageOf(system string) string {
	for _, m := range stageMarkers {
		if strings.Contains(system, m.marker) {
			return m.stage
		}
	}
	return "unknown"
}

// scriptedModel plays every stage of a run with fixed tool calls.
type scriptedModel struct {
	approveOnPass int    // critic approves on this pass; 0 = never
	failStage     string // stage whose model call fails
	saveAs        string // filename file_saver passes; empty = default
	drafts        int
	critiques     int
	stagesSeen    []string
}

var errModelDown = errors.New("model unavailable")

func (m *scriptedModel) respond(call llmtest.Call) (llm.Message, error) {
	stage := stageOf(call.Messages[0].Content)
	if stage == m.failStage {
		return llm.Message{}, errModelDown
	}
	if last := call.Messages[len(call.Messages)-1]; last.Role == llm.RoleTool {
		if stage == StageGreeterSummary {
			return llmtest.Text("You are missing 3 skills; your plan is saved."), nil
		}
		return llmtest.Text(stage + " done"), nil
	}
	m.stagesSeen = append(m.stagesSeen, stage)

	set := func(id, key, value string) llm.ToolCall {
		return llmtest.NewCall(id, "set_state_value", map[string]any{"key": key, "value": value})
	}

	switch stage {
	case StageGreeter:
		return llmtest.ToolCalls(
			llmtest.NewCall("g1", "read_resume", map[string]any{"filename": "resumes/test_resume.txt"}),
			set("g2", state.KeyTargetRole, "AI Engineer"),
		), nil
	case StageMarketAnalyst:
		return llmtest.ToolCalls(set("m1", state.KeyMarketResearch, "Skills: Python, PyTorch, MLOps")), nil
	case StageGapAnalyst:
		return llmtest.ToolCalls(set("a1", state.KeyMissingSkills, "Python, PyTorch, MLOps")), nil
	case StageStudyPlanner:
		return llmtest.ToolCalls(set("p1", state.KeyStudyPlan, "Week 1: Python")), nil
	case StageResumeDrafter:
		m.drafts++
		return llmtest.ToolCalls(set("d1", state.KeyCurrentDraft, fmt.Sprintf("Draft %d", m.drafts))), nil
	case StageATSCritic:
		m.critiques++
		if m.critiques == m.approveOnPass {
			return llmtest.ToolCalls(
				set("c1", state.KeyFinalSummary, fmt.Sprintf("Draft %d", m.drafts)),
				llmtest.NewCall("c2", "exit_loop", map[string]any{"message": "Resume quality approved at 9/10"}),
			), nil
		}
		return llmtest.ToolCalls(set("c1", state.KeyCriticFeedback, "Add keywords: PyTorch")), nil
	case StageFileSaver:
		args := map[string]any{}
		if m.saveAs != "" {
			args["filename"] = m.saveAs
		}
		return llmtest.ToolCalls(llmtest.NewCall("f1", "save_plan_to_file", args)), nil
	case StageGreeterSummary:
		return llmtest.ToolCalls(llmtest.NewCall("s1", "read_state_value", map[string]any{"key": state.KeyMissingSkills})), nil
	}
	return llm.Message{}, fmt.Errorf("unexpected stage prompt: %.60s", call.Messages[0].Content)
}

type memJournal struct{ runs []journal.Run }

func (j *memJournal) Record(_ context.Context, r journal.Run) error {
	j.runs = append(j.runs, r)
	return nil
}

func newTestCoordinator(t *testing.T, model *scriptedModel, maxIter int) (*Coordinator, *memJournal, builtin.Options) {
	t.Helper()
	resumeDir := t.TempDir()
	resume := "Jane Doe. Marketing manager with 6 years of campaign analytics in SQL and Excel."
	if err := os.WriteFile(filepath.Join(resumeDir, "test_resume.txt"), []byte(resume), 0o644); err != nil {
		t.Fatal(err)
	}
	tools := builtin.Options{ResumeDir: resumeDir, OutputDir: t.TempDir()}
	j := &memJournal{}

	c, err := NewCoordinator(Options{
		Provider: &llmtest.Provider{FC: true, Respond: model.respond},
		Tools:    tools,
		Spec:     DefaultSpec(maxIter),
		Metrics:  metrics.NewRecorder(),
		Journal:  j,
		NewRunID: func() string { return "run-test" },
	})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c, j, tools
}

func TestCoordinator_ConvergesOnSecondPass(t *testing.T) {
	model := &scriptedModel{approveOnPass: 2}
	c, j, tools := newTestCoordinator(t, model, 4)

	res, err := c.Run(context.Background(), "Hi, my resume is test_resume.txt and I want to be an AI Engineer.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantOrder := []string{
		StageGreeter, StageMarketAnalyst, StageGapAnalyst, StageStudyPlanner,
		StageResumeDrafter, StageATSCritic, StageResumeDrafter, StageATSCritic,
		StageFileSaver, StageGreeterSummary,
	}
	if !reflect.DeepEqual(model.stagesSeen, wantOrder) {
		t.Errorf("stage order = %v\nwant %v", model.stagesSeen, wantOrder)
	}

	loop, ok := res.Report.Loop("writing_loop")
	if !ok || loop.Passes != 2 || !loop.Exited {
		t.Errorf("writing_loop = %+v", loop)
	}

	data, err := os.ReadFile(filepath.Join(tools.OutputDir, builtin.DefaultPlanFile))
	if err != nil {
		t.Fatalf("plan file: %v", err)
	}
	if want := builtin.FormatPlan("Week 1: Python", "Draft 2"); string(data) != want {
		t.Errorf("plan file = %q\nwant %q", data, want)
	}
	if res.OutputPath != filepath.Join(tools.OutputDir, builtin.DefaultPlanFile) {
		t.Errorf("OutputPath = %q", res.OutputPath)
	}

	if res.RunID != "run-test" || res.Session.ID != "run-test" {
		t.Errorf("run id = %q / %q", res.RunID, res.Session.ID)
	}
	if res.TargetRole != "AI Engineer" {
		t.Errorf("TargetRole = %q", res.TargetRole)
	}
	if !strings.HasPrefix(res.Session.Lookup(state.KeyResumeText), "Jane Doe") {
		t.Errorf("resume_text = %q", res.Session.Lookup(state.KeyResumeText))
	}
	if res.Reply != "You are missing 3 skills; your plan is saved." {
		t.Errorf("Reply = %q", res.Reply)
	}
	if res.Greeting != "greeter done" {
		t.Errorf("Greeting = %q", res.Greeting)
	}

	if len(j.runs) != 1 {
		t.Fatalf("journal runs = %d", len(j.runs))
	}
	run := j.runs[0]
	if run.Status != journal.StatusCompleted || !run.Converged || run.WritingPasses != 2 || run.StageTurns != 8 {
		t.Errorf("journal run = %+v", run)
	}
	// greeter 2, pipeline 9 (critic approval makes 2), summary 1
	if run.ToolCalls != 2+9+1 {
		t.Errorf("ToolCalls = %d", run.ToolCalls)
	}
}

func TestCoordinator_CapReachedLastDraftStands(t *testing.T) {
	model := &scriptedModel{}
	c, j, tools := newTestCoordinator(t, model, 4)

	res, err := c.Run(context.Background(), "resume test_resume.txt, target AI Engineer")
	if err != nil {
		t.Fatalf("non-convergence must not fail the run: %v", err)
	}

	loop, _ := res.Report.Loop("writing_loop")
	if loop.Passes != 4 || loop.Exited {
		t.Errorf("writing_loop = %+v", loop)
	}
	if model.drafts != 4 || model.critiques != 4 {
		t.Errorf("drafts=%d critiques=%d, want 4 each", model.drafts, model.critiques)
	}
	if got := res.Session.Lookup(state.KeyCurrentDraft); got != "Draft 4" {
		t.Errorf("current_draft = %q", got)
	}
	if res.Session.Has(state.KeyFinalSummary) {
		t.Error("final_summary should stay unset")
	}

	data, err := os.ReadFile(filepath.Join(tools.OutputDir, builtin.DefaultPlanFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "--- NEW SUMMARY ---\nNo Summary") {
		t.Errorf("plan file = %q", data)
	}
	if j.runs[0].Converged {
		t.Error("journal should record a non-converged loop")
	}
}

func TestCoordinator_OutputPathFollowsSavedFile(t *testing.T) {
	model := &scriptedModel{approveOnPass: 1, saveAs: "jane_pivot.txt"}
	c, j, tools := newTestCoordinator(t, model, 4)

	res, err := c.Run(context.Background(), "resume test_resume.txt, target AI Engineer")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := filepath.Join(tools.OutputDir, "jane_pivot.txt")
	if res.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", res.OutputPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("saved file: %v", err)
	}
	if j.runs[0].OutputPath != want {
		t.Errorf("journal OutputPath = %q, want %q", j.runs[0].OutputPath, want)
	}
}

func TestCoordinator_StageFailureAborts(t *testing.T) {
	model := &scriptedModel{approveOnPass: 1, failStage: StageGapAnalyst}
	c, j, tools := newTestCoordinator(t, model, 4)

	res, err := c.Run(context.Background(), "resume test_resume.txt")
	if !errors.Is(err, errModelDown) {
		t.Fatalf("err = %v, want %v", err, errModelDown)
	}
	if !strings.Contains(err.Error(), "pipeline") || !strings.Contains(err.Error(), StageGapAnalyst) {
		t.Errorf("error should name the pipeline and stage: %v", err)
	}

	for _, s := range model.stagesSeen {
		if s == StageStudyPlanner || s == StageFileSaver {
			t.Errorf("stage %s ran after the failure", s)
		}
	}
	if _, err := os.Stat(filepath.Join(tools.OutputDir, builtin.DefaultPlanFile)); !os.IsNotExist(err) {
		t.Error("no plan file should be written")
	}
	if res.Report == nil || len(res.Report.Stages) != 2 {
		t.Errorf("report should hold market_analyst and the failed gap_analyst, got %+v", res.Report)
	}
	if j.runs[0].Status != journal.StatusFailed || j.runs[0].Error == "" {
		t.Errorf("journal run = %+v", j.runs[0])
	}
}

func TestCoordinator_GreeterFailure(t *testing.T) {
	model := &scriptedModel{failStage: StageGreeter}
	c, j, _ := newTestCoordinator(t, model, 4)

	res, err := c.Run(context.Background(), "hello")
	if err == nil || !strings.HasPrefix(err.Error(), "greeter:") {
		t.Fatalf("err = %v", err)
	}
	if res.Report != nil {
		t.Error("pipeline should not run")
	}
	if len(j.runs) != 1 || j.runs[0].Status != journal.StatusFailed {
		t.Errorf("journal = %+v", j.runs)
	}
}

func TestCoordinator_Cancelled(t *testing.T) {
	c, j, _ := newTestCoordinator(t, &scriptedModel{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(j.runs) != 1 {
		t.Error("cancelled runs are still journaled")
	}
}

func TestNewCoordinator_Validation(t *testing.T) {
	if _, err := NewCoordinator(Options{}); err == nil {
		t.Error("expected error without provider")
	}

	bad := pipeline.Sequential("root", pipeline.Leaf("web_researcher"))
	_, err := NewCoordinator(Options{Provider: llmtest.Queue(true), Spec: bad})
	if !errors.Is(err, pipeline.ErrInvalidTopology) {
		t.Errorf("err = %v, want ErrInvalidTopology", err)
	}
}

func TestCoordinator_DefaultsAndTopology(t *testing.T) {
	c, err := NewCoordinator(Options{Provider: llmtest.Queue(true)})
	if err != nil {
		t.Fatal(err)
	}
	tree := c.Topology()
	for _, want := range []string{"skillbridge_coordinator", "analysis_team", "writing_loop (loop, max 4)", "file_saver"} {
		if !strings.Contains(tree, want) {
			t.Errorf("topology missing %q:\n%s", want, tree)
		}
	}
	if c.OutputPath() != builtin.DefaultPlanFile {
		t.Errorf("OutputPath = %q", c.OutputPath())
	}
}
