// Package career wires the SkillBridge stages into the career pivot pipeline
// and runs it behind the greeter.
package career

import (
	"fmt"

	"github.com/skillbridge/skillbridge/internal/agent"
	"github.com/skillbridge/skillbridge/internal/pipeline"
)

// Stage names.
const (
	StageGreeter        = "greeter"
	StageGreeterSummary = "greeter_summary"
	StageMarketAnalyst  = "market_analyst"
	StageGapAnalyst     = "gap_analyst"
	StageStudyPlanner   = "study_planner"
	StageResumeDrafter  = "resume_drafter"
	StageATSCritic      = "ats_critic"
	StageFileSaver      = "file_saver"
)

// Tool names.
const (
	toolReadResume = "read_resume"
	toolSetState   = "set_state_value"
	toolReadState  = "read_state_value"
	toolSavePlan   = "save_plan_to_file"
	toolExitLoop   = "exit_loop"
)

// pipelineStages declares the stages the topology may reference.
var pipelineStages = []agent.Config{
	{Name: StageMarketAnalyst, Tools: []string{toolReadState, toolSetState}},
	{Name: StageGapAnalyst, Tools: []string{toolReadState, toolSetState}},
	{Name: StageStudyPlanner, Tools: []string{toolReadState, toolSetState}},
	{Name: StageResumeDrafter, Tools: []string{toolReadState, toolSetState}},
	{Name: StageATSCritic, Tools: []string{toolReadState, toolSetState, toolExitLoop}},
	{Name: StageFileSaver, Tools: []string{toolSavePlan, toolReadState}},
}

var greeterConfig = agent.Config{
	Name:  StageGreeter,
	Tools: []string{toolReadResume, toolSetState, toolReadState},
}

var greeterSummaryConfig = agent.Config{
	Name:  StageGreeterSummary,
	Tools: []string{toolReadState},
	Task:  "The specialist team has finished. Summarise the results for the user.",
}

// PipelineStageNames lists the stages available to topologies.
func PipelineStageNames() []string {
	names := make([]string, len(pipelineStages))
	for i, c := range pipelineStages {
		names[i] = c.Name
	}
	return names
}

// NewStages builds the pipeline stages on deps.
func NewStages(deps agent.Deps) map[string]pipeline.Stage {
	stages := make(map[string]pipeline.Stage, len(pipelineStages))
	for _, c := range pipelineStages {
		stages[c.Name] = agent.New(c, deps)
	}
	return stages
}

// DefaultSpec is the built-in topology:
//
//	skillbridge_coordinator
//	  market_analyst
//	  analysis_team: gap_analyst, study_planner
//	  writing_loop (max N): resume_drafter, ats_critic
//	  file_saver
func DefaultSpec(writingLoopMax int) pipeline.Spec {
	return pipeline.Sequential("skillbridge_coordinator",
		pipeline.Leaf(StageMarketAnalyst),
		pipeline.Sequential("analysis_team",
			pipeline.Leaf(StageGapAnalyst),
			pipeline.Leaf(StageStudyPlanner),
		),
		pipeline.Loop("writing_loop", writingLoopMax,
			pipeline.Leaf(StageResumeDrafter),
			pipeline.Leaf(StageATSCritic),
		),
		pipeline.Leaf(StageFileSaver),
	)
}

// LoadTopology returns the topology from path, or DefaultSpec when path is empty.
func LoadTopology(path string, writingLoopMax int) (pipeline.Spec, error) {
	if path == "" {
		return DefaultSpec(writingLoopMax), nil
	}
	spec, err := pipeline.LoadSpec(path)
	if err != nil {
		return pipeline.Spec{}, fmt.Errorf("load topology: %w", err)
	}
	return spec, nil
}
