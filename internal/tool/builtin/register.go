package builtin

import (
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// Options locates the resume input directory and the plan output file.
type Options struct {
	ResumeDir  string // default "resumes"
	OutputDir  string // empty = working directory
	OutputFile string // default "final_career_plan.txt"
}

// NewSessionRegistry returns a registry with every tool bound to sess.
func NewSessionRegistry(sess *state.Session, opts Options) *tool.Registry {
	reg := tool.NewRegistry()
	reg.Register(NewReadResumeTool(sess, opts.ResumeDir))
	reg.Register(NewSetStateTool(sess))
	reg.Register(NewReadStateTool(sess))
	reg.Register(NewAppendStateTool(sess))
	reg.Register(NewSavePlanTool(sess, opts.OutputDir, opts.OutputFile))
	reg.Register(NewExitLoopTool())
	return reg
}
