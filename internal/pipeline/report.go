package pipeline

import "time"

// StageRecord is one stage turn.
type StageRecord struct {
	Name          string        `json:"name"`
	Loop          string        `json:"loop,omitempty"`
	Pass          int           `json:"pass,omitempty"`
	ToolCalls     []string      `json:"tool_calls"`
	ExitSignalled bool          `json:"exit_signalled"`
	Reply         string        `json:"reply"`
	Duration      time.Duration `json:"duration"`
	Err           string        `json:"error,omitempty"`
}

// LoopRecord summarises one loop execution.
type LoopRecord struct {
	Name          string `json:"name"`
	MaxIterations int    `json:"max_iterations"`
	Passes        int    `json:"passes"`
	Exited        bool   `json:"exited"` // false means the cap was reached
}

// Report collects what happened during a pipeline run.
type Report struct {
	Stages []StageRecord `json:"stages"`
	Loops  []LoopRecord  `json:"loops"`
}

// Loop returns the record for the named loop, if it ran.
func (r *Report) Loop(name string) (LoopRecord, bool) {
	for _, l := range r.Loops {
		if l.Name == name {
			return l, true
		}
	}
	return LoopRecord{}, false
}

// ToolCallCount returns the number of tool calls across all stages.
func (r *Report) ToolCallCount() int {
	n := 0
	for _, s := range r.Stages {
		n += len(s.ToolCalls)
	}
	return n
}

// Observer receives stage and loop completions, e.g. for metrics.
type Observer interface {
	StageFinished(rec StageRecord, err error)
	LoopFinished(rec LoopRecord)
}
