package core

// Action names the edge a workflow takes after running.
type Action string

const (
	ActionContinue Action = "continue"
	ActionEnd      Action = "end"
	ActionSuccess  Action = "success"
	ActionFailure  Action = "failure"
	ActionDefault  Action = "default"

	// Stage tool loop edges.
	ActionTool   Action = "tool"
	ActionAnswer Action = "answer"
)

// successors is the action → workflow table shared by every Workflow type.
type successors[State any] map[Action]Workflow[State]

func (s successors[State]) add(next Workflow[State], action []Action) Workflow[State] {
	if next == nil {
		return nil
	}
	key := ActionDefault
	if len(action) > 0 {
		key = action[0]
	}
	s[key] = next
	return next
}
