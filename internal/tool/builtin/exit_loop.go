package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skillbridge/skillbridge/internal/tool"
)

const defaultExitMessage = "Loop completed"

// ExitLoop builds the exit signal payload.
func ExitLoop(message string) map[string]any {
	if message == "" {
		message = defaultExitMessage
	}
	return map[string]any{"status": "exit", "message": message}
}

// ── exit_loop ──

// ExitLoopTool raises the exit signal for the enclosing loop. It touches no
// session state, so one instance can serve every run.
type ExitLoopTool struct{}

func NewExitLoopTool() *ExitLoopTool { return &ExitLoopTool{} }

func (t *ExitLoopTool) Name() string { return "exit_loop" }
func (t *ExitLoopTool) Description() string {
	return "Call this only when the draft meets the bar. Stops the enclosing writing loop after the current pass."
}

func (t *ExitLoopTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "message", Type: "string", Description: "Reason for stopping"},
	)
}

func (t *ExitLoopTool) Init(_ context.Context) error { return nil }
func (t *ExitLoopTool) Close() error                 { return nil }

type exitLoopArgs struct {
	Message string `json:"message"`
}

func (t *ExitLoopTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a exitLoopArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return tool.ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
	}
	res := tool.JSONResult(ExitLoop(a.Message))
	res.ExitLoop = true
	return res, nil
}
