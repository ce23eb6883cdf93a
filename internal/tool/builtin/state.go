package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// SetStateValue overwrites session[key] with value.
func SetStateValue(sess *state.Session, key, value string) map[string]any {
	sess.Set(key, value)
	return map[string]any{"status": "ok", "message": fmt.Sprintf("Set %s", key)}
}

// ReadStateValue returns session[key] as a string, or "Not found".
func ReadStateValue(sess *state.Session, key string) map[string]any {
	return map[string]any{"value": sess.Lookup(key)}
}

// AppendToState appends value to the list at session[key].
func AppendToState(sess *state.Session, key, value string) map[string]any {
	sess.Append(key, value)
	return map[string]any{"status": "ok", "message": fmt.Sprintf("Appended to %s", key)}
}

type stateArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func parseStateArgs(args json.RawMessage) (stateArgs, error) {
	var a stateArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return a, fmt.Errorf("invalid arguments: %v", err)
		}
	}
	if a.Key == "" {
		return a, fmt.Errorf("key is required")
	}
	return a, nil
}

// ── set_state_value ──

type SetStateTool struct {
	sess *state.Session
}

func NewSetStateTool(sess *state.Session) *SetStateTool {
	return &SetStateTool{sess: sess}
}

func (t *SetStateTool) Name() string { return "set_state_value" }
func (t *SetStateTool) Description() string {
	return "Overwrite a single value in the shared session state."
}

func (t *SetStateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "key", Type: "string", Description: "State key, e.g. target_role or market_research", Required: true},
		tool.SchemaParam{Name: "value", Type: "string", Description: "Value to store", Required: true},
	)
}

func (t *SetStateTool) Init(_ context.Context) error { return nil }
func (t *SetStateTool) Close() error                 { return nil }

func (t *SetStateTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	a, err := parseStateArgs(args)
	if err != nil {
		return tool.ErrorResult(err.Error()), nil
	}
	return tool.JSONResult(SetStateValue(t.sess, a.Key, a.Value)), nil
}

// ── read_state_value ──

type ReadStateTool struct {
	sess *state.Session
}

func NewReadStateTool(sess *state.Session) *ReadStateTool {
	return &ReadStateTool{sess: sess}
}

func (t *ReadStateTool) Name() string { return "read_state_value" }
func (t *ReadStateTool) Description() string {
	return "Read a value from the shared session state to see what earlier stages produced. Returns \"Not found\" for keys never written."
}

func (t *ReadStateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "key", Type: "string", Description: "State key to read", Required: true},
	)
}

func (t *ReadStateTool) Init(_ context.Context) error { return nil }
func (t *ReadStateTool) Close() error                 { return nil }

func (t *ReadStateTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	a, err := parseStateArgs(args)
	if err != nil {
		return tool.ErrorResult(err.Error()), nil
	}
	return tool.JSONResult(ReadStateValue(t.sess, a.Key)), nil
}

// ── append_to_state ──

type AppendStateTool struct {
	sess *state.Session
}

func NewAppendStateTool(sess *state.Session) *AppendStateTool {
	return &AppendStateTool{sess: sess}
}

func (t *AppendStateTool) Name() string { return "append_to_state" }
func (t *AppendStateTool) Description() string {
	return "Append a value to the list stored under a state key. A key holding a single value is replaced by a new list."
}

func (t *AppendStateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "key", Type: "string", Description: "State key holding a list", Required: true},
		tool.SchemaParam{Name: "value", Type: "string", Description: "Item to append", Required: true},
	)
}

func (t *AppendStateTool) Init(_ context.Context) error { return nil }
func (t *AppendStateTool) Close() error                 { return nil }

func (t *AppendStateTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	a, err := parseStateArgs(args)
	if err != nil {
		return tool.ErrorResult(err.Error()), nil
	}
	return tool.JSONResult(AppendToState(t.sess, a.Key, a.Value)), nil
}
