package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message for LLM communication.
type Message struct {
	Role       string     `json:"role"`                   // "user", "assistant", "system", "tool"
	Content    string     `json:"content"`                // The message text
	Name       string     `json:"name,omitempty"`         // FC: function name when role="tool"
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // FC: tool calls returned by model
	ToolCallID string     `json:"tool_call_id,omitempty"` // FC: when role="tool", the ID of the call this responds to
	IsError    bool       `json:"is_error,omitempty"`     // FC: when role="tool", the tool reported a failure
}

// ToolDefinition describes a tool for Function Calling.
// Parameters follows OpenAI JSON Schema format.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ToolCall represents a single tool call returned by the model.
type ToolCall struct {
	ID        string          `json:"id"` // correlates tool results with the call
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// LLMProvider defines the interface for all LLM implementations.
// It is the delegated reasoning strategy behind every stage: the provider,
// not the pipeline, decides which tools to call and in which order.
type LLMProvider interface {
	// CallLLM sends messages to the LLM and returns the complete response.
	CallLLM(ctx context.Context, messages []Message) (Message, error)

	// CallLLMWithTools sends messages with tool definitions for Function Calling.
	// The model may return tool_calls in the response or a direct text answer.
	CallLLMWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)

	// IsToolCallingEnabled reports whether Function Calling is enabled for this
	// provider. When false, stages fall back to the YAML decision format.
	IsToolCallingEnabled() bool

	// GetName returns a human-readable provider description for logs.
	GetName() string
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
