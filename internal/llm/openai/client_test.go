package openai

import (
	"encoding/json"
	"testing"

	openailib "github.com/sashabaranov/go-openai"
	"github.com/skillbridge/skillbridge/internal/llm"
)

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("nil config should be rejected")
	}
	if _, err := NewClient(&llm.Config{Model: "gpt-4o", HTTPTimeout: 5}); err == nil {
		t.Error("missing API key should be rejected")
	}
}

func TestNewClient_ToolCallingFollowsMode(t *testing.T) {
	c, err := NewClient(&llm.Config{APIKey: "k", Model: "gpt-4o", ToolCallMode: "yaml", HTTPTimeout: 5})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.IsToolCallingEnabled() {
		t.Error("yaml mode should disable tool calling")
	}
	if c.GetName() != "openai-compatible (gpt-4o)" {
		t.Errorf("GetName() = %q", c.GetName())
	}
}

func TestToOpenAIMessages_PreservesToolPairing(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "read_state_value", Arguments: json.RawMessage(`{"key":"target_role"}`)},
		}},
		{Role: llm.RoleTool, Name: "read_state_value", ToolCallID: "call_1", Content: `{"value":"AI Engineer"}`},
	}

	out := toOpenAIMessages(msgs)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if len(out[1].ToolCalls) != 1 {
		t.Fatalf("assistant message should carry one tool call, got %d", len(out[1].ToolCalls))
	}
	tc := out[1].ToolCalls[0]
	if tc.ID != "call_1" || tc.Type != openailib.ToolTypeFunction || tc.Function.Arguments != `{"key":"target_role"}` {
		t.Errorf("unexpected tool call: %+v", tc)
	}
	if out[2].ToolCallID != "call_1" || out[2].Name != "read_state_value" {
		t.Errorf("tool message lost its pairing: %+v", out[2])
	}
	if out[0].Name != "" {
		t.Error("name should only be set on tool messages")
	}
}

func TestToOpenAITools(t *testing.T) {
	if toOpenAITools(nil) != nil {
		t.Error("no tools should produce nil so the request omits the field")
	}
	out := toOpenAITools([]llm.ToolDefinition{{Name: "exit_loop", Description: "stop", Parameters: json.RawMessage(`{"type":"object"}`)}})
	if len(out) != 1 || out[0].Function.Name != "exit_loop" {
		t.Fatalf("unexpected tools: %+v", out)
	}
}

func TestFromOpenAIMessage_EmptyArgumentsBecomeObject(t *testing.T) {
	msg := fromOpenAIMessage(openailib.ChatCompletionMessage{
		Role: "assistant",
		ToolCalls: []openailib.ToolCall{
			{ID: "c1", Type: openailib.ToolTypeFunction, Function: openailib.FunctionCall{Name: "exit_loop"}},
		},
	})
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(msg.ToolCalls))
	}
	if string(msg.ToolCalls[0].Arguments) != "{}" {
		t.Errorf("arguments = %s, want {}", msg.ToolCalls[0].Arguments)
	}
	if msg.Role != llm.RoleAssistant {
		t.Errorf("role = %q", msg.Role)
	}
}
