package gemini

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/skillbridge/skillbridge/internal/llm"
	"google.golang.org/genai"
)

func TestToGeminiContents_SystemAndRoles(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "read_state_value", Name: "read_state_value", Arguments: json.RawMessage(`{"key":"target_role"}`)},
		}},
		{Role: llm.RoleTool, Name: "read_state_value", ToolCallID: "read_state_value", Content: "AI Engineer"},
	}

	contents, system := toGeminiContents(msgs)
	if system != "be brief" {
		t.Errorf("system = %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(contents))
	}
	if contents[1].Role != roleModel {
		t.Errorf("assistant role = %q, want model", contents[1].Role)
	}
	call := contents[1].Parts[0].FunctionCall
	if call == nil || call.Name != "read_state_value" || call.Args["key"] != "target_role" {
		t.Errorf("unexpected function call: %+v", call)
	}
	resp := contents[2].Parts[0].FunctionResponse
	if resp == nil || resp.Name != "read_state_value" || resp.Response["content"] != "AI Engineer" {
		t.Errorf("unexpected function response: %+v", resp)
	}
	if resp.ID != "" {
		t.Errorf("synthetic id should be dropped, got %q", resp.ID)
	}
}

func TestToGeminiContents_ParallelCallsShareOneResponseTurn(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "analyse the gap"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "c1", Name: "read_state_value", Arguments: json.RawMessage(`{"key":"resume_text"}`)},
			{ID: "c2", Name: "read_state_value", Arguments: json.RawMessage(`{"key":"market_research"}`)},
		}},
		{Role: llm.RoleTool, Name: "read_state_value", ToolCallID: "c1", Content: "resume"},
		{Role: llm.RoleTool, Name: "read_state_value", ToolCallID: "c2", Content: "research"},
	}

	contents, _ := toGeminiContents(msgs)
	if len(contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(contents))
	}
	calls, responses := contents[1], contents[2]
	if calls.Role != roleModel || len(calls.Parts) != 2 {
		t.Fatalf("call turn: role=%q parts=%d, want model with 2 parts", calls.Role, len(calls.Parts))
	}
	if responses.Role != roleUser || len(responses.Parts) != len(calls.Parts) {
		t.Fatalf("response turn: role=%q parts=%d, want user with %d parts", responses.Role, len(responses.Parts), len(calls.Parts))
	}
	for i, id := range []string{"c1", "c2"} {
		resp := responses.Parts[i].FunctionResponse
		if resp == nil || resp.ID != id {
			t.Errorf("part %d: unexpected function response %+v", i, resp)
		}
	}
}

func TestClientConfig_AppliesHTTPTimeout(t *testing.T) {
	cfg := clientConfig(&llm.Config{APIKey: "k", HTTPTimeout: 30})
	if cfg.HTTPOptions.Timeout == nil || *cfg.HTTPOptions.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.HTTPOptions.Timeout)
	}
	if cfg.Backend != genai.BackendGeminiAPI || cfg.APIKey != "k" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestToGeminiDeclarations(t *testing.T) {
	defs := []llm.ToolDefinition{{
		Name:        "append_to_state",
		Description: "append",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"key":{"type":"string","description":"k"},"value":{"type":"string"}},"required":["key","value"]}`),
	}}
	decls, err := toGeminiDeclarations(defs)
	if err != nil {
		t.Fatalf("toGeminiDeclarations() error: %v", err)
	}
	p := decls[0].Parameters
	if p.Type != genai.TypeObject || len(p.Properties) != 2 || len(p.Required) != 2 {
		t.Errorf("unexpected schema: %+v", p)
	}
	if p.Properties["key"].Type != genai.TypeString || p.Properties["key"].Description != "k" {
		t.Errorf("unexpected property: %+v", p.Properties["key"])
	}

	if _, err := toGeminiDeclarations([]llm.ToolDefinition{{Name: "bad", Parameters: json.RawMessage(`{`)}}); err == nil {
		t.Error("invalid schema should fail")
	}
}

func TestFromGeminiResponse(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: roleModel, Parts: []*genai.Part{
				{Text: "thinking", Thought: true},
				{Text: "Saving now."},
				{FunctionCall: &genai.FunctionCall{Name: "exit_loop"}},
			}},
		}},
	}
	msg := fromGeminiResponse(result)
	if msg.Content != "Saving now." {
		t.Errorf("content = %q", msg.Content)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(msg.ToolCalls))
	}
	tc := msg.ToolCalls[0]
	if tc.ID != "exit_loop" || string(tc.Arguments) != "{}" {
		t.Errorf("unexpected tool call: %+v", tc)
	}
}
