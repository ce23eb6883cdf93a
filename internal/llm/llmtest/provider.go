// Package llmtest provides scripted LLM providers for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/skillbridge/skillbridge/internal/llm"
)

// Call is one recorded request.
type Call struct {
	Messages []llm.Message
	Tools    []llm.ToolDefinition
}

// RespondFunc produces the reply for a request.
type RespondFunc func(call Call) (llm.Message, error)

// Provider is an llm.LLMProvider driven by a RespondFunc.
type Provider struct {
	FC      bool
	Respond RespondFunc

	mu    sync.Mutex
	calls []Call
}

var _ llm.LLMProvider = (*Provider)(nil)

// Queue returns a provider that replays replies in order and fails once
// they run out.
func Queue(fc bool, replies ...llm.Message) *Provider {
	var mu sync.Mutex
	next := 0
	return &Provider{
		FC: fc,
		Respond: func(Call) (llm.Message, error) {
			mu.Lock()
			defer mu.Unlock()
			if next >= len(replies) {
				return llm.Message{}, fmt.Errorf("script exhausted after %d replies", len(replies))
			}
			r := replies[next]
			next++
			return r, nil
		},
	}
}

func (p *Provider) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	return p.call(ctx, Call{Messages: messages})
}

func (p *Provider) CallLLMWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Message, error) {
	return p.call(ctx, Call{Messages: messages, Tools: tools})
}

func (p *Provider) call(ctx context.Context, c Call) (llm.Message, error) {
	if err := ctx.Err(); err != nil {
		return llm.Message{}, err
	}
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
	return p.Respond(c)
}

func (p *Provider) IsToolCallingEnabled() bool { return p.FC }

func (p *Provider) GetName() string { return "scripted" }

// Calls returns the recorded requests.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Text is an assistant reply with no tool calls.
func Text(content string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: content}
}

// ToolCalls is an assistant reply requesting the given calls.
func ToolCalls(calls ...llm.ToolCall) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: calls}
}

// NewCall builds a tool call with JSON-encoded args.
func NewCall(id, name string, args map[string]any) llm.ToolCall {
	data, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return llm.ToolCall{ID: id, Name: name, Arguments: data}
}
