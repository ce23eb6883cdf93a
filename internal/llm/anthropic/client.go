// Package anthropic implements llm.LLMProvider with the Anthropic SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/skillbridge/skillbridge/internal/llm"
)

// defaultMaxTokens is sent when LLM_MAX_TOKENS is unset; the Messages API
// requires an explicit limit.
const defaultMaxTokens = 4096

// Client implements llm.LLMProvider for Claude models.
type Client struct {
	client anthropic.Client
	config *llm.Config
}

// NewClient creates a Claude client.
func NewClient(config *llm.Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{
		client: anthropic.NewClient(requestOptions(config)...),
		config: config,
	}, nil
}

// requestOptions leaves retries to llm.CallWithRetry.
func requestOptions(config *llm.Config) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(time.Duration(config.HTTPTimeout) * time.Second),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return opts
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	return fmt.Sprintf("anthropic (%s)", c.config.Model)
}

// IsToolCallingEnabled reports whether Function Calling is used.
func (c *Client) IsToolCallingEnabled() bool {
	return c.config.ResolveToolCallMode()
}

// CallLLM sends messages to Claude and returns the response.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	return c.CallLLMWithTools(ctx, messages, nil)
}

// CallLLMWithTools sends messages with tool definitions.
func (c *Client) CallLLMWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Message, error) {
	if len(messages) == 0 {
		return llm.Message{}, fmt.Errorf("no messages to send")
	}

	msgs, system := toAnthropicMessages(messages)
	maxTokens := int64(defaultMaxTokens)
	if c.config.MaxTokens > 0 {
		maxTokens = int64(c.config.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if c.config.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*c.config.Temperature))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		converted, err := toAnthropicTools(tools)
		if err != nil {
			return llm.Message{}, err
		}
		params.Tools = converted
	}

	return llm.CallWithRetry(ctx, c.config.MaxRetries, func(ctx context.Context) (llm.Message, error) {
		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return llm.Message{}, fmt.Errorf("anthropic API call failed: %w", err)
		}
		return fromAnthropicResponse(resp), nil
	})
}

// toAnthropicMessages extracts the system prompt and folds consecutive
// messages of the same role into one turn, since tool results must share the
// user turn that follows the tool_use blocks.
func toAnthropicMessages(messages []llm.Message) ([]anthropic.MessageParam, string) {
	var system []string
	var out []anthropic.MessageParam

	push := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if len(tc.Arguments) > 0 {
					input = tc.Arguments
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			push(anthropic.MessageParamRoleAssistant, blocks...)
		case llm.RoleTool:
			push(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError))
		default:
			push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
		}
	}
	return out, strings.Join(system, "\n\n")
}

func toAnthropicTools(tools []llm.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("tool %q: invalid parameter schema: %w", t.Name, err)
			}
		}
		if schema.Properties == nil {
			schema.Properties = map[string]any{}
		}
		u := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Properties: schema.Properties,
			Required:   schema.Required,
		}, t.Name)
		if t.Description != "" {
			u.OfTool.Description = anthropic.String(t.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func fromAnthropicResponse(resp *anthropic.Message) llm.Message {
	out := llm.Message{Role: llm.RoleAssistant}
	var text []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text = append(text, block.AsText().Text)
		case "tool_use":
			use := block.AsToolUse()
			args := json.RawMessage(use.Input)
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: use.ID, Name: use.Name, Arguments: args})
		}
	}
	out.Content = strings.Join(text, "")
	return out
}
