// Package openai implements llm.LLMProvider on top of any endpoint that speaks
// the OpenAI chat completions protocol.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openailib "github.com/sashabaranov/go-openai"
	"github.com/skillbridge/skillbridge/internal/llm"
)

// Client implements llm.LLMProvider using the OpenAI-compatible protocol.
type Client struct {
	client *openailib.Client
	config *llm.Config
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(config *llm.Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clientConfig := openailib.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(config.HTTPTimeout) * time.Second}

	return &Client{
		client: openailib.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// GetConfig returns the client's configuration.
func (c *Client) GetConfig() *llm.Config {
	return c.config
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	return fmt.Sprintf("openai-compatible (%s)", c.config.Model)
}

// IsToolCallingEnabled reports whether Function Calling is used.
func (c *Client) IsToolCallingEnabled() bool {
	return c.config.ResolveToolCallMode()
}

// CallLLM sends messages to the LLM and returns the response.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	return c.CallLLMWithTools(ctx, messages, nil)
}

// CallLLMWithTools sends messages with tool definitions for Function Calling.
func (c *Client) CallLLMWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Message, error) {
	if len(messages) == 0 {
		return llm.Message{}, fmt.Errorf("no messages to send")
	}

	req := openailib.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(tools),
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens > 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	return llm.CallWithRetry(ctx, c.config.MaxRetries, func(ctx context.Context) (llm.Message, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return llm.Message{}, err
		}
		if len(resp.Choices) == 0 {
			return llm.Message{}, fmt.Errorf("no choices returned from LLM")
		}
		return fromOpenAIMessage(resp.Choices[0].Message), nil
	})
}

// toOpenAIMessages converts llm.Message to the wire format, keeping the
// tool_calls / tool_call_id pairing intact.
func toOpenAIMessages(messages []llm.Message) []openailib.ChatCompletionMessage {
	out := make([]openailib.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		m := openailib.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role == llm.RoleTool {
			m.Name = msg.Name
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openailib.ToolCall{
				ID:   tc.ID,
				Type: openailib.ToolTypeFunction,
				Function: openailib.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out[i] = m
	}
	return out
}

func toOpenAITools(tools []llm.ToolDefinition) []openailib.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openailib.Tool, len(tools))
	for i, t := range tools {
		out[i] = openailib.Tool{
			Type: openailib.ToolTypeFunction,
			Function: &openailib.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

func fromOpenAIMessage(msg openailib.ChatCompletionMessage) llm.Message {
	out := llm.Message{
		Role:    llm.RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out
}
