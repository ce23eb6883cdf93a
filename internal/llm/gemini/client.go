// Package gemini implements llm.LLMProvider with the Google GenAI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/skillbridge/skillbridge/internal/llm"
	"google.golang.org/genai"
)

// Gemini content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Client implements llm.LLMProvider for Gemini models.
type Client struct {
	config *llm.Config

	mu     sync.Mutex
	client *genai.Client // created lazily on first call
}

// NewClient creates a Gemini client. The underlying SDK client is created on
// the first call because it needs a context.
func NewClient(config *llm.Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{config: config}, nil
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	return fmt.Sprintf("gemini (%s)", c.config.Model)
}

// IsToolCallingEnabled reports whether Function Calling is used.
func (c *Client) IsToolCallingEnabled() bool {
	return c.config.ResolveToolCallMode()
}

// CallLLM sends messages to Gemini and returns the response.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	return c.CallLLMWithTools(ctx, messages, nil)
}

// CallLLMWithTools sends messages with function declarations.
func (c *Client) CallLLMWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Message, error) {
	if len(messages) == 0 {
		return llm.Message{}, fmt.Errorf("no messages to send")
	}
	client, err := c.sdk(ctx)
	if err != nil {
		return llm.Message{}, err
	}

	contents, system := toGeminiContents(messages)
	cfg := &genai.GenerateContentConfig{
		Temperature: c.config.Temperature,
	}
	if c.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(c.config.MaxTokens) //nolint:gosec // validated at config load
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if len(tools) > 0 {
		decls, err := toGeminiDeclarations(tools)
		if err != nil {
			return llm.Message{}, err
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return llm.CallWithRetry(ctx, c.config.MaxRetries, func(ctx context.Context) (llm.Message, error) {
		result, err := client.Models.GenerateContent(ctx, c.config.Model, contents, cfg)
		if err != nil {
			return llm.Message{}, fmt.Errorf("gemini API call failed: %w", err)
		}
		if result == nil || len(result.Candidates) == 0 {
			return llm.Message{}, fmt.Errorf("empty response from Gemini API")
		}
		return fromGeminiResponse(result), nil
	})
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, clientConfig(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

func clientConfig(config *llm.Config) *genai.ClientConfig {
	timeout := time.Duration(config.HTTPTimeout) * time.Second
	return &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	}
}

// toGeminiContents splits out system messages and maps the rest onto Gemini
// roles. Tool results become function responses on a user turn; consecutive
// turns of one role are merged so parallel calls get all their responses in
// a single turn.
func toGeminiContents(messages []llm.Message) ([]*genai.Content, string) {
	var system []string
	var contents []*genai.Content

	for _, msg := range messages {
		var role string
		var parts []*genai.Part

		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
			continue
		case llm.RoleAssistant:
			role = roleModel
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if len(tc.Arguments) > 0 {
					_ = json.Unmarshal(tc.Arguments, &args)
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: args,
				}})
			}
		case llm.RoleTool:
			role = roleUser
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:   responseID(msg),
				Name: msg.Name,
				Response: map[string]any{
					"content":  msg.Content,
					"is_error": msg.IsError,
				},
			}})
		default:
			role = roleUser
			parts = append(parts, &genai.Part{Text: msg.Content})
		}

		if len(parts) == 0 {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, strings.Join(system, "\n\n")
}

// responseID returns the call id a tool message answers. Gemini ids are optional, so
// an id equal to the function name is dropped.
func responseID(msg llm.Message) string {
	if msg.ToolCallID == msg.Name {
		return ""
	}
	return msg.ToolCallID
}

func fromGeminiResponse(result *genai.GenerateContentResponse) llm.Message {
	out := llm.Message{Role: llm.RoleAssistant}
	if content := result.Candidates[0].Content; content != nil {
		var text []string
		for _, part := range content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				text = append(text, part.Text)
			}
		}
		out.Content = strings.Join(text, "")
	}

	for _, call := range result.FunctionCalls() {
		id := call.ID
		if id == "" {
			id = call.Name
		}
		args := json.RawMessage("{}")
		if len(call.Args) > 0 {
			if data, err := json.Marshal(call.Args); err == nil {
				args = data
			}
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: id, Name: call.Name, Arguments: args})
	}
	return out
}

// jsonSchema is the subset of JSON Schema produced by tool.BuildSchema.
type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Required    []string               `json:"required"`
	Items       *jsonSchema            `json:"items"`
	Enum        []string               `json:"enum"`
}

func toGeminiDeclarations(tools []llm.ToolDefinition) ([]*genai.FunctionDeclaration, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
		if len(t.Parameters) > 0 {
			var s jsonSchema
			if err := json.Unmarshal(t.Parameters, &s); err != nil {
				return nil, fmt.Errorf("tool %q: invalid parameter schema: %w", t.Name, err)
			}
			decl.Parameters = toGeminiSchema(&s)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func toGeminiSchema(s *jsonSchema) *genai.Schema {
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	switch s.Type {
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
		if s.Items != nil {
			out.Items = toGeminiSchema(s.Items)
		}
	case "object":
		out.Type = genai.TypeObject
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}
