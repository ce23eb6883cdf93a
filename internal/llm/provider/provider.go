// Package provider selects the LLM backend for a configuration.
package provider

import (
	"fmt"
	"log"

	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/llm/anthropic"
	"github.com/skillbridge/skillbridge/internal/llm/gemini"
	"github.com/skillbridge/skillbridge/internal/llm/openai"
)

// NewFromEnv creates a provider from environment variables.
func NewFromEnv() (llm.LLMProvider, error) {
	cfg, err := llm.NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load LLM config: %w", err)
	}
	return New(cfg)
}

// New creates the provider named by cfg, inferring it from the model name
// when LLM_PROVIDER is auto.
func New(cfg *llm.Config) (llm.LLMProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	var (
		p   llm.LLMProvider
		err error
	)
	switch name := cfg.ResolveProvider(); name {
	case llm.ProviderGemini:
		p, err = gemini.NewClient(cfg)
	case llm.ProviderAnthropic:
		p, err = anthropic.NewClient(cfg)
	case llm.ProviderOpenAI:
		p, err = openai.NewClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", name)
	}
	if err != nil {
		return nil, err
	}

	mode := "yaml"
	if p.IsToolCallingEnabled() {
		mode = "fc"
	}
	log.Printf("[LLM] Provider: %s, tool mode: %s", p.GetName(), mode)
	return p, nil
}
