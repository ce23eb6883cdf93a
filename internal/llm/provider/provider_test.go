package provider

import (
	"strings"
	"testing"

	"github.com/skillbridge/skillbridge/internal/llm"
)

func TestNew_SelectsByModel(t *testing.T) {
	tests := []struct {
		model    string
		provider string
		wantName string
	}{
		{"gemini-2.0-flash", llm.ProviderAuto, "gemini"},
		{"claude-sonnet-4-5", llm.ProviderAuto, "anthropic"},
		{"gpt-4o", llm.ProviderAuto, "openai-compatible"},
		{"llama-3.1-70b", llm.ProviderOpenAI, "openai-compatible"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			cfg := &llm.Config{Provider: tt.provider, APIKey: "k", Model: tt.model, HTTPTimeout: 5}
			p, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if !strings.HasPrefix(p.GetName(), tt.wantName) {
				t.Errorf("GetName() = %q, want prefix %q", p.GetName(), tt.wantName)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := New(&llm.Config{Provider: "cohere", APIKey: "k", Model: "x", HTTPTimeout: 5}); err == nil {
		t.Error("unknown provider should fail")
	}
}
