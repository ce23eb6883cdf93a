package llm

import "testing"

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gemini-2.0-flash", ProviderGemini},
		{"models/Gemini-2.5-pro", ProviderGemini},
		{"claude-sonnet-4-20250514", ProviderAnthropic},
		{"gpt-4o", ProviderOpenAI},
		{"Pro/deepseek-ai/DeepSeek-V3", ProviderOpenAI},
		{"", ProviderOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := DetectProvider(tt.model); got != tt.want {
				t.Errorf("DetectProvider(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		model      string
		want       string
	}{
		{"empty resolves from model", "", "gemini-2.0-flash", ProviderGemini},
		{"auto resolves from model", "auto", "claude-3-7-sonnet", ProviderAnthropic},
		{"explicit wins over model", "openai", "gemini-2.0-flash", ProviderOpenAI},
		{"case and spaces ignored", " Gemini ", "gpt-4o", ProviderGemini},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveProvider(tt.configured, tt.model); got != tt.want {
				t.Errorf("ResolveProvider(%q, %q) = %q, want %q", tt.configured, tt.model, got, tt.want)
			}
		})
	}
}

func TestDetectToolCallingCapability(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"gemini-2.0-flash", true},
		{"o1-mini", false},
		{"openai/o1-preview", false},
		{"o1-mini-turbo", true},
	}
	for _, tt := range tests {
		if got := DetectToolCallingCapability(tt.model); got != tt.want {
			t.Errorf("DetectToolCallingCapability(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestResolveToolCallMode(t *testing.T) {
	if !ResolveToolCallMode("fc", "o1-mini") {
		t.Error("fc mode should force function calling")
	}
	if ResolveToolCallMode("yaml", "gpt-4o") {
		t.Error("yaml mode should disable function calling")
	}
	if !ResolveToolCallMode("auto", "gpt-4o") {
		t.Error("auto mode should detect FC for gpt-4o")
	}
	if ResolveToolCallMode("", "o1-preview") {
		t.Error("empty mode should behave like auto")
	}
}
