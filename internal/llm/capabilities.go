package llm

import "strings"

// Provider identifiers accepted by LLM_PROVIDER.
const (
	ProviderAuto      = "auto"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// baseModelName lowercases and strips provider prefixes
// (e.g. "Pro/deepseek-ai/DeepSeek-V3" → "deepseek-v3").
func baseModelName(modelName string) string {
	parts := strings.Split(strings.ToLower(modelName), "/")
	return parts[len(parts)-1]
}

// DetectProvider infers the backend from a model name. Gemini and Claude
// model families go to their native SDKs; everything else is treated as an
// OpenAI-compatible endpoint (OpenAI, litellm, Ollama, vLLM, ...).
func DetectProvider(modelName string) string {
	base := baseModelName(modelName)
	switch {
	case strings.HasPrefix(base, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(base, "claude"):
		return ProviderAnthropic
	default:
		return ProviderOpenAI
	}
}

// ResolveProvider returns the configured provider, resolving "auto" (or an
// empty value) from the model name.
func ResolveProvider(configured, modelName string) string {
	p := strings.ToLower(strings.TrimSpace(configured))
	if p == "" || p == ProviderAuto {
		return DetectProvider(modelName)
	}
	return p
}

// DetectToolCallingCapability determines if a model supports Function Calling
// based on a blacklist approach: most modern models support FC, so we only
// exclude known unsupported ones.
func DetectToolCallingCapability(modelName string) bool {
	// Blacklist: models known NOT to support Function Calling.
	// Uses exact match to avoid blocking future variants (e.g. "o1-mini-turbo").
	noFCModels := map[string]bool{
		"o1-mini":    true,
		"o1-preview": true,
	}
	return !noFCModels[baseModelName(modelName)]
}

// ResolveToolCallMode turns a raw LLM_TOOL_CALL_MODE value ("auto", "fc",
// "yaml") into a concrete decision: true means Function Calling.
func ResolveToolCallMode(mode, modelName string) bool {
	switch strings.ToLower(mode) {
	case "fc":
		return true
	case "yaml":
		return false
	default:
		return DetectToolCallingCapability(modelName)
	}
}
