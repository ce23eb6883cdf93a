package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultModel is used when MODEL is not set.
const DefaultModel = "gemini-2.0-flash"

// Config holds the provider-neutral LLM configuration.
type Config struct {
	Provider     string   // "auto", "openai", "gemini", "anthropic"
	APIKey       string   // API key for authentication
	BaseURL      string   // OpenAI-compatible base URL (ignored by native SDKs)
	Model        string   // Model identifier (default: gemini-2.0-flash)
	Temperature  *float32 // Response creativity 0.0-2.0 (nil = API default)
	MaxTokens    int      // Max tokens in response, 0 = provider default
	MaxRetries   int      // HTTP-level retry for transient errors only (default: 1)
	ToolCallMode string   // "auto", "fc" or "yaml" (default: "auto")
	HTTPTimeout  int      // Per-request timeout in seconds (default: 120)
}

// NewConfigFromEnv creates Config from environment variables.
// Expected env vars: MODEL, LLM_PROVIDER, LLM_API_KEY (or a provider-specific
// key), LLM_BASE_URL, LLM_TEMPERATURE, LLM_MAX_TOKENS, LLM_MAX_RETRIES,
// LLM_TOOL_CALL_MODE, LLM_HTTP_TIMEOUT.
func NewConfigFromEnv() (*Config, error) {
	model := getEnvOrDefault("MODEL", getEnvOrDefault("LLM_MODEL", DefaultModel))
	config := &Config{
		Provider:     getEnvOrDefault("LLM_PROVIDER", ProviderAuto),
		BaseURL:      getEnvOrDefault("LLM_BASE_URL", ""),
		Model:        model,
		Temperature:  getEnvFloat32Ptr("LLM_TEMPERATURE"),
		MaxTokens:    getEnvIntOrDefault("LLM_MAX_TOKENS", 0),
		MaxRetries:   getEnvIntOrDefault("LLM_MAX_RETRIES", 1),
		ToolCallMode: getEnvOrDefault("LLM_TOOL_CALL_MODE", "auto"),
		HTTPTimeout:  getEnvIntOrDefault("LLM_HTTP_TIMEOUT", 120),
	}
	config.APIKey = resolveAPIKey(config.ResolveProvider())

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ResolveProvider returns the concrete provider name for this config.
func (c *Config) ResolveProvider() string {
	return ResolveProvider(c.Provider, c.Model)
}

// ResolveToolCallMode reports whether Function Calling should be used.
func (c *Config) ResolveToolCallMode() bool {
	return ResolveToolCallMode(c.ToolCallMode, c.Model)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.ResolveProvider() {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of auto, openai, gemini, anthropic; got %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required. Set it in .env or environment")
	}
	if c.Model == "" {
		return fmt.Errorf("MODEL cannot be empty")
	}
	if c.Temperature != nil && (*c.Temperature < 0.0 || *c.Temperature > 2.0) {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0.0 and 2.0, got %f", *c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES cannot be negative, got %d", c.MaxRetries)
	}
	switch strings.ToLower(c.ToolCallMode) {
	case "", "auto", "fc", "yaml":
	default:
		return fmt.Errorf("LLM_TOOL_CALL_MODE must be 'auto', 'fc' or 'yaml', got %q", c.ToolCallMode)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("LLM_HTTP_TIMEOUT must be positive, got %d", c.HTTPTimeout)
	}
	return nil
}

// resolveAPIKey prefers LLM_API_KEY, then the provider's conventional variable.
func resolveAPIKey(provider string) string {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		return v
	}
	var candidates []string
	switch provider {
	case ProviderGemini:
		candidates = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderAnthropic:
		candidates = []string{"ANTHROPIC_API_KEY"}
	default:
		candidates = []string{"OPENAI_API_KEY"}
	}
	for _, name := range candidates {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvFloat32Ptr(key string) *float32 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			f := float32(parsed)
			return &f
		}
	}
	return nil
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
