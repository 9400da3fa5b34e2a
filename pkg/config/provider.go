package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/LuyGGG/MonoMind/pkg/llm/openai"
)

// DefaultModel is used when no flag, environment variable or config names one.
const DefaultModel = openai.DefaultModel

// ErrMissingAPIKey is returned when no source supplies an API key.
var ErrMissingAPIKey = errors.New("API key is required: set MONOMIND_API_KEY or OPENAI_API_KEY, pass -api-key, or set llm.api_key in ~/.monomind/config.json")

// LLMOptions are the resolved connection settings for the llm backend.
type LLMOptions struct {
	Model   string
	BaseURL string
	APIKey  string
}

// ResolveLLM merges connection settings with precedence
// flags > environment > config section > defaults.
func ResolveLLM(flags LLMOptions, section *LLMSection) (LLMOptions, error) {
	out := flags

	if out.APIKey == "" {
		out.APIKey = firstEnv("MONOMIND_API_KEY", "OPENAI_API_KEY")
	}
	if out.BaseURL == "" {
		out.BaseURL = firstEnv("MONOMIND_BASE_URL", "OPENAI_BASE_URL")
	}
	if out.Model == "" {
		out.Model = os.Getenv("MONOMIND_MODEL")
	}

	if section != nil {
		if out.Model == "" {
			out.Model = section.GetModel()
		}
		if out.BaseURL == "" {
			out.BaseURL = section.GetBaseURL()
		}
		if out.APIKey == "" {
			out.APIKey = section.GetAPIKey()
		}
	}

	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.APIKey == "" {
		return LLMOptions{}, ErrMissingAPIKey
	}
	return out, nil
}

// BuildProvider resolves settings against the global llm section and creates
// an OpenAI-compatible provider.
func BuildProvider(flags LLMOptions) (*openai.Provider, error) {
	resolved, err := ResolveLLM(flags, GetLLM())
	if err != nil {
		return nil, err
	}

	providerOpts := []openai.ProviderOption{
		openai.WithModel(resolved.Model),
		// Rewrites should be stable across runs
		openai.WithTemperature(0),
	}
	if resolved.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(resolved.BaseURL))
	}

	provider, err := openai.NewProvider(resolved.APIKey, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
