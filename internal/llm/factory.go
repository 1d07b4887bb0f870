package llm

import (
	"fmt"
	"os"
	"time"
)

// Options configure how NewProvider reaches the completion service.
type Options struct {
	// APIKey takes precedence over the provider's environment variable.
	APIKey string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	Timeout time.Duration
}

// APIKeyEnvVar returns the environment variable holding the credential for
// providerType, or "" when the provider needs none.
func APIKeyEnvVar(providerType string) string {
	switch providerType {
	case "groq":
		return "GROQ_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// NewProvider creates a new completion provider based on the given provider type and model.
// Supported provider types: "groq", "openai", "openrouter", "ollama".
// A missing credential is reported as a *ConfigurationError.
func NewProvider(providerType string, model string, opts Options) (Provider, error) {
	switch providerType {
	case "groq", "openai", "openrouter":
		envVar := APIKeyEnvVar(providerType)
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = os.Getenv(envVar)
		}
		if apiKey == "" {
			return nil, &ConfigurationError{
				Setting: envVar,
				Hint:    "Set the environment variable or pass api_key explicitly.",
			}
		}
		baseURL := opts.BaseURL
		if baseURL == "" {
			switch providerType {
			case "groq":
				baseURL = GroqBaseURL
			case "openrouter":
				baseURL = OpenRouterBaseURL
			}
		}
		return NewOpenAIProvider(providerType, apiKey, baseURL, model, opts.Timeout), nil

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = DefaultOllamaHost
		}
		return NewOllamaProvider(host, model, opts.Timeout), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
