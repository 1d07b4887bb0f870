package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/sprouts/internal/llm"
)

// EnvPrefix marks environment variables that override config keys.
// A double underscore selects a nested key: SPROUTS_AUDIT__ENABLED -> audit.enabled.
const EnvPrefix = "SPROUTS_"

// Load reads configuration from the given YAML file, then overlays the
// plain HOST and PORT variables and finally SPROUTS_* overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	for _, name := range []string{"HOST", "PORT"} {
		if v := os.Getenv(name); v != "" {
			if err := k.Set(strings.ToLower(name), v); err != nil {
				return nil, fmt.Errorf("applying %s: %w", name, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderGroq:       true,
	ProviderOpenAI:     true,
	ProviderOpenRouter: true,
	ProviderOllama:     true,
}

var validFormats = map[string]bool{
	string(llm.FormatJSONSchema): true,
	string(llm.FormatJSONObject): true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of groq, openai, openrouter, ollama", c.Provider)
	}

	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}

	if !validFormats[c.ResponseFormat] {
		return fmt.Errorf("invalid response_format %q: must be json_schema or json_object", c.ResponseFormat)
	}

	if c.MaxCompletionTokens < 0 {
		return fmt.Errorf("max_completion_tokens must be non-negative")
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %g", c.TopP)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	temps := []struct {
		key string
		val float64
	}{
		{"classifier_temperature", c.ClassifierTemperature},
		{"clarifier_temperature", c.ClarifierTemperature},
		{"answerer_temperature", c.AnswererTemperature},
	}
	for _, t := range temps {
		if t.val < 0 || t.val > 2 {
			return fmt.Errorf("%s must be in [0, 2], got %g", t.key, t.val)
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention must be non-negative")
	}

	if c.Alerts.MinSeverity < 0 || c.Alerts.MinSeverity > 1 {
		return fmt.Errorf("alerts.min_severity must be in [0, 1], got %g", c.Alerts.MinSeverity)
	}
	for _, u := range c.Alerts.Webhooks {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("alerts.webhooks: %q is not an http(s) URL", u)
		}
	}

	return nil
}

// Settings returns the request defaults for a pipeline stage running at
// temperature.
func (c *Config) Settings(temperature float64) llm.Settings {
	return llm.Settings{
		Model:               c.Model,
		Temperature:         temperature,
		TopP:                c.TopP,
		MaxCompletionTokens: c.MaxCompletionTokens,
		ReasoningEffort:     c.ReasoningEffort,
		Format:              llm.ResponseFormat(c.ResponseFormat),
	}
}

// ProviderOptions returns the connection options for llm.NewProvider.
func (c *Config) ProviderOptions() llm.Options {
	return llm.Options{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
	}
}
