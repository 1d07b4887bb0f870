package config

import "time"

// DefaultPath is where the config file is looked up when --config is not given.
const DefaultPath = ".sprouts.yml"

// defaultModels is the model the wizard suggests for each provider.
var defaultModels = map[ProviderType]string{
	ProviderGroq:       "openai/gpt-oss-20b",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openai/gpt-oss-20b",
	ProviderOllama:     "llama3.1",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:              ProviderGroq,
		Model:                 "openai/gpt-oss-20b",
		ResponseFormat:        "json_schema",
		MaxCompletionTokens:   8192,
		TopP:                  1.0,
		ReasoningEffort:       "high",
		Timeout:               60 * time.Second,
		ClassifierTemperature: 0,
		ClarifierTemperature:  0.4,
		AnswererTemperature:   0.6,
		Host:                  "0.0.0.0",
		Port:                  8000,
		CORSAllowAll:          true,
		Audit: AuditConfig{
			Enabled:   false,
			Path:      "sprouts.db",
			Retention: 720 * time.Hour,
		},
		Alerts: AlertsConfig{
			MinSeverity: 0.7,
		},
	}
}

// DefaultModel returns the suggested model for provider, falling back to the
// Groq default.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderGroq]
}
