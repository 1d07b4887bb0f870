package config

import "time"

// ProviderType identifies a completion service.
type ProviderType string

const (
	ProviderGroq       ProviderType = "groq"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
)

// Config is the top-level sprouts configuration, corresponding to .sprouts.yml.
type Config struct {
	Provider            ProviderType  `yaml:"provider" koanf:"provider"`
	Model               string        `yaml:"model" koanf:"model"`
	BaseURL             string        `yaml:"base_url,omitempty" koanf:"base_url"`
	APIKey              string        `yaml:"api_key,omitempty" koanf:"api_key"`
	ResponseFormat      string        `yaml:"response_format" koanf:"response_format"`
	MaxCompletionTokens int           `yaml:"max_completion_tokens" koanf:"max_completion_tokens"`
	TopP                float64       `yaml:"top_p" koanf:"top_p"`
	ReasoningEffort     string        `yaml:"reasoning_effort" koanf:"reasoning_effort"`
	Timeout             time.Duration `yaml:"timeout" koanf:"timeout"`

	ClassifierTemperature float64 `yaml:"classifier_temperature" koanf:"classifier_temperature"`
	ClarifierTemperature  float64 `yaml:"clarifier_temperature" koanf:"clarifier_temperature"`
	AnswererTemperature   float64 `yaml:"answerer_temperature" koanf:"answerer_temperature"`

	Host         string       `yaml:"host" koanf:"host"`
	Port         int          `yaml:"port" koanf:"port"`
	CORSAllowAll bool         `yaml:"cors_allow_all" koanf:"cors_allow_all"`
	Audit        AuditConfig  `yaml:"audit" koanf:"audit"`
	Alerts       AlertsConfig `yaml:"alerts" koanf:"alerts"`
}

// AuditConfig controls the safety audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Path    string `yaml:"path" koanf:"path"`

	// Retention is how long events are kept. Zero keeps them forever.
	Retention time.Duration `yaml:"retention" koanf:"retention"`
}

// AlertsConfig controls webhook alerts for flagged conversations.
type AlertsConfig struct {
	Webhooks    []string `yaml:"webhooks" koanf:"webhooks"`
	MinSeverity float64  `yaml:"min_severity" koanf:"min_severity"`
}
