package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/sprouts/internal/llm"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to sprouts! Let's configure your gateway.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select completion provider",
		Items: []string{"groq", "openai", "openrouter", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	if cfg.Provider == ProviderOpenAI || cfg.Provider == ProviderOllama {
		// The suggested models for these providers reject reasoning_effort.
		cfg.ReasoningEffort = ""
	}

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(cfg.Provider),
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("model is required")
			}
			return nil
		},
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Structured output mode. Local models rarely honor strict schemas.
	formats := []string{string(llm.FormatJSONSchema), string(llm.FormatJSONObject)}
	if cfg.Provider == ProviderOllama {
		formats[0], formats[1] = formats[1], formats[0]
	}
	formatPrompt := promptui.Select{
		Label: "Structured output mode",
		Items: formats,
	}
	if _, cfg.ResponseFormat, err = formatPrompt.Run(); err != nil {
		return nil, fmt.Errorf("response format: %w", err)
	}

	// 4. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 5. Audit trail.
	auditPrompt := promptui.Select{
		Label: "Record safety decisions to a local audit trail?",
		Items: []string{"no", "yes"},
	}
	auditIdx, _, err := auditPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("audit selection: %w", err)
	}
	cfg.Audit.Enabled = auditIdx == 1

	if envVar := llm.APIKeyEnvVar(string(cfg.Provider)); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running sprouts server.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
