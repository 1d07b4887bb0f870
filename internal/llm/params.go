package llm

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Settings are the defaults a pipeline stage builds its requests from.
type Settings struct {
	Model               string
	Temperature         float64
	TopP                float64
	MaxCompletionTokens int
	ReasoningEffort     string
	Format              ResponseFormat
}

// Params are caller-supplied overrides applied on top of Settings for a
// single request. Nil fields leave the stage default untouched.
type Params struct {
	Model               string   `json:"model,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	TopP                *float64 `json:"top_p,omitempty"`
	MaxCompletionTokens *int     `json:"max_completion_tokens,omitempty"`
	ReasoningEffort     *string  `json:"reasoning_effort,omitempty"`
	Seed                *int     `json:"seed,omitempty"`
	Stop                []string `json:"stop,omitempty"`
}

var knownParams = map[string]bool{
	"model":                 true,
	"temperature":           true,
	"top_p":                 true,
	"max_completion_tokens": true,
	"reasoning_effort":      true,
	"seed":                  true,
	"stop":                  true,
}

// ParamsFromMap decodes loosely typed overrides, such as the extra_params of an
// HTTP request. Keys it does not understand are returned so callers can log them.
func ParamsFromMap(m map[string]any) (Params, []string, error) {
	var p Params
	if len(m) == 0 {
		return p, nil, nil
	}

	var unknown []string
	known := make(map[string]any, len(m))
	for k, v := range m {
		if knownParams[k] {
			known[k] = v
		} else {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	data, err := json.Marshal(known)
	if err != nil {
		return p, unknown, fmt.Errorf("encoding params: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, unknown, fmt.Errorf("decoding params: %w", err)
	}
	// A zero top_p cannot be sent: the OpenAI client drops it and the
	// service falls back to 1.0.
	if p.TopP != nil && (*p.TopP <= 0 || *p.TopP > 1) {
		return p, unknown, fmt.Errorf("top_p must be in (0, 1], got %g", *p.TopP)
	}
	return p, unknown, nil
}

// Request builds a completion request for messages using s, then applies p.
func (s Settings) Request(messages []Message, schema *Schema, p Params) CompletionRequest {
	req := CompletionRequest{
		Model:               s.Model,
		Messages:            messages,
		MaxCompletionTokens: s.MaxCompletionTokens,
		Temperature:         s.Temperature,
		TopP:                s.TopP,
		ReasoningEffort:     s.ReasoningEffort,
		Format:              s.Format,
	}
	if req.Format == FormatJSONSchema {
		req.Schema = schema
	}

	if p.Model != "" {
		req.Model = p.Model
	}
	if p.Temperature != nil {
		req.Temperature = *p.Temperature
	}
	if p.TopP != nil {
		req.TopP = *p.TopP
	}
	if p.MaxCompletionTokens != nil {
		req.MaxCompletionTokens = *p.MaxCompletionTokens
	}
	if p.ReasoningEffort != nil {
		req.ReasoningEffort = *p.ReasoningEffort
	}
	if p.Seed != nil {
		seed := *p.Seed
		req.Seed = &seed
	}
	if p.Stop != nil {
		req.Stop = p.Stop
	}
	return req
}

// WithSystem returns a new slice with a system message holding prompt
// followed by history. history is not modified.
func WithSystem(prompt string, history []Message) []Message {
	out := make([]Message, 0, len(history)+1)
	out = append(out, Message{Role: RoleSystem, Content: prompt})
	return append(out, history...)
}
