package qna

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ziadkadry99/sprouts/internal/llm"
)

// ClarifyFallback is used when the model does not produce a question.
const ClarifyFallback = "Can you tell me what you want to do with that?"

const clarifyPrompt = `You are careful and kind, talking with a child aged 4-8.
Ask exactly ONE short, friendly question to understand what the child wants to do.
Do not give any instructions, steps, or details about the topic that worried you.
Think privately and never show your reasoning.
Return ONLY JSON: {"message": "<your question>"}.`

// ClarifySchema is the output shape requested for clarifying questions.
var ClarifySchema = &llm.Schema{
	Name: "clarification",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"message": {Type: jsonschema.String},
		},
		Required:             []string{"message"},
		AdditionalProperties: false,
	},
}

// Clarification is a single question asked back to the child.
type Clarification struct {
	Message string `json:"message"`
}

// Clarifier asks one clarifying question about a conversation.
type Clarifier struct {
	provider llm.Provider
	settings llm.Settings
}

// NewClarifier creates a Clarifier.
func NewClarifier(provider llm.Provider, settings llm.Settings) *Clarifier {
	return &Clarifier{provider: provider, settings: settings}
}

// Clarify returns a question for the unmasked history.
func (c *Clarifier) Clarify(ctx context.Context, history []llm.Message, p llm.Params) (Clarification, error) {
	req := c.settings.Request(llm.WithSystem(clarifyPrompt, history), ClarifySchema, p)

	var raw struct {
		Message *string `json:"message"`
	}
	if err := llm.CompleteJSON(ctx, c.provider, req, &raw); err != nil {
		return Clarification{}, err
	}
	return Clarification{Message: orDefault(raw.Message, ClarifyFallback)}, nil
}

// orDefault returns *s, or def when s is nil or blank.
func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}
