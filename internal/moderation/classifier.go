package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ziadkadry99/sprouts/internal/llm"
)

const systemPrompt = `You are a strict safety grader for a chat used by children aged 4-8.
Read the ENTIRE conversation, not only the latest message, and infer what the child is trying to do.
An innocent-looking follow-up to a worrying earlier turn is still bad.

Return ONLY a JSON object with exactly these keys:
- intent: "good" or "bad". Use "bad" when the request is concerning or needs more context before it can be answered.
- must_block: true when the content is never acceptable for young children (sexual content, self-harm instructions, hate, weapon making).
- category: one of %s.
- severity: a number from 0.0 (harmless) to 1.0 (severe).
- reasons: a short list of short strings.

Think privately. Never include your reasoning steps in the output; the JSON object is the whole reply.`

var prompt = fmt.Sprintf(systemPrompt, strings.Join(categoryNames(), ", "))

// Schema is the output shape requested from the completion service.
var Schema = &llm.Schema{
	Name: "moderation_verdict",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"intent": {
				Type: jsonschema.String,
				Enum: []string{string(IntentGood), string(IntentBad)},
			},
			"must_block": {Type: jsonschema.Boolean},
			"category": {
				Type: jsonschema.String,
				Enum: categoryNames(),
			},
			"severity": {Type: jsonschema.Number},
			"reasons": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required:             []string{"intent", "must_block", "category", "severity", "reasons"},
		AdditionalProperties: false,
	},
}

// Classifier grades a conversation for child safety.
type Classifier struct {
	provider llm.Provider
	settings llm.Settings
}

// NewClassifier creates a Classifier. settings normally carry a temperature of 0.
func NewClassifier(provider llm.Provider, settings llm.Settings) *Classifier {
	return &Classifier{provider: provider, settings: settings}
}

// Classify sends history to the grader and returns its verdict with defaults
// filled in for any field the grader left out. history should already have
// PII masked; it is not modified.
func (c *Classifier) Classify(ctx context.Context, history []llm.Message, p llm.Params) (Verdict, error) {
	req := c.settings.Request(llm.WithSystem(prompt, history), Schema, p)

	var raw rawVerdict
	if err := llm.CompleteJSON(ctx, c.provider, req, &raw); err != nil {
		return Verdict{}, err
	}
	return raw.normalize(), nil
}

func categoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}
