package qna

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ziadkadry99/sprouts/internal/llm"
)

// AnswerFallback is used when the model does not produce an answer.
const AnswerFallback = "I'm here to help! What would you like to know?"

const answerPrompt = `You help kids aged 4-8.
Answer in 1 to 3 short sentences, clearly and kindly, using simple words.
Encourage curiosity. Never give unsafe instructions.
You may suggest one gentle follow-up question in suggested_next, or leave it empty.
Think privately and never show your reasoning.
Return ONLY JSON: {"message": "<your answer>", "suggested_next": "<follow-up question or empty>"}.`

// AnswerSchema is the output shape requested for answers.
var AnswerSchema = &llm.Schema{
	Name: "answer",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"message":        {Type: jsonschema.String},
			"suggested_next": {Type: jsonschema.String},
		},
		Required:             []string{"message", "suggested_next"},
		AdditionalProperties: false,
	},
}

// Answer is a kid-safe reply with an optional follow-up suggestion.
type Answer struct {
	Message       string  `json:"message"`
	SuggestedNext *string `json:"suggested_next"`
}

// Answerer produces short, kid-safe answers.
type Answerer struct {
	provider llm.Provider
	settings llm.Settings
}

// NewAnswerer creates an Answerer.
func NewAnswerer(provider llm.Provider, settings llm.Settings) *Answerer {
	return &Answerer{provider: provider, settings: settings}
}

// Answer replies to the unmasked history.
func (a *Answerer) Answer(ctx context.Context, history []llm.Message, p llm.Params) (Answer, error) {
	req := a.settings.Request(llm.WithSystem(answerPrompt, history), AnswerSchema, p)

	var raw struct {
		Message       *string `json:"message"`
		SuggestedNext *string `json:"suggested_next"`
	}
	if err := llm.CompleteJSON(ctx, a.provider, req, &raw); err != nil {
		return Answer{}, err
	}

	ans := Answer{Message: orDefault(raw.Message, AnswerFallback)}
	if raw.SuggestedNext != nil && strings.TrimSpace(*raw.SuggestedNext) != "" {
		ans.SuggestedNext = raw.SuggestedNext
	}
	return ans, nil
}
