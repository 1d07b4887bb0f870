package llm

import (
	"context"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Base URLs of the OpenAI-compatible services the factory knows about.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIProvider implements Provider for any OpenAI-compatible Chat
// Completions API (OpenAI, Groq, OpenRouter).
type OpenAIProvider struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider named name. An empty baseURL uses the
// OpenAI endpoint; a zero timeout leaves the HTTP client without a deadline.
func NewOpenAIProvider(name, apiKey, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxCompletionTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	// go-openai drops a zero temperature from the payload, which the service
	// reads as its default of 1.0.
	temp := float32(req.Temperature)
	if temp <= 0 {
		temp = math.SmallestNonzeroFloat32
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
		Temperature:         temp,
		TopP:                float32(req.TopP),
		ReasoningEffort:     req.ReasoningEffort,
		Seed:                req.Seed,
		Stop:                req.Stop,
		Stream:              false,
	}

	switch req.Format {
	case FormatJSONObject:
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	case FormatJSONSchema:
		if req.Schema != nil {
			apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   req.Schema.Name,
					Schema: &req.Schema.Definition,
				},
			}
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: finishReason,
	}, nil
}
