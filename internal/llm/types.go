package llm

import "github.com/sashabaranov/go-openai/jsonschema"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ResponseFormat selects how the completion service is asked to shape its output.
type ResponseFormat string

const (
	FormatText       ResponseFormat = "text"
	FormatJSONObject ResponseFormat = "json_object"
	FormatJSONSchema ResponseFormat = "json_schema"
)

// Schema is a named JSON schema the completion output must conform to.
type Schema struct {
	Name       string
	Definition jsonschema.Definition
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model               string
	Messages            []Message
	MaxCompletionTokens int
	Temperature         float64
	TopP                float64
	ReasoningEffort     string
	Seed                *int
	Stop                []string
	Format              ResponseFormat
	// Schema is sent upstream when Format is FormatJSONSchema.
	Schema *Schema
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
