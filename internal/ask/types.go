package ask

import (
	"errors"
	"fmt"

	"github.com/ziadkadry99/sprouts/internal/llm"
	"github.com/ziadkadry99/sprouts/internal/moderation"
)

// Action is the routing decision taken for a request.
type Action string

const (
	ActionAllow   Action = "allow"
	ActionClarify Action = "clarify"
	// ActionBlock is reserved. Decide never returns it.
	ActionBlock Action = "block"
)

// ResponseType tells the client how to present Response.Message.
type ResponseType string

const (
	TypeAnswer  ResponseType = "answer"
	TypeClarify ResponseType = "clarify"
)

// Endpoint labels used for counters and the audit trail.
const (
	EndpointAsk  = "/ask"
	EndpointChat = "/ws/chat"
	EndpointMCP  = "mcp"
	EndpointCLI  = "cli"
	EndpointEval = "eval"
)

// Request is one turn of a conversation. The caller resends the full history
// every time.
type Request struct {
	Messages    []llm.Message  `json:"messages"`
	Model       string         `json:"model,omitempty"`
	ExtraParams map[string]any `json:"extra_params,omitempty"`
}

// Validate checks the shape of a request received from outside the process.
func (r Request) Validate() error {
	if r.Messages == nil {
		return errors.New("messages is required")
	}
	for i, m := range r.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("messages[%d].role: %q is not one of user, system, assistant", i, m.Role)
		}
	}
	if _, _, err := llm.ParamsFromMap(r.ExtraParams); err != nil {
		return fmt.Errorf("extra_params: %w", err)
	}
	return nil
}

// Safety carries the routing action together with the verdict it was based on.
type Safety struct {
	Action Action `json:"action"`
	moderation.Verdict
}

// Response is the payload returned for a handled request.
type Response struct {
	Type          ResponseType `json:"type"`
	Message       string       `json:"message"`
	SuggestedNext *string      `json:"suggested_next"`
	Safety        Safety       `json:"safety"`
}

// Outcome summarizes a finished request for observers. It never holds
// message content.
type Outcome struct {
	Endpoint   string
	Action     Action
	Verdict    moderation.Verdict
	PIIMasked  bool
	StatusCode int
	Err        string
}

// RequestError is returned by Pipeline.Handle when any stage fails. Its
// message is the message of the underlying failure.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
