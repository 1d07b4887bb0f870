package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string, content string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      content,
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var testSchema = &Schema{
	Name: "verdict",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"intent":   {Type: jsonschema.String, Enum: []string{"good", "bad"}},
			"severity": {Type: jsonschema.Number},
			"reasons":  {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		},
		Required:             []string{"intent", "severity", "reasons"},
		AdditionalProperties: false,
	},
}

type testVerdict struct {
	Intent   *string  `json:"intent"`
	Severity *float64 `json:"severity"`
	Reasons  []string `json:"reasons"`
}

// --- CompleteJSON ---

func TestCompleteJSONDecodesObject(t *testing.T) {
	mock := NewMockProvider("test", `{"intent":"bad","severity":0.7,"reasons":["weapon"]}`)
	req := CompletionRequest{Format: FormatJSONSchema, Schema: testSchema}

	var v testVerdict
	if err := CompleteJSON(context.Background(), mock, req, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Intent == nil || *v.Intent != "bad" {
		t.Errorf("expected intent 'bad', got %v", v.Intent)
	}
	if v.Severity == nil || *v.Severity != 0.7 {
		t.Errorf("expected severity 0.7, got %v", v.Severity)
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "weapon" {
		t.Errorf("unexpected reasons: %v", v.Reasons)
	}
}

func TestCompleteJSONStripsFences(t *testing.T) {
	mock := NewMockProvider("test", "```json\n{\"intent\":\"good\"}\n```")

	var v testVerdict
	if err := CompleteJSON(context.Background(), mock, CompletionRequest{}, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Intent == nil || *v.Intent != "good" {
		t.Errorf("expected intent 'good', got %v", v.Intent)
	}
}

func TestCompleteJSONUpgradesFormat(t *testing.T) {
	tests := []struct {
		name string
		req  CompletionRequest
		want ResponseFormat
	}{
		{"empty", CompletionRequest{}, FormatJSONObject},
		{"text", CompletionRequest{Format: FormatText}, FormatJSONObject},
		{"schema without definition", CompletionRequest{Format: FormatJSONSchema}, FormatJSONObject},
		{"schema", CompletionRequest{Format: FormatJSONSchema, Schema: testSchema}, FormatJSONSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider("test", `{}`)
			var v testVerdict
			if err := CompleteJSON(context.Background(), mock, tt.req, &v); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := mock.Calls[0].Format; got != tt.want {
				t.Errorf("expected format %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCompleteJSONEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   \n"} {
		mock := NewMockProvider("test", content)
		var v testVerdict
		err := CompleteJSON(context.Background(), mock, CompletionRequest{}, &v)
		if !errors.Is(err, ErrEmptyContent) {
			t.Errorf("content %q: expected ErrEmptyContent, got %v", content, err)
		}
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Errorf("content %q: expected *UpstreamError, got %T", content, err)
		}
	}
}

func TestCompleteJSONInvalidJSON(t *testing.T) {
	mock := NewMockProvider("test", `{"intent": "good",`)
	var v testVerdict
	err := CompleteJSON(context.Background(), mock, CompletionRequest{}, &v)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upstream.Op != "parsing JSON content" {
		t.Errorf("unexpected op %q", upstream.Op)
	}
}

func TestCompleteJSONRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"enum", `{"intent":"maybe"}`, `intent: "maybe" is not one of good, bad`},
		{"enum wrong type", `{"intent":3}`, "intent: expected string"},
		{"type", `{"severity":"high"}`, "severity: expected number"},
		{"array items", `{"reasons":[1,2]}`, "reasons: expected array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider("test", tt.content)
			req := CompletionRequest{Format: FormatJSONSchema, Schema: testSchema}
			var v testVerdict
			err := CompleteJSON(context.Background(), mock, req, &v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to contain %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestCompleteJSONAllowsMissingAndNullFields(t *testing.T) {
	mock := NewMockProvider("test", `{"intent":null,"extra":true}`)
	req := CompletionRequest{Format: FormatJSONSchema, Schema: testSchema}

	var v testVerdict
	if err := CompleteJSON(context.Background(), mock, req, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Intent != nil || v.Severity != nil || v.Reasons != nil {
		t.Errorf("expected all fields unset, got %+v", v)
	}
}

func TestCompleteJSONProviderError(t *testing.T) {
	mock := NewMockProvider("groq", "")
	mock.Err = errors.New("connection refused")

	var v testVerdict
	err := CompleteJSON(context.Background(), mock, CompletionRequest{}, &v)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "groq completion: connection refused" {
		t.Errorf("unexpected error text %q", err.Error())
	}
}

// --- Params ---

func TestParamsFromMap(t *testing.T) {
	p, unknown, err := ParamsFromMap(map[string]any{
		"temperature":           0.2,
		"max_completion_tokens": 256,
		"seed":                  float64(7),
		"stop":                  []any{"END"},
		"frequency_penalty":     1,
		"logprobs":              true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Temperature == nil || *p.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", p.Temperature)
	}
	if p.MaxCompletionTokens == nil || *p.MaxCompletionTokens != 256 {
		t.Errorf("expected max tokens 256, got %v", p.MaxCompletionTokens)
	}
	if p.Seed == nil || *p.Seed != 7 {
		t.Errorf("expected seed 7, got %v", p.Seed)
	}
	if len(p.Stop) != 1 || p.Stop[0] != "END" {
		t.Errorf("unexpected stop: %v", p.Stop)
	}
	if p.TopP != nil || p.ReasoningEffort != nil {
		t.Errorf("expected unset fields to stay nil, got %+v", p)
	}
	if len(unknown) != 2 || unknown[0] != "frequency_penalty" || unknown[1] != "logprobs" {
		t.Errorf("unexpected unknown keys: %v", unknown)
	}
}

func TestParamsFromMapEmpty(t *testing.T) {
	p, unknown, err := ParamsFromMap(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Temperature != nil || unknown != nil {
		t.Errorf("expected zero params, got %+v %v", p, unknown)
	}
}

func TestParamsFromMapBadType(t *testing.T) {
	_, _, err := ParamsFromMap(map[string]any{"temperature": "warm"})
	if err == nil {
		t.Fatal("expected error for non-numeric temperature")
	}
}

func TestParamsFromMapTopPRange(t *testing.T) {
	for _, v := range []float64{0, -0.5, 1.5} {
		_, _, err := ParamsFromMap(map[string]any{"top_p": v})
		if err == nil || !strings.Contains(err.Error(), "top_p must be in (0, 1]") {
			t.Errorf("top_p %g: expected range error, got %v", v, err)
		}
	}
	p, _, err := ParamsFromMap(map[string]any{"top_p": 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TopP == nil || *p.TopP != 0.3 {
		t.Errorf("expected top_p 0.3, got %v", p.TopP)
	}
}

func TestSettingsRequest(t *testing.T) {
	s := Settings{
		Model:               "openai/gpt-oss-20b",
		Temperature:         0.4,
		TopP:                1,
		MaxCompletionTokens: 8192,
		ReasoningEffort:     "high",
		Format:              FormatJSONSchema,
	}
	msgs := []Message{{Role: RoleUser, Content: "hi"}}

	req := s.Request(msgs, testSchema, Params{})
	if req.Model != s.Model || req.Temperature != 0.4 || req.ReasoningEffort != "high" {
		t.Errorf("settings not copied: %+v", req)
	}
	if req.Schema != testSchema {
		t.Error("expected schema to be attached for json_schema format")
	}

	temp := 0.9
	seed := 3
	req = s.Request(msgs, testSchema, Params{Model: "other", Temperature: &temp, Seed: &seed})
	if req.Model != "other" || req.Temperature != 0.9 || req.Seed == nil || *req.Seed != 3 {
		t.Errorf("overrides not applied: %+v", req)
	}
	if req.TopP != 1 || req.MaxCompletionTokens != 8192 {
		t.Errorf("unset overrides changed defaults: %+v", req)
	}

	s.Format = FormatJSONObject
	if req := s.Request(msgs, testSchema, Params{}); req.Schema != nil {
		t.Error("expected no schema for json_object format")
	}
}

func TestWithSystem(t *testing.T) {
	history := []Message{{Role: RoleUser, Content: "hi"}}
	out := WithSystem("be nice", history)
	if len(out) != 2 || out[0].Role != RoleSystem || out[0].Content != "be nice" || out[1] != history[0] {
		t.Errorf("unexpected messages: %+v", out)
	}
	out[1].Content = "changed"
	if history[0].Content != "hi" {
		t.Error("history was modified")
	}
}

// --- Factory ---

func TestFactoryReturnsConfigurationErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := NewProvider("groq", "openai/gpt-oss-20b", Options{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
	if cfgErr.Setting != "GROQ_API_KEY" {
		t.Errorf("expected GROQ_API_KEY, got %q", cfgErr.Setting)
	}
	if !strings.HasPrefix(err.Error(), "GROQ_API_KEY is not set") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestFactoryUsesEnvironmentKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")

	p, err := NewProvider("groq", "openai/gpt-oss-20b", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "groq" {
		t.Errorf("expected 'groq', got %q", p.Name())
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("unknown", "model", Options{})
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestFactoryCreatesProvidersWithExplicitKey(t *testing.T) {
	for _, name := range []string{"groq", "openai", "openrouter"} {
		p, err := NewProvider(name, "model", Options{APIKey: "test-key"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("expected %q, got %q", name, p.Name())
		}
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")

	p, err := NewProvider("ollama", "llama3", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, ok := p.(*OllamaProvider)
	if !ok {
		t.Fatalf("expected *OllamaProvider, got %T", p)
	}
	if op.baseURL != DefaultOllamaHost {
		t.Errorf("expected default host, got %q", op.baseURL)
	}
}

// --- Wire formats ---

func TestOpenAIProviderRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "openai/gpt-oss-20b",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"intent\":\"good\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("groq", "test-key", srv.URL, "openai/gpt-oss-20b", 5*time.Second)
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:        []Message{{Role: RoleUser, Content: "hi"}},
		TopP:            1,
		ReasoningEffort: "high",
		Format:          FormatJSONSchema,
		Schema:          testSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != `{"intent":"good"}` || resp.InputTokens != 12 || resp.OutputTokens != 5 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got["model"] != "openai/gpt-oss-20b" {
		t.Errorf("expected default model, got %v", got["model"])
	}
	if got["max_completion_tokens"] != float64(8192) {
		t.Errorf("expected default max_completion_tokens, got %v", got["max_completion_tokens"])
	}
	if temp, ok := got["temperature"].(float64); !ok || temp <= 0 || temp > 1e-30 {
		t.Errorf("expected near-zero temperature, got %v", got["temperature"])
	}
	if got["reasoning_effort"] != "high" {
		t.Errorf("expected reasoning_effort high, got %v", got["reasoning_effort"])
	}
	rf, _ := got["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("expected json_schema response format, got %v", got["response_format"])
	}
	if js, _ := rf["json_schema"].(map[string]any); js["name"] != "verdict" {
		t.Errorf("expected schema name verdict, got %v", rf["json_schema"])
	}
}

func TestOpenAIProviderReturnsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("groq", "test-key", srv.URL, "m", 5*time.Second)
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestOllamaProviderRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{}"},"done":true,"done_reason":"stop","prompt_eval_count":3,"eval_count":1}`))
	}))
	defer srv.Close()

	seed := 42
	p := NewOllamaProvider(srv.URL, "llama3", 5*time.Second)
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: 0.4,
		Seed:        &seed,
		Format:      FormatJSONSchema,
		Schema:      testSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "{}" || resp.FinishReason != "stop" || resp.InputTokens != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got["stream"] != false {
		t.Errorf("expected stream false, got %v", got["stream"])
	}
	opts, _ := got["options"].(map[string]any)
	if opts["temperature"] != 0.4 || opts["seed"] != float64(42) {
		t.Errorf("unexpected options: %v", opts)
	}
	format, _ := got["format"].(map[string]any)
	if format["type"] != "object" {
		t.Errorf("expected schema object as format, got %v", got["format"])
	}
}

func TestOllamaProviderJSONObjectFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{}"},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3", 5*time.Second)
	if _, err := p.Complete(context.Background(), CompletionRequest{Format: FormatJSONObject}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["format"] != "json" {
		t.Errorf("expected format json, got %v", got["format"])
	}
}

func TestRoles(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant} {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if Role("tool").Valid() {
		t.Error("expected 'tool' to be invalid")
	}
}
