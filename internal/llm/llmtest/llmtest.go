// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ziadkadry99/sprouts/internal/llm"
)

// Provider records every request and answers with Respond.
type Provider struct {
	Respond func(req llm.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []llm.CompletionRequest
}

// Static returns a provider that always answers with content.
func Static(content string) *Provider {
	return &Provider{Respond: func(llm.CompletionRequest) (string, error) {
		return content, nil
	}}
}

// Failing returns a provider whose every call fails with err.
func Failing(err error) *Provider {
	return &Provider{Respond: func(llm.CompletionRequest) (string, error) {
		return "", err
	}}
}

// BySchema returns a provider that answers with the content registered for the
// request's schema name. Requests without a schema, or with an unregistered
// name, fail.
func BySchema(contents map[string]string) *Provider {
	return &Provider{Respond: func(req llm.CompletionRequest) (string, error) {
		if req.Schema == nil {
			return "", errors.New("llmtest: request has no schema")
		}
		content, ok := contents[req.Schema.Name]
		if !ok {
			return "", fmt.Errorf("llmtest: no content for schema %q", req.Schema.Name)
		}
		return content, nil
	}}
}

func (p *Provider) Name() string { return "fake" }

func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	content, err := p.Respond(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content:      content,
		Model:        req.Model,
		FinishReason: "stop",
	}, nil
}

// Calls returns a copy of the requests seen so far.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.calls...)
}

// CallCount returns how many requests were made.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
