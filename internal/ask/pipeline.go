package ask

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/ziadkadry99/sprouts/internal/llm"
	"github.com/ziadkadry99/sprouts/internal/moderation"
	"github.com/ziadkadry99/sprouts/internal/pii"
	"github.com/ziadkadry99/sprouts/internal/qna"
)

// Classifier grades a conversation.
type Classifier interface {
	Classify(ctx context.Context, history []llm.Message, p llm.Params) (moderation.Verdict, error)
}

// Clarifier asks a clarifying question.
type Clarifier interface {
	Clarify(ctx context.Context, history []llm.Message, p llm.Params) (qna.Clarification, error)
}

// Answerer answers a conversation judged safe.
type Answerer interface {
	Answer(ctx context.Context, history []llm.Message, p llm.Params) (qna.Answer, error)
}

// Counters receives the request and unsafe-flag counts. Implementations must
// be safe for concurrent use.
type Counters interface {
	ObserveRequest(endpoint string, statusCode int, safe bool)
	ObserveUnsafe(category string)
}

// Observer is told about every finished request, successful or not.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

// Pipeline routes a conversation to a clarifying question or an answer.
type Pipeline struct {
	classifier Classifier
	clarifier  Clarifier
	answerer   Answerer
	counters   Counters
	observers  []Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver adds an observer that sees every outcome.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observers = append(p.observers, o)
	}
}

// NewPipeline creates a Pipeline. counters may be nil.
func NewPipeline(classifier Classifier, clarifier Clarifier, answerer Answerer, counters Counters, opts ...Option) *Pipeline {
	if counters == nil {
		counters = nopCounters{}
	}
	p := &Pipeline{
		classifier: classifier,
		clarifier:  clarifier,
		answerer:   answerer,
		counters:   counters,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide maps a verdict to a routing action.
func Decide(v moderation.Verdict) Action {
	if v.Unsafe() {
		return ActionClarify
	}
	return ActionAllow
}

// Handle runs one request through masking, classification and the chosen
// generator. endpoint labels the counters. Any failure, including a panic in a
// stage, is returned as a *RequestError after the failure has been counted.
func (p *Pipeline) Handle(ctx context.Context, endpoint string, req Request) (resp *Response, err error) {
	out := Outcome{Endpoint: endpoint}

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, p.fail(ctx, out, fmt.Errorf("%v", r))
		}
	}()

	params, unknown, err := llm.ParamsFromMap(req.ExtraParams)
	if err != nil {
		return nil, p.fail(ctx, out, fmt.Errorf("extra_params: %w", err))
	}
	if len(unknown) > 0 {
		log.Printf("ask: ignoring unknown extra_params %v", unknown)
	}
	if req.Model != "" {
		params.Model = req.Model
	}

	masked, hadPII := maskLast(req.Messages)
	out.PIIMasked = hadPII

	verdict, err := p.classifier.Classify(ctx, masked, params)
	if err != nil {
		return nil, p.fail(ctx, out, err)
	}
	out.Verdict = verdict
	out.Action = Decide(verdict)

	resp = &Response{Safety: Safety{Action: out.Action, Verdict: verdict}}
	switch out.Action {
	case ActionClarify:
		c, err := p.clarifier.Clarify(ctx, req.Messages, params)
		if err != nil {
			return nil, p.fail(ctx, out, err)
		}
		resp.Type = TypeClarify
		resp.Message = c.Message

		p.counters.ObserveUnsafe(string(verdict.Category))
		p.counters.ObserveRequest(endpoint, http.StatusOK, false)

	default:
		a, err := p.answerer.Answer(ctx, req.Messages, params)
		if err != nil {
			return nil, p.fail(ctx, out, err)
		}
		resp.Type = TypeAnswer
		resp.Message = a.Message
		resp.SuggestedNext = a.SuggestedNext

		p.counters.ObserveRequest(endpoint, http.StatusOK, true)
	}

	log.Printf("ask: %s action=%s intent=%s category=%s severity=%.2f pii=%t",
		endpoint, out.Action, verdict.Intent, verdict.Category, verdict.Severity, hadPII)

	out.StatusCode = http.StatusOK
	p.observe(ctx, out)
	return resp, nil
}

func (p *Pipeline) fail(ctx context.Context, out Outcome, cause error) error {
	log.Printf("ask: %s failed: %v", out.Endpoint, cause)
	p.counters.ObserveRequest(out.Endpoint, http.StatusInternalServerError, false)

	out.StatusCode = http.StatusInternalServerError
	out.Err = cause.Error()
	p.observe(ctx, out)
	return &RequestError{Err: cause}
}

func (p *Pipeline) observe(ctx context.Context, out Outcome) {
	ctx = context.WithoutCancel(ctx)
	for _, o := range p.observers {
		o.Observe(ctx, out)
	}
}

// maskLast returns a copy of messages with PII masked in the last message
// only. messages is not modified.
func maskLast(messages []llm.Message) ([]llm.Message, bool) {
	out := make([]llm.Message, len(messages))
	copy(out, messages)
	if len(out) == 0 {
		return out, false
	}
	last := &out[len(out)-1]
	masked, had := pii.Mask(last.Content)
	last.Content = masked
	return out, had
}

type nopCounters struct{}

func (nopCounters) ObserveRequest(string, int, bool) {}
func (nopCounters) ObserveUnsafe(string)             {}
