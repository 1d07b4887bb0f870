package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/sprouts/internal/ask"
)

const (
	queueSize    = 64
	drainTimeout = 10 * time.Second
)

// Dispatcher delivers alerts for flagged conversations to webhook subscribers.
// Observe only enqueues; Run performs delivery.
type Dispatcher struct {
	webhooks    []string
	minSeverity float64
	client      *http.Client
	queue       chan Alert
}

// NewDispatcher creates a Dispatcher that alerts on clarify outcomes whose
// severity is at least minSeverity.
func NewDispatcher(webhooks []string, minSeverity float64) *Dispatcher {
	return &Dispatcher{
		webhooks:    webhooks,
		minSeverity: minSeverity,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		queue: make(chan Alert, queueSize),
	}
}

// Observe implements ask.Observer. Alerts are dropped when the queue is full.
func (d *Dispatcher) Observe(_ context.Context, o ask.Outcome) {
	if o.Action != ask.ActionClarify || o.Verdict.Severity < d.minSeverity {
		return
	}

	reasons := o.Verdict.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	a := Alert{
		ID:        uuid.New().String(),
		Endpoint:  o.Endpoint,
		Intent:    string(o.Verdict.Intent),
		MustBlock: o.Verdict.MustBlock,
		Category:  string(o.Verdict.Category),
		Severity:  o.Verdict.Severity,
		Reasons:   reasons,
		PIIMasked: o.PIIMasked,
		CreatedAt: time.Now().UTC(),
	}

	select {
	case d.queue <- a:
	default:
		log.Printf("notifications: queue full, dropping alert %s", a.ID)
	}
}

// Run delivers queued alerts until ctx is cancelled, then flushes whatever
// is still queued within drainTimeout.
// Each delivery is bounded by the client timeout rather than ctx.
func (d *Dispatcher) Run(ctx context.Context) {
	sendCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(sendCtx)
			return
		case a := <-d.queue:
			d.Dispatch(sendCtx, a)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for {
		select {
		case a := <-d.queue:
			d.Dispatch(ctx, a)
		default:
			return
		}
	}
}

// Dispatch sends a to every webhook. Failures are logged and do not stop
// delivery to the remaining subscribers.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		log.Printf("notifications: encoding alert %s: %v", a.ID, err)
		return
	}
	for _, url := range d.webhooks {
		if err := d.SendWebhook(ctx, url, payload); err != nil {
			log.Printf("notifications: %v", err)
		}
	}
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
