package audit

import (
	"context"
	"log"

	"github.com/ziadkadry99/sprouts/internal/ask"
)

// Recorder writes one event per pipeline outcome. Write failures are logged
// and never reach the caller.
type Recorder struct {
	store *Store
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Observe implements ask.Observer.
func (r *Recorder) Observe(ctx context.Context, o ask.Outcome) {
	event := Event{
		Endpoint:   o.Endpoint,
		Action:     string(o.Action),
		Intent:     string(o.Verdict.Intent),
		MustBlock:  o.Verdict.MustBlock,
		Category:   string(o.Verdict.Category),
		Severity:   o.Verdict.Severity,
		Reasons:    o.Verdict.Reasons,
		PIIMasked:  o.PIIMasked,
		StatusCode: o.StatusCode,
		Error:      o.Err,
	}
	if err := r.store.Log(ctx, event); err != nil {
		log.Printf("audit: recording %s outcome: %v", o.Endpoint, err)
	}
}
