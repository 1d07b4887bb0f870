package dashboard

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/audit"
	"github.com/ziadkadry99/sprouts/internal/metrics"
)

// Asker runs a conversation through the safety pipeline.
type Asker interface {
	Handle(ctx context.Context, endpoint string, req ask.Request) (*ask.Response, error)
}

// StatsSource provides the counter summary shown on the dashboard.
type StatsSource interface {
	Summary() (metrics.Summary, error)
}

// EventSource provides recent audit events. It is optional.
type EventSource interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// Dashboard serves the demo chat page and its websocket.
type Dashboard struct {
	asker   Asker
	stats   StatsSource
	events  EventSource
	timeout time.Duration
}

// New creates a new Dashboard. events may be nil when auditing is disabled.
// timeout bounds each pipeline run started from the websocket; 0 means 60s.
func New(asker Asker, stats StatsSource, events EventSource, timeout time.Duration) *Dashboard {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Dashboard{
		asker:   asker,
		stats:   stats,
		events:  events,
		timeout: timeout,
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Get("/api/dashboard/recent", d.handleRecent)
	r.Get("/ws/chat", d.handleWebSocket)
}
