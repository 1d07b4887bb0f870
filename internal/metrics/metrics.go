package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	requestsName = "app_requests_total"
	unsafeName   = "app_unsafe_flagged_total"
)

// Counters holds the request and unsafe-flag counters. It is safe for
// concurrent use.
type Counters struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	unsafe   *prometheus.CounterVec
}

// New creates Counters registered on a private registry.
func New() *Counters {
	c := &Counters{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: requestsName,
			Help: "Total requests processed",
		}, []string{"endpoint", "status_code", "safe"}),
		unsafe: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: unsafeName,
			Help: "Total unsafe prompts flagged",
		}, []string{"reason"}),
	}
	c.registry.MustRegister(c.requests, c.unsafe)
	return c
}

// ObserveRequest counts one finished request.
func (c *Counters) ObserveRequest(endpoint string, statusCode int, safe bool) {
	c.requests.WithLabelValues(endpoint, strconv.Itoa(statusCode), strconv.FormatBool(safe)).Inc()
}

// ObserveUnsafe counts one conversation flagged under category.
func (c *Counters) ObserveUnsafe(category string) {
	c.unsafe.WithLabelValues(category).Inc()
}

// Registry exposes the registry for the Prometheus handler.
func (c *Counters) Registry() *prometheus.Registry {
	return c.registry
}

// Summary is the JSON view of the counters served on /metrics.
type Summary struct {
	Requests      RequestSummary `json:"requests"`
	UnsafeFlagged UnsafeSummary  `json:"unsafe_flagged"`
}

type RequestSummary struct {
	Total        int            `json:"total"`
	BySafe       map[string]int `json:"by_safe"`
	ByStatusCode map[string]int `json:"by_status_code"`
}

type UnsafeSummary struct {
	Total    int            `json:"total"`
	ByReason map[string]int `json:"by_reason"`
}

// Summary aggregates the current counter values. Increments racing with the
// read may or may not be included.
func (c *Counters) Summary() (Summary, error) {
	s := Summary{
		Requests: RequestSummary{
			BySafe:       map[string]int{},
			ByStatusCode: map[string]int{},
		},
		UnsafeFlagged: UnsafeSummary{
			ByReason: map[string]int{},
		},
	}

	families, err := c.registry.Gather()
	if err != nil {
		return s, fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			n := int(m.GetCounter().GetValue())
			labels := labelMap(m)
			switch mf.GetName() {
			case requestsName:
				s.Requests.Total += n
				s.Requests.BySafe[labels["safe"]] += n
				s.Requests.ByStatusCode[labels["status_code"]] += n
			case unsafeName:
				s.UnsafeFlagged.Total += n
				s.UnsafeFlagged.ByReason[labels["reason"]] += n
			}
		}
	}
	return s, nil
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
