package audit

import "time"

// Event is one audit record of a handled request. It holds the safety
// verdict and routing outcome, never message content.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Endpoint   string    `json:"endpoint"`
	Action     string    `json:"action"`
	Intent     string    `json:"intent"`
	MustBlock  bool      `json:"must_block"`
	Category   string    `json:"category"`
	Severity   float64   `json:"severity"`
	Reasons    []string  `json:"reasons"`
	PIIMasked  bool      `json:"pii_masked"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error,omitempty"`
}
