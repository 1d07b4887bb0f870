package notifications

import "time"

// Alert is posted to webhooks when a conversation is routed to a clarifying
// question. It never carries message content.
type Alert struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Intent    string    `json:"intent"`
	MustBlock bool      `json:"must_block"`
	Category  string    `json:"category"`
	Severity  float64   `json:"severity"`
	Reasons   []string  `json:"reasons"`
	PIIMasked bool      `json:"pii_masked"`
	CreatedAt time.Time `json:"created_at"`
}
