package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the JSON summary on /metrics and the Prometheus text
// exposition on /metrics/prometheus.
func RegisterRoutes(r chi.Router, c *Counters) {
	r.Get("/metrics", handleSummary(c))
	r.Method(http.MethodGet, "/metrics/prometheus", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
}

func handleSummary(c *Counters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := c.Summary()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
