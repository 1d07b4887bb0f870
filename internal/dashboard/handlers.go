package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/ziadkadry99/sprouts/internal/audit"
)

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := d.stats.Summary()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (d *Dashboard) handleRecent(w http.ResponseWriter, r *http.Request) {
	events := []audit.Event{}
	if d.events != nil {
		var err error
		events, err = d.events.Query(r.Context(), audit.QueryFilter{Limit: 10})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
