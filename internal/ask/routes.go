package ask

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts POST /ask on the given router.
func RegisterRoutes(r chi.Router, p *Pipeline) {
	r.Post("/ask", handleAsk(p))
}

func handleAsk(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		resp, err := p.Handle(r.Context(), EndpointAsk, req)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
