package api

import (
	"net/http"
)

// healthHandler serves the liveness and readiness probes.
type healthHandler struct {
	db Pinger
}

func newHealthHandler(db Pinger) *healthHandler {
	return &healthHandler{db: db}
}

// live reports process liveness only.
func (h *healthHandler) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready reports readiness to serve, which requires the database.
func (h *healthHandler) ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database_unavailable", "database is not reachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
