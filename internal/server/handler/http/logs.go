package http

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// MaxLogLimit caps the limit query parameter.
const MaxLogLimit = 1000

// LogReader lists stored log entries, newest first.
type LogReader interface {
	List(ctx context.Context, source string, limit int) ([]models.LogEntry, error)
}

// LogHandler serves /api/logs.
type LogHandler struct {
	Store LogReader
}

// List handles GET /api/logs?source=&limit=.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	source := q.Get("source")
	if source != "" && net.ParseIP(source) == nil {
		writeError(w, http.StatusBadRequest, "source must be an IP address")
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxLogLimit)
	}

	entries, err := h.Store.List(r.Context(), source, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
