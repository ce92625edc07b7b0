package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/SyslogKeeper/internal/service"
)

// ListenerService defines the listener operations required by
// ListenerHandler.
type ListenerService interface {
	Add(ctx context.Context, address string, port uint16) (service.ListenerStatus, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]service.ListenerStatus, error)
}

// ListenerHandler serves /api/listeners.
type ListenerHandler struct {
	Service ListenerService
}

// AddListenerRequest is the JSON payload of POST /api/listeners.
type AddListenerRequest struct {
	Address string `json:"address"`
	Port    uint16 `json:"port"`
}

// List handles GET /api/listeners.
func (h *ListenerHandler) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

// Add handles POST /api/listeners. The record is stored and the socket bound
// before the response is written; a taken port answers 409.
func (h *ListenerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddListenerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	st, err := h.Service.Add(r.Context(), req.Address, req.Port)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// Remove handles DELETE /api/listeners/{id}.
func (h *ListenerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
