package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// AAAService defines the AAA server operations required by AAAHandler.
type AAAService interface {
	Create(ctx context.Context, fields map[string]string) (*models.AAAServer, error)
	Update(ctx context.Context, address string, changes map[string]string) (*models.AAAServer, error)
	Password(ctx context.Context, address string) (string, error)
	List(ctx context.Context) ([]*models.AAAServer, error)
}

// AAAHandler serves /api/aaa-servers.
type AAAHandler struct {
	Service AAAService
}

// List handles GET /api/aaa-servers.
func (h *AAAHandler) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if servers == nil {
		servers = []*models.AAAServer{}
	}
	writeJSON(w, http.StatusOK, servers)
}

// Create handles POST /api/aaa-servers.
func (h *AAAHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s, err := h.Service.Create(r.Context(), fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// Update handles PATCH /api/aaa-servers/{address}.
func (h *AAAHandler) Update(w http.ResponseWriter, r *http.Request) {
	var changes map[string]string
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil || len(changes) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s, err := h.Service.Update(r.Context(), chi.URLParam(r, "address"), changes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// KeyResponse is the body of GET /api/aaa-servers/{address}/password.
type KeyResponse struct {
	Password string `json:"password"`
}

// Password handles GET /api/aaa-servers/{address}/password and returns the
// shared key in clear for hand-off to the AAA client configuration.
func (h *AAAHandler) Password(w http.ResponseWriter, r *http.Request) {
	key, err := h.Service.Password(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, KeyResponse{Password: key})
}
