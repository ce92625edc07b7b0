package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// UserService defines the account operations required by UserHandler.
type UserService interface {
	Create(ctx context.Context, fields map[string]string) (*models.User, error)
	Update(ctx context.Context, name string, changes map[string]string) (*models.User, error)
	CheckPassword(ctx context.Context, name, candidate string) (bool, error)
	SecretPassword(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]*models.User, error)
}

// CertificateIssuer signs operator client certificates.
type CertificateIssuer interface {
	IssueOperatorCertificate(name string) (certPEM, keyPEM []byte, err error)
}

// UserHandler serves /api/users.
type UserHandler struct {
	Service UserService
	// Issuer is optional. When set, creating a user also returns a client
	// certificate for the new operator.
	Issuer CertificateIssuer
}

// CreateUserResponse is the body of a successful POST /api/users.
type CreateUserResponse struct {
	User *models.User `json:"user"`
	Cert string       `json:"cert,omitempty"`
	Key  string       `json:"key,omitempty"`
}

// VerifyRequest is the JSON payload of POST /api/users/{name}/verify.
type VerifyRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users. The body is a flat object of user fields.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	u, err := h.Service.Create(r.Context(), fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := CreateUserResponse{User: u}
	if h.Issuer != nil {
		certPEM, keyPEM, err := h.Issuer.IssueOperatorCertificate(u.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to generate certificate")
			return
		}
		resp.Cert, resp.Key = string(certPEM), string(keyPEM)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PATCH /api/users/{name}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var changes map[string]string
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil || len(changes) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	u, err := h.Service.Update(r.Context(), chi.URLParam(r, "name"), changes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Verify handles POST /api/users/{name}/verify.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ok, err := h.Service.CheckPassword(r.Context(), chi.URLParam(r, "name"), req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

// SecretResponse is the body of GET /api/users/{name}/secret.
type SecretResponse struct {
	SecretPassword string `json:"secret_password"`
}

// Secret handles GET /api/users/{name}/secret. The secret password is the
// device-facing credential and is returned in clear.
func (h *UserHandler) Secret(w http.ResponseWriter, r *http.Request) {
	secret, err := h.Service.SecretPassword(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SecretResponse{SecretPassword: secret})
}
