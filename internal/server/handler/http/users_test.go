package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/SyslogKeeper/internal/credential"
	"github.com/atinyakov/SyslogKeeper/internal/models"
	"github.com/atinyakov/SyslogKeeper/internal/repository"
)

type fakeUserService struct {
	CreateFunc        func(ctx context.Context, fields map[string]string) (*models.User, error)
	UpdateFunc        func(ctx context.Context, name string, changes map[string]string) (*models.User, error)
	CheckPasswordFunc func(ctx context.Context, name, candidate string) (bool, error)
	SecretFunc        func(ctx context.Context, name string) (string, error)
	ListFunc          func(ctx context.Context) ([]*models.User, error)
}

func (f *fakeUserService) Create(ctx context.Context, fields map[string]string) (*models.User, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, fields)
	}
	return models.NewUser(fields, credential.Irreversible)
}

func (f *fakeUserService) Update(ctx context.Context, name string, changes map[string]string) (*models.User, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, name, changes)
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserService) CheckPassword(ctx context.Context, name, candidate string) (bool, error) {
	if f.CheckPasswordFunc != nil {
		return f.CheckPasswordFunc(ctx, name, candidate)
	}
	return false, nil
}

func (f *fakeUserService) SecretPassword(ctx context.Context, name string) (string, error) {
	if f.SecretFunc != nil {
		return f.SecretFunc(ctx, name)
	}
	return "", repository.ErrNotFound
}

func (f *fakeUserService) List(ctx context.Context) ([]*models.User, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx)
	}
	return nil, nil
}

type fakeIssuer struct {
	err    error
	issued string
}

func (f *fakeIssuer) IssueOperatorCertificate(name string) ([]byte, []byte, error) {
	f.issued = name
	if f.err != nil {
		return nil, nil, f.err
	}
	return []byte("CERT " + name), []byte("KEY " + name), nil
}

func TestUserHandler_Create(t *testing.T) {
	t.Run("without issuer", func(t *testing.T) {
		rec := serve(t, Handlers{Users: &UserHandler{Service: &fakeUserService{}}},
			http.MethodPost, "/api/users", `{"name":"alice","password":"hunter2"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp CreateUserResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.User.Name)
		assert.Empty(t, resp.Cert)
		assert.NotContains(t, rec.Body.String(), "hunter2")
	})

	t.Run("with issuer", func(t *testing.T) {
		issuer := &fakeIssuer{}
		rec := serve(t, Handlers{Users: &UserHandler{Service: &fakeUserService{}, Issuer: issuer}},
			http.MethodPost, "/api/users", `{"name":"bob"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp CreateUserResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "bob", issuer.issued)
		assert.Equal(t, "CERT bob", resp.Cert)
		assert.Equal(t, "KEY bob", resp.Key)
	})

	t.Run("issuer failure", func(t *testing.T) {
		rec := serve(t, Handlers{Users: &UserHandler{Service: &fakeUserService{}, Issuer: &fakeIssuer{err: errors.New("no key")}}},
			http.MethodPost, "/api/users", `{"name":"carl"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "failed to generate certificate")
	})

	t.Run("missing name", func(t *testing.T) {
		rec := serve(t, Handlers{Users: &UserHandler{Service: &fakeUserService{}}},
			http.MethodPost, "/api/users", `{"email":"x@example.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, models.UserFieldName, resp.Field)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &fakeUserService{CreateFunc: func(context.Context, map[string]string) (*models.User, error) {
			return nil, fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}}
		rec := serve(t, Handlers{Users: &UserHandler{Service: svc}}, http.MethodPost, "/api/users", `{"name":"dora"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUserHandler_Update(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		updateErr     error
		expectedCode  int
		expectedField string
	}{
		{"empty body", `{}`, nil, http.StatusBadRequest, ""},
		{"unknown field", `{"shoe_size":"44"}`, &models.FieldError{Field: "shoe_size", Err: models.ErrUnknownField}, http.StatusBadRequest, "shoe_size"},
		{"too long secret", `{"secret_password":"xxxxxxxxxxxxxxxxxxxxxxxxxx"}`, &models.FieldError{Field: models.UserFieldSecretPassword, Err: credential.ErrInputTooLong}, http.StatusBadRequest, models.UserFieldSecretPassword},
		{"unknown user", `{"email":"a@b.c"}`, repository.ErrNotFound, http.StatusNotFound, ""},
		{"updated", `{"email":"a@b.c"}`, nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName string
			svc := &fakeUserService{UpdateFunc: func(_ context.Context, name string, changes map[string]string) (*models.User, error) {
				gotName = name
				if tt.updateErr != nil {
					return nil, tt.updateErr
				}
				u := models.RestoreUser("id-1", models.DefaultUserType, name, "", "", "", "")
				return u, u.Update(changes, credential.Irreversible)
			}}

			rec := serve(t, Handlers{Users: &UserHandler{Service: svc}}, http.MethodPatch, "/api/users/erin", tt.body)
			require.Equal(t, tt.expectedCode, rec.Code)

			if tt.expectedCode == http.StatusOK {
				assert.Equal(t, "erin", gotName)
				assert.Contains(t, rec.Body.String(), `"email":"a@b.c"`)
			}
			if tt.expectedField != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.expectedField, resp.Field)
			}
		})
	}
}

func TestUserHandler_Verify(t *testing.T) {
	svc := &fakeUserService{CheckPasswordFunc: func(_ context.Context, name, candidate string) (bool, error) {
		return name == "frank" && candidate == "secret", nil
	}}
	h := Handlers{Users: &UserHandler{Service: svc}}

	rec := serve(t, h, http.MethodPost, "/api/users/frank/verify", `{"password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())

	rec = serve(t, h, http.MethodPost, "/api/users/frank/verify", `{"password":"wrong"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":false}`, rec.Body.String())
}

func TestUserHandler_List(t *testing.T) {
	rec := serve(t, Handlers{}, http.MethodGet, "/api/users", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUserHandler_Secret(t *testing.T) {
	svc := &fakeUserService{SecretFunc: func(_ context.Context, name string) (string, error) {
		if name != "frank" {
			return "", repository.ErrNotFound
		}
		return "enable123", nil
	}}
	h := Handlers{Users: &UserHandler{Service: svc}}

	rec := serve(t, h, http.MethodGet, "/api/users/frank/secret", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"secret_password":"enable123"}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/api/users/nobody/secret", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
