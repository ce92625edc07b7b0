package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/atinyakov/SyslogKeeper/internal/credential"
	"github.com/atinyakov/SyslogKeeper/internal/models"
)

func setupUserMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewUserRepository(db), mock, func() { db.Close() }
}

func TestCreateUser_StoresEncodedCredentials(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	u, err := models.NewUser(map[string]string{
		models.UserFieldName:           "alice",
		models.UserFieldSecretPassword: "cisco123",
	}, credential.Irreversible)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "admin", "alice", "", "", "", u.EncodedSecretPassword()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == "" {
		t.Errorf("expected ID to be assigned")
	}
	if u.EncodedSecretPassword() == "cisco123" {
		t.Errorf("secret password stored in plaintext")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), models.RestoreUser("", "admin", "alice", "", "", "", ""))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByName(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "type", "name", "email", "access_rights", "password", "secret_password"}).
		AddRow("u1", "admin", "alice", nil, "all", "", "0822455D0A16")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE name = $1`)).
		WithArgs("alice").
		WillReturnRows(rows)

	u, err := repo.GetByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "" || u.AccessRights != "all" {
		t.Errorf("unexpected user: %+v", u)
	}
	secret, err := u.SecretPassword()
	if err != nil || secret != "cisco" {
		t.Errorf("SecretPassword() = %q, %v; want cisco", secret, err)
	}
}

func TestGetUserByName_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE name = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByName(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	u := models.RestoreUser("u1", "admin", "alice", "alice@example.com", "", "", "")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WithArgs("u1", "admin", "alice", "alice@example.com", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Update(context.Background(), u); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers_Error(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY name`)).
		WillReturnError(errors.New("boom"))

	if _, err := repo.List(context.Background()); err == nil {
		t.Errorf("expected error, got nil")
	}
}
