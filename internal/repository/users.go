package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// UserRepository stores operator accounts. Credentials are written in their
// encoded form exactly as the model holds them.
type UserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewUserRepository creates a UserRepository backed by db.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, type, name, email, access_rights, password, secret_password`

// Create inserts u, assigning its ID. A taken name or email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
	`, id, u.Type, u.Name, u.Email, u.AccessRights, u.EncodedPassword(), u.EncodedSecretPassword())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Name, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

// Update writes every column of u, keyed by its ID.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET type = $2, name = $3, email = NULLIF($4, ''), access_rights = $5,
			password = $6, secret_password = $7
		WHERE id = $1
	`, u.ID, u.Type, u.Name, u.Email, u.AccessRights, u.EncodedPassword(), u.EncodedSecretPassword())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Name, ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", u.Name, ErrNotFound)
	}
	return nil
}

// GetByName returns the account with the given name.
func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns all accounts ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		id, userType, name, rights, password, secret string
		email                                        sql.NullString
	)
	if err := s.Scan(&id, &userType, &name, &email, &rights, &password, &secret); err != nil {
		return nil, err
	}
	return models.RestoreUser(id, userType, name, email.String, rights, password, secret), nil
}
