package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// AAARepository stores TACACS+ server records.
type AAARepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewAAARepository creates an AAARepository backed by db.
func NewAAARepository(db *sql.DB) *AAARepository {
	return &AAARepository{DB: db}
}

// Create inserts s, assigning its ID. A known address yields ErrDuplicate.
func (r *AAARepository) Create(ctx context.Context, s *models.AAAServer) error {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO tacacs_servers (id, ip_address, password, port, timeout) VALUES ($1, $2, $3, $4, $5)`,
		id, s.Address, s.EncodedPassword(), s.Port, s.Timeout,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("aaa server %s: %w", s.Address, ErrDuplicate)
		}
		return fmt.Errorf("create aaa server: %w", err)
	}
	s.ID = id
	return nil
}

// Update writes every column of s, keyed by its ID.
func (r *AAARepository) Update(ctx context.Context, s *models.AAAServer) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tacacs_servers SET ip_address = $2, password = $3, port = $4, timeout = $5 WHERE id = $1`,
		s.ID, s.Address, s.EncodedPassword(), s.Port, s.Timeout,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("aaa server %s: %w", s.Address, ErrDuplicate)
		}
		return fmt.Errorf("update aaa server: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("aaa server %s: %w", s.Address, ErrNotFound)
	}
	return nil
}

// GetByAddress returns the server registered under address.
func (r *AAARepository) GetByAddress(ctx context.Context, address string) (*models.AAAServer, error) {
	var (
		id, addr, password string
		port, timeout      int
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, ip_address, password, port, timeout FROM tacacs_servers WHERE ip_address = $1`, address,
	).Scan(&id, &addr, &password, &port, &timeout)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("aaa server %s: %w", address, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get aaa server: %w", err)
	}
	return models.RestoreAAAServer(id, addr, port, timeout, password), nil
}

// List returns all servers ordered by address.
func (r *AAARepository) List(ctx context.Context) ([]*models.AAAServer, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, ip_address, password, port, timeout FROM tacacs_servers ORDER BY ip_address`,
	)
	if err != nil {
		return nil, fmt.Errorf("list aaa servers: %w", err)
	}
	defer rows.Close()

	var servers []*models.AAAServer
	for rows.Next() {
		var (
			id, addr, password string
			port, timeout      int
		)
		if err := rows.Scan(&id, &addr, &password, &port, &timeout); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		servers = append(servers, models.RestoreAAAServer(id, addr, port, timeout, password))
	}
	return servers, rows.Err()
}
