package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// ListenerRepository stores syslog listener configurations.
type ListenerRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewListenerRepository creates a ListenerRepository backed by db.
func NewListenerRepository(db *sql.DB) *ListenerRepository {
	return &ListenerRepository{DB: db}
}

// Create persists cfg under a fresh ID and returns the stored record.
// An existing record with the same address and port yields ErrDuplicate.
func (r *ListenerRepository) Create(ctx context.Context, cfg models.ListenerConfig) (models.ListenerConfig, error) {
	cfg.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO syslog_servers (id, ip_address, port) VALUES ($1, $2, $3)`,
		cfg.ID, cfg.Address, int(cfg.Port),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ListenerConfig{}, fmt.Errorf("listener %s: %w", cfg.HostPort(), ErrDuplicate)
		}
		return models.ListenerConfig{}, fmt.Errorf("create listener: %w", err)
	}
	return cfg, nil
}

// Get returns the record with the given ID.
func (r *ListenerRepository) Get(ctx context.Context, id string) (models.ListenerConfig, error) {
	var (
		cfg  models.ListenerConfig
		port int
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, ip_address, port FROM syslog_servers WHERE id = $1`, id,
	).Scan(&cfg.ID, &cfg.Address, &port)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ListenerConfig{}, fmt.Errorf("listener %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.ListenerConfig{}, fmt.Errorf("get listener: %w", err)
	}
	cfg.Port = uint16(port)
	return cfg, nil
}

// List returns all stored listener records ordered by address and port.
func (r *ListenerRepository) List(ctx context.Context) ([]models.ListenerConfig, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, ip_address, port FROM syslog_servers ORDER BY ip_address, port`,
	)
	if err != nil {
		return nil, fmt.Errorf("list listeners: %w", err)
	}
	defer rows.Close()

	var configs []models.ListenerConfig
	for rows.Next() {
		var (
			cfg  models.ListenerConfig
			port int
		)
		if err := rows.Scan(&cfg.ID, &cfg.Address, &port); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		cfg.Port = uint16(port)
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// Delete removes the record with the given ID.
func (r *ListenerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM syslog_servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listener: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("listener %s: %w", id, ErrNotFound)
	}
	return nil
}
