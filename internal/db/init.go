// Package db opens the relational store and creates its schema.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS logs_source_idx ON logs (source, created_at);

CREATE TABLE IF NOT EXISTS syslog_servers (
    id TEXT PRIMARY KEY,
    ip_address TEXT NOT NULL,
    port INTEGER NOT NULL,
    UNIQUE (ip_address, port)
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL DEFAULT 'admin',
    name TEXT NOT NULL UNIQUE,
    email TEXT UNIQUE,
    access_rights TEXT NOT NULL DEFAULT '',
    password TEXT NOT NULL DEFAULT '',
    secret_password TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tacacs_servers (
    id TEXT PRIMARY KEY,
    ip_address TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    port INTEGER NOT NULL,
    timeout INTEGER NOT NULL
);
`

// Init opens a database with the given driver, verifies the connection and
// creates missing tables.
func Init(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		return open(DriverPostgres, dsn)
	case DriverSQLite:
		return open(DriverSQLite, sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// SQLite allows a single writer; one pooled connection serializes
	// concurrent appends and keeps :memory: databases shared.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
