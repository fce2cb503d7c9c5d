// Package postgres opens the shared database handle and bootstraps the
// schema. Stores use database/sql; the pgx driver is registered via its
// stdlib adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the authoritative DDL. EnsureSchema is idempotent so fresh
// environments and integration-test containers bootstrap the same way.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'staff',
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
	id                  UUID PRIMARY KEY,
	name                TEXT NOT NULL,
	resident_number_enc TEXT,
	phone               TEXT,
	email               TEXT,
	address             TEXT,
	memo                TEXT,
	cert_pem_enc        TEXT,
	cert_key_enc        TEXT,
	cert_subject        TEXT,
	cert_valid_until    TIMESTAMPTZ,
	created_by          UUID,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clients_name ON clients (name);

CREATE TABLE IF NOT EXISTS cases (
	id          UUID PRIMARY KEY,
	client_id   UUID NOT NULL REFERENCES clients(id),
	court       TEXT NOT NULL,
	case_number TEXT,
	status      TEXT NOT NULL DEFAULT 'preparing',
	memo        TEXT,
	created_by  UUID,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cases_client ON cases (client_id);

CREATE TABLE IF NOT EXISTS checklist_entries (
	id            UUID PRIMARY KEY,
	case_id       UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	document_type TEXT NOT NULL,
	is_required   BOOLEAN NOT NULL DEFAULT TRUE,
	status        TEXT NOT NULL DEFAULT 'not_started',
	note          TEXT,
	document_id   UUID,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (case_id, document_type)
);

CREATE TABLE IF NOT EXISTS documents (
	id            UUID PRIMARY KEY,
	case_id       UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	document_type TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	file_size     BIGINT,
	mime_type     TEXT,
	source        TEXT NOT NULL DEFAULT 'manual_upload',
	issued_at     TIMESTAMPTZ,
	uploaded_by   UUID,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_case ON documents (case_id);
`

// EnsureSchema creates all tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
