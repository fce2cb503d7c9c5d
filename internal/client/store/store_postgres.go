package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rehabdocs/internal/client/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/platform/tx"
)

// PostgresStore persists clients in the clients table. Certificate material
// is stored inline; a client has at most one certificate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) querier(ctx context.Context) tx.Querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const clientColumns = `id, name, resident_number_enc, phone, email, address, memo,
	cert_pem_enc, cert_key_enc, cert_subject, cert_valid_until,
	created_by, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, client *models.Client) error {
	var certPEM, certKey, certSubject sql.NullString
	var certValid sql.NullTime
	if cert := client.Certificate; cert != nil {
		certPEM = sql.NullString{String: cert.CertPEMSealed, Valid: true}
		certKey = sql.NullString{String: cert.KeyPEMSealed, Valid: true}
		certSubject = sql.NullString{String: cert.Subject, Valid: true}
		certValid = sql.NullTime{Time: cert.ValidUntil, Valid: true}
	}

	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			resident_number_enc = EXCLUDED.resident_number_enc,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			memo = EXCLUDED.memo,
			cert_pem_enc = EXCLUDED.cert_pem_enc,
			cert_key_enc = EXCLUDED.cert_key_enc,
			cert_subject = EXCLUDED.cert_subject,
			cert_valid_until = EXCLUDED.cert_valid_until,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(client.ID), client.Name,
		nullString(client.ResidentNumberSealed),
		nullString(client.Phone), nullString(client.Email),
		nullString(client.Address), nullString(client.Memo),
		certPEM, certKey, certSubject, certValid,
		nullUUID(uuid.UUID(client.CreatedBy)),
		client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, uuid.UUID(clientID))
	return scanClient(row.Scan)
}

func (s *PostgresStore) Delete(ctx context.Context, clientID id.ClientID) error {
	res, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM clients WHERE id = $1`, uuid.UUID(clientID))
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Client, int, error) {
	where := ``
	args := []any{}
	if filter.Search != "" {
		where = ` WHERE name ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	query := `SELECT ` + clientColumns + ` FROM clients` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return clients, total, nil
}

func scanClient(scan func(...any) error) (*models.Client, error) {
	var c models.Client
	var cid uuid.UUID
	var residentEnc, phone, email, address, memo sql.NullString
	var certPEM, certKey, certSubject sql.NullString
	var certValid sql.NullTime
	var createdBy uuid.NullUUID

	err := scan(&cid, &c.Name, &residentEnc, &phone, &email, &address, &memo,
		&certPEM, &certKey, &certSubject, &certValid,
		&createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}

	c.ID = id.ClientID(cid)
	c.ResidentNumberSealed = residentEnc.String
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	c.Memo = memo.String
	if createdBy.Valid {
		c.CreatedBy = id.UserID(createdBy.UUID)
	}
	if certPEM.Valid && certKey.Valid {
		c.Certificate = &models.Certificate{
			CertPEMSealed: certPEM.String,
			KeyPEMSealed:  certKey.String,
			Subject:       certSubject.String,
			ValidUntil:    certValid.Time,
		}
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
