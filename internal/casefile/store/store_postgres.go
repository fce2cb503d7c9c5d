package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rehabdocs/internal/casefile/models"
	"rehabdocs/internal/catalog"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/platform/tx"
)

// PostgresStore persists cases. Methods honor an ambient transaction so
// case creation and checklist seeding commit together.
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

const caseColumns = `id, client_id, court, case_number, status, memo, created_by, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			court = EXCLUDED.court,
			case_number = EXCLUDED.case_number,
			status = EXCLUDED.status,
			memo = EXCLUDED.memo,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.ClientID), string(c.Court),
		nullString(c.CaseNumber), string(c.Status), nullString(c.Memo),
		nullUUID(uuid.UUID(c.CreatedBy)), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, uuid.UUID(caseID))
	return scanCase(row.Scan)
}

func (s *PostgresStore) Delete(ctx context.Context, caseID id.CaseID) error {
	res, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM cases WHERE id = $1`, uuid.UUID(caseID))
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Case, int, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Court != "" {
		args = append(args, string(filter.Court))
		conds = append(conds, fmt.Sprintf("court = $%d", len(args)))
	}
	if !filter.ClientID.IsNil() {
		args = append(args, uuid.UUID(filter.ClientID))
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	query := `SELECT ` + caseColumns + ` FROM cases` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	return cases, total, nil
}

func (s *PostgresStore) CountByClient(ctx context.Context, clientID id.ClientID) (int, error) {
	var n int
	err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases WHERE client_id = $1`, uuid.UUID(clientID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cases by client: %w", err)
	}
	return n, nil
}

func scanCase(scan func(...any) error) (*models.Case, error) {
	var c models.Case
	var cid, clientID uuid.UUID
	var court, status string
	var caseNumber, memo sql.NullString
	var createdBy uuid.NullUUID

	err := scan(&cid, &clientID, &court, &caseNumber, &status, &memo,
		&createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}

	c.ID = id.CaseID(cid)
	c.ClientID = id.ClientID(clientID)
	c.Court = catalog.Court(court)
	c.CaseNumber = caseNumber.String
	c.Status = models.Status(status)
	c.Memo = memo.String
	if createdBy.Valid {
		c.CreatedBy = id.UserID(createdBy.UUID)
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
