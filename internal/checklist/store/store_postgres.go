package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rehabdocs/internal/catalog"
	"rehabdocs/internal/checklist/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/platform/tx"
)

// PostgresStore persists checklist entries. All methods honor an ambient
// transaction from tx.WithTx so seeding joins the case-creation transaction.
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

const entryColumns = `id, case_id, document_type, is_required, status, note, document_id, created_at, updated_at`

func (s *PostgresStore) SaveAll(ctx context.Context, entries []*models.Entry) error {
	for _, e := range entries {
		if err := s.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, entry *models.Entry) error {
	var docID uuid.NullUUID
	if entry.DocumentID != nil {
		docID = uuid.NullUUID{UUID: uuid.UUID(*entry.DocumentID), Valid: true}
	}
	query := `
		INSERT INTO checklist_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			is_required = EXCLUDED.is_required,
			status = EXCLUDED.status,
			note = EXCLUDED.note,
			document_id = EXCLUDED.document_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID), uuid.UUID(entry.CaseID), string(entry.DocumentType),
		entry.IsRequired, string(entry.Status), nullString(entry.Note),
		docID, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save checklist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.ChecklistEntryID) (*models.Entry, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM checklist_entries WHERE id = $1`, uuid.UUID(entryID))
	return scanEntry(row.Scan)
}

func (s *PostgresStore) FindByCase(ctx context.Context, caseID id.CaseID) ([]*models.Entry, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+entryColumns+` FROM checklist_entries WHERE case_id = $1 ORDER BY created_at, document_type`,
		uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list checklist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checklist entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) FindByCaseAndType(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType) (*models.Entry, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM checklist_entries WHERE case_id = $1 AND document_type = $2`,
		uuid.UUID(caseID), string(docType))
	return scanEntry(row.Scan)
}

func (s *PostgresStore) FindByDocumentID(ctx context.Context, documentID id.DocumentID) (*models.Entry, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM checklist_entries WHERE document_id = $1`,
		uuid.UUID(documentID))
	return scanEntry(row.Scan)
}

func (s *PostgresStore) DeleteByCase(ctx context.Context, caseID id.CaseID) error {
	_, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM checklist_entries WHERE case_id = $1`, uuid.UUID(caseID))
	if err != nil {
		return fmt.Errorf("delete checklist entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) SummariesByCases(ctx context.Context, caseIDs []id.CaseID) (map[id.CaseID]models.Summary, error) {
	out := make(map[id.CaseID]models.Summary, len(caseIDs))
	if len(caseIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(caseIDs))
	for i, cid := range caseIDs {
		ids[i] = uuid.UUID(cid).String()
	}

	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT case_id, status, COUNT(*)
		FROM checklist_entries
		WHERE is_required AND case_id = ANY($1::uuid[])
		GROUP BY case_id, status
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("summarize checklists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid uuid.UUID
		var status string
		var count int
		if err := rows.Scan(&cid, &status, &count); err != nil {
			return nil, fmt.Errorf("scan checklist summary: %w", err)
		}
		sum := out[id.CaseID(cid)]
		sum.Total += count
		switch models.Status(status) {
		case models.StatusCompleted:
			sum.Completed += count
		case models.StatusInProgress:
			sum.InProgress += count
		default:
			sum.NotStarted += count
		}
		out[id.CaseID(cid)] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize checklists: %w", err)
	}

	for _, cid := range caseIDs {
		sum := out[cid]
		if sum.Total > 0 {
			rate := float64(sum.Completed) / float64(sum.Total) * 100
			sum.CompletionRate = float64(int(rate*10+0.5)) / 10
		}
		out[cid] = sum
	}
	return out, nil
}

func scanEntry(scan func(...any) error) (*models.Entry, error) {
	var e models.Entry
	var eid, cid uuid.UUID
	var docType, status string
	var note sql.NullString
	var docID uuid.NullUUID

	err := scan(&eid, &cid, &docType, &e.IsRequired, &status, &note, &docID,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan checklist entry: %w", err)
	}

	e.ID = id.ChecklistEntryID(eid)
	e.CaseID = id.CaseID(cid)
	e.DocumentType = catalog.DocumentType(docType)
	e.Status = models.Status(status)
	e.Note = note.String
	if docID.Valid {
		d := id.DocumentID(docID.UUID)
		e.DocumentID = &d
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
