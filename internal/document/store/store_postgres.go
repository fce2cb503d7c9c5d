package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rehabdocs/internal/catalog"
	"rehabdocs/internal/document/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/platform/tx"
)

// PostgresStore persists document rows. Methods honor an ambient transaction
// so the row and its checklist entry commit together.
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

const documentColumns = `id, case_id, document_type, file_name, file_path, file_size,
	mime_type, source, issued_at, uploaded_by, created_at`

func (s *PostgresStore) Save(ctx context.Context, doc *models.Document) error {
	var issuedAt sql.NullTime
	if doc.IssuedAt != nil {
		issuedAt = sql.NullTime{Time: *doc.IssuedAt, Valid: true}
	}
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			file_path = EXCLUDED.file_path,
			file_size = EXCLUDED.file_size,
			mime_type = EXCLUDED.mime_type
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(doc.ID), uuid.UUID(doc.CaseID), string(doc.DocumentType),
		doc.FileName, doc.FilePath, doc.FileSize,
		nullString(doc.MimeType), string(doc.Source), issuedAt,
		nullUUID(uuid.UUID(doc.UploadedBy)), doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, uuid.UUID(documentID))
	return scanDocument(row.Scan)
}

func (s *PostgresStore) FindByCase(ctx context.Context, caseID id.CaseID) ([]*models.Document, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE case_id = $1 ORDER BY created_at, id`,
		uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Delete(ctx context.Context, documentID id.DocumentID) error {
	res, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1`, uuid.UUID(documentID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByCase(ctx context.Context, caseID id.CaseID) error {
	_, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM documents WHERE case_id = $1`, uuid.UUID(caseID))
	if err != nil {
		return fmt.Errorf("delete case documents: %w", err)
	}
	return nil
}

func scanDocument(scan func(...any) error) (*models.Document, error) {
	var doc models.Document
	var docID, caseID uuid.UUID
	var docType, source string
	var mimeType sql.NullString
	var issuedAt sql.NullTime
	var uploadedBy uuid.NullUUID

	err := scan(&docID, &caseID, &docType, &doc.FileName, &doc.FilePath, &doc.FileSize,
		&mimeType, &source, &issuedAt, &uploadedBy, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.ID = id.DocumentID(docID)
	doc.CaseID = id.CaseID(caseID)
	doc.DocumentType = catalog.DocumentType(docType)
	doc.MimeType = mimeType.String
	doc.Source = models.Source(source)
	if issuedAt.Valid {
		t := issuedAt.Time
		doc.IssuedAt = &t
	}
	if uploadedBy.Valid {
		doc.UploadedBy = id.UserID(uploadedBy.UUID)
	}
	return &doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
