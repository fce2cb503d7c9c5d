// Package service implements the document records: file uploads tied to a
// case, their checklist side effects, and downloads.
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"rehabdocs/internal/audit"
	casemodels "rehabdocs/internal/casefile/models"
	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
	"rehabdocs/internal/document/models"
	"rehabdocs/internal/platform/metrics"
	"rehabdocs/internal/storage"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/platform/tx"
	"rehabdocs/pkg/requestcontext"
)

// Store is the persistence surface the service needs.
type Store interface {
	Save(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	FindByCase(ctx context.Context, caseID id.CaseID) ([]*models.Document, error)
	Delete(ctx context.Context, documentID id.DocumentID) error
	DeleteByCase(ctx context.Context, caseID id.CaseID) error
}

// CaseDirectory resolves cases so documents are never stored for filings
// that do not exist. Provided by the case registry.
type CaseDirectory interface {
	Get(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

// Checklist is the slice of the checklist service documents drive: an upload
// completes the matching entry, a deletion reverts it.
type Checklist interface {
	MarkCompleted(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, documentID id.DocumentID) error
	Revert(ctx context.Context, documentID id.DocumentID) error
	SetStatus(ctx context.Context, entryID id.ChecklistEntryID, status checklistmodels.Status) (*checklistmodels.Entry, error)
}

// Service owns document record rules.
type Service struct {
	store     Store
	cases     CaseDirectory
	checklist Checklist
	files     storage.Provider
	runner    tx.Runner
	auditor   audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(store Store, cases CaseDirectory, checklist Checklist, files storage.Provider, runner tx.Runner, auditor audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		cases:     cases,
		checklist: checklist,
		files:     files,
		runner:    runner,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
	}
}

// UploadParams carries one file upload.
type UploadParams struct {
	CaseID       id.CaseID
	DocumentType string
	FileName     string
	MimeType     string
	Body         io.Reader
}

// Upload stores a file for a case and completes the matching checklist
// entry. The row and the checklist update commit together; the stored file
// is removed again if the transaction fails.
func (s *Service) Upload(ctx context.Context, params UploadParams) (*models.Document, error) {
	docType := catalog.DocumentType(params.DocumentType)
	if !catalog.IsKnown(docType) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown document type %q", params.DocumentType)
	}
	if params.FileName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file name is required")
	}
	if _, err := s.cases.Get(ctx, params.CaseID); err != nil {
		return nil, err
	}

	path, size, err := s.files.Save(ctx, params.CaseID.String(), params.FileName, params.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store file")
	}

	doc := &models.Document{
		ID:           id.NewDocumentID(),
		CaseID:       params.CaseID,
		DocumentType: docType,
		FileName:     params.FileName,
		FilePath:     path,
		FileSize:     size,
		MimeType:     params.MimeType,
		Source:       models.SourceManualUpload,
		UploadedBy:   requestcontext.UserID(ctx),
		CreatedAt:    time.Now(),
	}
	if err := s.persist(ctx, doc); err != nil {
		return nil, err
	}

	s.metrics.IncrementDocumentsUploaded()
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionDocumentUpload,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "document",
		EntityID:  doc.ID.String(),
		Detail:    string(docType),
		RequestID: requestcontext.RequestID(ctx),
	})
	return doc, nil
}

// StoreIssued records a document fetched from the issuance gateway. Called
// by the auto-issue orchestrator, which owns its own auditing and metrics.
func (s *Service) StoreIssued(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, fileName, mimeType string, payload []byte, issuedAt time.Time) (*models.Document, error) {
	path, size, err := s.files.Save(ctx, caseID.String(), fileName, bytes.NewReader(payload))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store file")
	}

	doc := &models.Document{
		ID:           id.NewDocumentID(),
		CaseID:       caseID,
		DocumentType: docType,
		FileName:     fileName,
		FilePath:     path,
		FileSize:     size,
		MimeType:     mimeType,
		Source:       models.SourceHyphen,
		IssuedAt:     &issuedAt,
		UploadedBy:   requestcontext.UserID(ctx),
		CreatedAt:    time.Now(),
	}
	if err := s.persist(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// persist writes the row and completes the checklist entry in one
// transaction, cleaning up the stored file on failure.
func (s *Service) persist(ctx context.Context, doc *models.Document) error {
	txCtx := tx.WithShardKey(ctx, doc.CaseID.String())
	err := s.runner.RunInTx(txCtx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, doc); err != nil {
			return err
		}
		if err := s.checklist.MarkCompleted(ctx, doc.CaseID, doc.DocumentType, doc.ID); err != nil {
			// Uploads outside the case's template have no entry to complete.
			if dErrors.Is(err, dErrors.CodeNotFound) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, doc.FilePath); delErr != nil {
			s.logger.Error("orphaned file after failed save", "path", doc.FilePath, "error", delErr)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "save document")
	}
	return nil
}

// Get returns one document row.
func (s *Service) Get(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up document")
	}
	return doc, nil
}

// ListByCase returns a case's documents in upload order.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Document, error) {
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}
	docs, err := s.store.FindByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	return docs, nil
}

// Download returns the document row and a reader over its payload. The
// caller closes the reader.
func (s *Service) Download(ctx context.Context, documentID id.DocumentID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "open file")
	}
	return doc, rc, nil
}

// Delete removes a document and reverts its checklist entry. The file is
// deleted after the row commit; a leftover file is logged, not fatal.
func (s *Service) Delete(ctx context.Context, documentID id.DocumentID) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	txCtx := tx.WithShardKey(ctx, doc.CaseID.String())
	err = s.runner.RunInTx(txCtx, func(ctx context.Context) error {
		if err := s.checklist.Revert(ctx, documentID); err != nil {
			return err
		}
		return s.store.Delete(ctx, documentID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete document")
	}

	if err := s.files.Delete(ctx, doc.FilePath); err != nil {
		s.logger.Error("delete stored file failed", "path", doc.FilePath, "error", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionDocumentDeleted,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "document",
		EntityID:  documentID.String(),
		Detail:    string(doc.DocumentType),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// DeleteByCase removes a case's documents and files during case deletion.
// The checklist goes with the case, so entries are not reverted here.
func (s *Service) DeleteByCase(ctx context.Context, caseID id.CaseID) error {
	docs, err := s.store.FindByCase(ctx, caseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	for _, doc := range docs {
		if err := s.files.Delete(ctx, doc.FilePath); err != nil {
			s.logger.Error("delete stored file failed", "path", doc.FilePath, "error", err)
		}
	}
	if err := s.store.DeleteByCase(ctx, caseID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete documents")
	}
	return nil
}

// SetRequiredStatus is the staff override for a checklist entry, covering
// documents handled outside the system.
func (s *Service) SetRequiredStatus(ctx context.Context, entryID id.ChecklistEntryID, status string) (*checklistmodels.Entry, error) {
	parsed, err := checklistmodels.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.checklist.SetStatus(ctx, entryID, parsed)
}
