// Package service owns the per-case checklist rules: seeding from the
// court's template, tracking entry status, and aggregating progress.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rehabdocs/internal/catalog"
	"rehabdocs/internal/checklist/models"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/sentinel"
)

// Store is the persistence surface the service needs.
type Store interface {
	SaveAll(ctx context.Context, entries []*models.Entry) error
	Save(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, entryID id.ChecklistEntryID) (*models.Entry, error)
	FindByCase(ctx context.Context, caseID id.CaseID) ([]*models.Entry, error)
	FindByCaseAndType(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType) (*models.Entry, error)
	FindByDocumentID(ctx context.Context, documentID id.DocumentID) (*models.Entry, error)
	DeleteByCase(ctx context.Context, caseID id.CaseID) error
	SummariesByCases(ctx context.Context, caseIDs []id.CaseID) (map[id.CaseID]models.Summary, error)
}

// Service owns checklist behavior. It has no transaction boundary of its
// own: callers that need atomicity (case creation) run it inside theirs.
type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Seed creates the checklist for a new case from its court's template.
func (s *Service) Seed(ctx context.Context, caseID id.CaseID, court catalog.Court) error {
	template := catalog.Template(court)
	now := time.Now()
	entries := make([]*models.Entry, 0, len(template))
	for i, docType := range template {
		entries = append(entries, &models.Entry{
			ID:           id.NewChecklistEntryID(),
			CaseID:       caseID,
			DocumentType: docType,
			IsRequired:   true,
			Status:       models.StatusNotStarted,
			// Spread creation times so seeded order survives time-based
			// sorting in stores.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt: now,
		})
	}
	if err := s.store.SaveAll(ctx, entries); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "seed checklist")
	}
	return nil
}

// Entries returns a case's checklist in seeded order.
func (s *Service) Entries(ctx context.Context, caseID id.CaseID) ([]*models.Entry, error) {
	entries, err := s.store.FindByCase(ctx, caseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list checklist entries")
	}
	return entries, nil
}

// Status aggregates a case's checklist into a progress summary.
func (s *Service) Status(ctx context.Context, caseID id.CaseID) (models.Summary, error) {
	entries, err := s.Entries(ctx, caseID)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(entries), nil
}

// Summaries batch-computes summaries for case list views.
func (s *Service) Summaries(ctx context.Context, caseIDs []id.CaseID) (map[id.CaseID]models.Summary, error) {
	sums, err := s.store.SummariesByCases(ctx, caseIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "summarize checklists")
	}
	return sums, nil
}

// Missing lists the required entries that are not yet completed.
func (s *Service) Missing(ctx context.Context, caseID id.CaseID) ([]*models.Entry, error) {
	entries, err := s.Entries(ctx, caseID)
	if err != nil {
		return nil, err
	}
	var missing []*models.Entry
	for _, e := range entries {
		if e.IsRequired && e.Status != models.StatusCompleted {
			missing = append(missing, e)
		}
	}
	return missing, nil
}

// MarkCompleted completes the entry for a document type after an upload or
// issuance, linking it to the document. Fails with NotFound when the case
// has no entry for the type; the upload path tolerates that, since a case
// may hold documents outside its template.
func (s *Service) MarkCompleted(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, documentID id.DocumentID) error {
	entry, err := s.store.FindByCaseAndType(ctx, caseID, docType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "no checklist entry for document type %q", docType)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up checklist entry")
	}

	entry.Status = models.StatusCompleted
	entry.DocumentID = &documentID
	entry.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save checklist entry")
	}
	return nil
}

// Revert resets the entry linked to a document when that document is
// deleted. Entries completed by hand (no linked document) are untouched.
func (s *Service) Revert(ctx context.Context, documentID id.DocumentID) error {
	entry, err := s.store.FindByDocumentID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up checklist entry")
	}

	entry.Status = models.StatusNotStarted
	entry.DocumentID = nil
	entry.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save checklist entry")
	}
	return nil
}

// SetStatus is the staff override for entries handled outside the system,
// e.g. a document delivered on paper. It never detaches a linked upload.
func (s *Service) SetStatus(ctx context.Context, entryID id.ChecklistEntryID, status models.Status) (*models.Entry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "checklist entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up checklist entry")
	}

	entry.Status = status
	entry.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save checklist entry")
	}
	return entry, nil
}

// MarkInProgress flags the entry for a document type while auto-issuance is
// running and reports the status it had, so a failed attempt can put it
// back. No-op when the case has no entry for the type.
func (s *Service) MarkInProgress(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType) (models.Status, error) {
	entry, err := s.store.FindByCaseAndType(ctx, caseID, docType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.StatusNotStarted, nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "look up checklist entry")
	}
	prior := entry.Status
	entry.Status = models.StatusInProgress
	entry.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, entry); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "save checklist entry")
	}
	return prior, nil
}

// Restore undoes MarkInProgress after a failed auto-issuance, returning the
// entry to the status it held before the attempt. A previously completed
// entry keeps its document link. No-op unless the entry is still in
// progress, so a completion that raced the failure survives.
func (s *Service) Restore(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, prior models.Status) error {
	entry, err := s.store.FindByCaseAndType(ctx, caseID, docType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up checklist entry")
	}
	if entry.Status != models.StatusInProgress {
		return nil
	}
	entry.Status = prior
	entry.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save checklist entry")
	}
	return nil
}

// DeleteByCase removes a case's checklist when the case itself is deleted.
func (s *Service) DeleteByCase(ctx context.Context, caseID id.CaseID) error {
	if err := s.store.DeleteByCase(ctx, caseID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete checklist entries")
	}
	return nil
}
