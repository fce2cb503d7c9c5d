// Package service implements the case registry. Creating a case also seeds
// its document checklist from the court's template, in one transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rehabdocs/internal/audit"
	"rehabdocs/internal/casefile/models"
	"rehabdocs/internal/casefile/store"
	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
	clientmodels "rehabdocs/internal/client/models"
	"rehabdocs/internal/platform/metrics"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/platform/tx"
	"rehabdocs/pkg/requestcontext"
)

// Store is the persistence surface the service needs.
type Store interface {
	Save(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID) error
	List(ctx context.Context, filter store.ListFilter) ([]*models.Case, int, error)
	CountByClient(ctx context.Context, clientID id.ClientID) (int, error)
}

// ClientDirectory resolves clients so cases are never created for debtors
// that do not exist. Provided by the client registry.
type ClientDirectory interface {
	Get(ctx context.Context, clientID id.ClientID) (*clientmodels.Client, error)
}

// Checklist is the slice of the checklist service the case registry drives:
// seeding on create, teardown on delete, progress for reads.
type Checklist interface {
	Seed(ctx context.Context, caseID id.CaseID, court catalog.Court) error
	DeleteByCase(ctx context.Context, caseID id.CaseID) error
	Status(ctx context.Context, caseID id.CaseID) (checklistmodels.Summary, error)
	Summaries(ctx context.Context, caseIDs []id.CaseID) (map[id.CaseID]checklistmodels.Summary, error)
	Missing(ctx context.Context, caseID id.CaseID) ([]*checklistmodels.Entry, error)
}

// DocumentPurger removes a case's stored documents when the case is deleted.
type DocumentPurger interface {
	DeleteByCase(ctx context.Context, caseID id.CaseID) error
}

// Service owns case registry rules.
type Service struct {
	store     Store
	clients   ClientDirectory
	checklist Checklist
	documents DocumentPurger
	runner    tx.Runner
	auditor   audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(store Store, clients ClientDirectory, checklist Checklist, documents DocumentPurger, runner tx.Runner, auditor audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		clients:   clients,
		checklist: checklist,
		documents: documents,
		runner:    runner,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
	}
}

// CreateParams carries the fields for a new case.
type CreateParams struct {
	ClientID   id.ClientID
	Court      string
	CaseNumber string
	Memo       string
}

// Create opens a case and seeds its checklist from the court's template.
// Both writes commit together so a case never exists without its checklist.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Case, error) {
	court, ok := catalog.ParseCourt(params.Court)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown court %q", params.Court)
	}
	if _, err := s.clients.Get(ctx, params.ClientID); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &models.Case{
		ID:         id.NewCaseID(),
		ClientID:   params.ClientID,
		Court:      court,
		CaseNumber: strings.TrimSpace(params.CaseNumber),
		Status:     models.StatusPreparing,
		Memo:       params.Memo,
		CreatedBy:  requestcontext.UserID(ctx),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	txCtx := tx.WithShardKey(ctx, c.ID.String())
	err := s.runner.RunInTx(txCtx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, c); err != nil {
			return err
		}
		return s.checklist.Seed(ctx, c.ID, court)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create case")
	}

	s.metrics.IncrementCasesCreated()
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionCaseCreated,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "case",
		EntityID:  c.ID.String(),
		Detail:    string(court),
		RequestID: requestcontext.RequestID(ctx),
	})
	return c, nil
}

// Get returns one case.
func (s *Service) Get(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up case")
	}
	return c, nil
}

// List returns a page of cases with the total match count and each case's
// checklist progress for the list view.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]*models.Case, map[id.CaseID]checklistmodels.Summary, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cases, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list cases")
	}

	ids := make([]id.CaseID, len(cases))
	for i, c := range cases {
		ids[i] = c.ID
	}
	sums, err := s.checklist.Summaries(ctx, ids)
	if err != nil {
		return nil, nil, 0, err
	}
	return cases, sums, total, nil
}

// UpdateParams carries optional field updates; nil means leave unchanged.
type UpdateParams struct {
	Court      *string
	CaseNumber *string
	Status     *string
	Memo       *string
}

// Update applies a partial update. Changing the court does not reshape the
// existing checklist; entries already reflect work done for this filing.
func (s *Service) Update(ctx context.Context, caseID id.CaseID, params UpdateParams) (*models.Case, error) {
	c, err := s.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if params.Court != nil {
		court, ok := catalog.ParseCourt(*params.Court)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown court %q", *params.Court)
		}
		c.Court = court
	}
	if params.CaseNumber != nil {
		c.CaseNumber = strings.TrimSpace(*params.CaseNumber)
	}
	if params.Status != nil {
		status, err := models.ParseStatus(*params.Status)
		if err != nil {
			return nil, err
		}
		c.Status = status
	}
	if params.Memo != nil {
		c.Memo = *params.Memo
	}
	c.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save case")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionCaseUpdated,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "case",
		EntityID:  caseID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return c, nil
}

// Delete removes a case together with its checklist and documents.
func (s *Service) Delete(ctx context.Context, caseID id.CaseID) error {
	if _, err := s.Get(ctx, caseID); err != nil {
		return err
	}

	if err := s.documents.DeleteByCase(ctx, caseID); err != nil {
		return err
	}

	txCtx := tx.WithShardKey(ctx, caseID.String())
	err := s.runner.RunInTx(txCtx, func(ctx context.Context) error {
		if err := s.checklist.DeleteByCase(ctx, caseID); err != nil {
			return err
		}
		return s.store.Delete(ctx, caseID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete case")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionCaseDeleted,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "case",
		EntityID:  caseID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// DocumentStatus reports a case's checklist progress and what is still
// missing.
type DocumentStatus struct {
	Case    *models.Case
	Summary checklistmodels.Summary
	Missing []*checklistmodels.Entry
}

// Status aggregates the case's checklist into a progress report.
func (s *Service) Status(ctx context.Context, caseID id.CaseID) (*DocumentStatus, error) {
	c, err := s.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	summary, err := s.checklist.Status(ctx, caseID)
	if err != nil {
		return nil, err
	}
	missing, err := s.checklist.Missing(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return &DocumentStatus{Case: c, Summary: summary, Missing: missing}, nil
}
