// Package service implements the client registry: debtor records with
// sealed resident registration numbers and optional NPKI certificates for
// auto-issuance.
package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"rehabdocs/internal/audit"
	"rehabdocs/internal/client/models"
	"rehabdocs/internal/client/store"
	"rehabdocs/internal/platform/metrics"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/requestcontext"
)

// Store is the persistence surface the service needs.
type Store interface {
	Save(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	Delete(ctx context.Context, clientID id.ClientID) error
	List(ctx context.Context, filter store.ListFilter) ([]*models.Client, int, error)
}

// CaseCounter reports how many cases reference a client. Provided by the
// case registry so deletion can be refused while filings exist.
type CaseCounter interface {
	CountByClient(ctx context.Context, clientID id.ClientID) (int, error)
}

// Sealer encrypts sensitive strings for storage.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Service owns client registry rules.
type Service struct {
	store   Store
	cases   CaseCounter
	sealer  Sealer
	auditor audit.Recorder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store Store, cases CaseCounter, sealer Sealer, auditor audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		cases:   cases,
		sealer:  sealer,
		auditor: auditor,
		metrics: m,
		logger:  logger,
	}
}

// residentNumberPattern accepts the 13-digit resident registration number
// with or without the customary hyphen.
var residentNumberPattern = regexp.MustCompile(`^\d{6}-?\d{7}$`)

// CreateParams carries the fields for a new client record.
type CreateParams struct {
	Name           string
	ResidentNumber string
	Phone          string
	Email          string
	Address        string
	Memo           string
}

// Create registers a new client. The resident number, when present, is
// sealed before it touches the store.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Client, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}

	sealed, err := s.sealResidentNumber(params.ResidentNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	client := &models.Client{
		ID:                   id.NewClientID(),
		Name:                 params.Name,
		ResidentNumberSealed: sealed,
		Phone:                strings.TrimSpace(params.Phone),
		Email:                strings.TrimSpace(params.Email),
		Address:              strings.TrimSpace(params.Address),
		Memo:                 params.Memo,
		CreatedBy:            requestcontext.UserID(ctx),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.Save(ctx, client); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save client")
	}

	s.metrics.IncrementClientsCreated()
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionClientCreated,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "client",
		EntityID:  client.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return client, nil
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	client, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up client")
	}
	return client, nil
}

// List returns a page of clients with the total match count.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]*models.Client, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	clients, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list clients")
	}
	return clients, total, nil
}

// UpdateParams carries optional field updates; nil means leave unchanged.
type UpdateParams struct {
	Name           *string
	ResidentNumber *string
	Phone          *string
	Email          *string
	Address        *string
	Memo           *string
}

// Update applies a partial update to a client.
func (s *Service) Update(ctx context.Context, clientID id.ClientID, params UpdateParams) (*models.Client, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		client.Name = name
	}
	if params.ResidentNumber != nil && *params.ResidentNumber != "" {
		sealed, err := s.sealResidentNumber(*params.ResidentNumber)
		if err != nil {
			return nil, err
		}
		client.ResidentNumberSealed = sealed
	}
	if params.Phone != nil {
		client.Phone = strings.TrimSpace(*params.Phone)
	}
	if params.Email != nil {
		client.Email = strings.TrimSpace(*params.Email)
	}
	if params.Address != nil {
		client.Address = strings.TrimSpace(*params.Address)
	}
	if params.Memo != nil {
		client.Memo = *params.Memo
	}
	client.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, client); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save client")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionClientUpdated,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "client",
		EntityID:  client.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return client, nil
}

// Delete removes a client. A client with existing cases cannot be deleted;
// the cases must be closed out first so no filing loses its debtor.
func (s *Service) Delete(ctx context.Context, clientID id.ClientID) error {
	if _, err := s.Get(ctx, clientID); err != nil {
		return err
	}

	n, err := s.cases.CountByClient(ctx, clientID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "count client cases")
	}
	if n > 0 {
		return dErrors.Newf(dErrors.CodeConflict, "client has %d case(s); delete them first", n)
	}

	if err := s.store.Delete(ctx, clientID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete client")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionClientDeleted,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "client",
		EntityID:  clientID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// MaskedResidentNumber unseals and masks a client's resident number for
// display. Empty when none is on file.
func (s *Service) MaskedResidentNumber(client *models.Client) string {
	if client.ResidentNumberSealed == "" {
		return ""
	}
	plain, err := s.sealer.Open(client.ResidentNumberSealed)
	if err != nil {
		s.logger.Error("unseal resident number failed", "client_id", client.ID, "error", err)
		return "*******"
	}
	return models.MaskResidentNumber(plain)
}

// ResidentNumber unseals a client's resident number for auto-issuance.
// Callers must not log or persist the result.
func (s *Service) ResidentNumber(ctx context.Context, clientID id.ClientID) (string, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return "", err
	}
	if client.ResidentNumberSealed == "" {
		return "", dErrors.New(dErrors.CodeInvalidAuth, "client has no resident number on file")
	}
	plain, err := s.sealer.Open(client.ResidentNumberSealed)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "unseal resident number")
	}
	return plain, nil
}

func (s *Service) sealResidentNumber(rrn string) (string, error) {
	rrn = strings.TrimSpace(rrn)
	if rrn == "" {
		return "", nil
	}
	if !residentNumberPattern.MatchString(rrn) {
		return "", dErrors.New(dErrors.CodeValidation, "resident number must be 13 digits")
	}
	sealed, err := s.sealer.Seal(rrn)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "seal resident number")
	}
	return sealed, nil
}
