// Package service orchestrates auto-issuance: identity material comes from
// the client registry, the gateway call runs with the checklist entry marked
// in progress, and the issued file lands as a regular document record.
package service

import (
	"context"
	"log/slog"
	"time"

	"rehabdocs/internal/audit"
	casemodels "rehabdocs/internal/casefile/models"
	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
	clientmodels "rehabdocs/internal/client/models"
	documentmodels "rehabdocs/internal/document/models"
	"rehabdocs/internal/issuer"
	"rehabdocs/internal/platform/metrics"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/requestcontext"
)

// Gateway is the issuance client surface, faked in tests.
type Gateway interface {
	Issue(ctx context.Context, req issuer.Request) (*issuer.Result, error)
}

// Clients is the slice of the client registry the orchestrator needs.
// ResidentNumber and CertificatePEM return unsealed secrets; they go to the
// gateway request and nowhere else.
type Clients interface {
	Get(ctx context.Context, clientID id.ClientID) (*clientmodels.Client, error)
	ResidentNumber(ctx context.Context, clientID id.ClientID) (string, error)
	CertificatePEM(ctx context.Context, clientID id.ClientID) (certPEM, keyPEM string, err error)
}

// Cases resolves the filing being issued for.
type Cases interface {
	Get(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

// Checklist flags the entry during the attempt and lists what is missing
// for batch issuance.
type Checklist interface {
	MarkInProgress(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType) (checklistmodels.Status, error)
	Restore(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, prior checklistmodels.Status) error
	Missing(ctx context.Context, caseID id.CaseID) ([]*checklistmodels.Entry, error)
}

// Documents stores the issued payload as a document record.
type Documents interface {
	StoreIssued(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, fileName, mimeType string, payload []byte, issuedAt time.Time) (*documentmodels.Document, error)
}

// Service runs auto-issue attempts. One attempt per call; the gateway call
// may wait on human approval, so failures are never retried locally.
type Service struct {
	gateway   Gateway
	clients   Clients
	cases     Cases
	checklist Checklist
	documents Documents
	auditor   audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(gateway Gateway, clients Clients, cases Cases, checklist Checklist, documents Documents, auditor audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		gateway:   gateway,
		clients:   clients,
		cases:     cases,
		checklist: checklist,
		documents: documents,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
	}
}

// IssueParams selects the identity verification method for an attempt.
type IssueParams struct {
	AuthMethod string
	Phone      string
	Telecom    string
}

// Issue fetches one document from the gateway and records it on the case.
func (s *Service) Issue(ctx context.Context, caseID id.CaseID, docTypeStr string, params IssueParams) (*documentmodels.Document, error) {
	docType := catalog.DocumentType(docTypeStr)
	if !catalog.IsKnown(docType) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown document type %q", docTypeStr)
	}
	if !catalog.AutoIssuable(docType) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "document type %q cannot be auto-issued", docTypeStr)
	}

	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	req, err := s.buildRequest(ctx, c, docType, params)
	if err != nil {
		return nil, err
	}

	prior, err := s.checklist.MarkInProgress(ctx, caseID, docType)
	if err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAutoIssueStart,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "case",
		EntityID:  caseID.String(),
		Detail:    string(docType),
		RequestID: requestcontext.RequestID(ctx),
	})

	result, err := s.gateway.Issue(ctx, *req)
	if err != nil {
		s.fail(ctx, caseID, docType, prior, err)
		return nil, err
	}

	doc, err := s.documents.StoreIssued(ctx, caseID, docType, result.FileName, result.MimeType, result.Payload, result.IssuedAt)
	if err != nil {
		s.fail(ctx, caseID, docType, prior, err)
		return nil, err
	}

	s.metrics.RecordAutoIssue("success")
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAutoIssueDone,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "document",
		EntityID:  doc.ID.String(),
		Detail:    string(docType),
		RequestID: requestcontext.RequestID(ctx),
	})
	return doc, nil
}

// fail rolls the entry back to its pre-attempt status and records the
// failed attempt.
func (s *Service) fail(ctx context.Context, caseID id.CaseID, docType catalog.DocumentType, prior checklistmodels.Status, cause error) {
	if err := s.checklist.Restore(ctx, caseID, docType, prior); err != nil {
		s.logger.Error("restore checklist entry failed", "case_id", caseID, "document_type", docType, "error", err)
	}

	outcome := "failure"
	if dErrors.Is(cause, dErrors.CodeTimeout) {
		outcome = "timeout"
	}
	s.metrics.RecordAutoIssue(outcome)
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAutoIssueFailed,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "case",
		EntityID:  caseID.String(),
		Detail:    string(docType),
		RequestID: requestcontext.RequestID(ctx),
	})
}

// buildRequest assembles the gateway request, validating identity material.
func (s *Service) buildRequest(ctx context.Context, c *casemodels.Case, docType catalog.DocumentType, params IssueParams) (*issuer.Request, error) {
	client, err := s.clients.Get(ctx, c.ClientID)
	if err != nil {
		return nil, err
	}
	rrn, err := s.clients.ResidentNumber(ctx, c.ClientID)
	if err != nil {
		return nil, err
	}

	req := &issuer.Request{
		DocType:        docType,
		Name:           client.Name,
		ResidentNumber: rrn,
	}

	switch issuer.AuthMethod(params.AuthMethod) {
	case issuer.AuthCertificate:
		certPEM, keyPEM, err := s.clients.CertificatePEM(ctx, c.ClientID)
		if err != nil {
			return nil, err
		}
		req.AuthMethod = issuer.AuthCertificate
		req.CertPEM = certPEM
		req.KeyPEM = keyPEM
	case issuer.AuthCarrier:
		if params.Phone == "" || params.Telecom == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "carrier auth requires phone and telecom")
		}
		req.AuthMethod = issuer.AuthCarrier
		req.Phone = params.Phone
		req.Telecom = params.Telecom
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown auth method %q", params.AuthMethod)
	}
	return req, nil
}

// TypeResult is one entry of a batch issuance report.
type TypeResult struct {
	DocumentType catalog.DocumentType
	Document     *documentmodels.Document
	Err          error
}

// IssueMissing attempts every missing auto-issuable entry of a case in
// order. Failures do not stop the batch; each type reports its own outcome.
func (s *Service) IssueMissing(ctx context.Context, caseID id.CaseID, params IssueParams) ([]TypeResult, error) {
	missing, err := s.checklist.Missing(ctx, caseID)
	if err != nil {
		return nil, err
	}

	var results []TypeResult
	for _, entry := range missing {
		if !catalog.AutoIssuable(entry.DocumentType) {
			continue
		}
		doc, err := s.Issue(ctx, caseID, string(entry.DocumentType), params)
		results = append(results, TypeResult{
			DocumentType: entry.DocumentType,
			Document:     doc,
			Err:          err,
		})
	}
	return results, nil
}

// Supported lists the document types the gateway can issue.
func (s *Service) Supported() []catalog.DocumentType {
	var out []catalog.DocumentType
	for _, t := range catalog.DocumentTypes() {
		if catalog.AutoIssuable(t) {
			out = append(out, t)
		}
	}
	return out
}
