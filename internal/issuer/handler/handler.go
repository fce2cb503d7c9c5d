package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rehabdocs/internal/catalog"
	documenthandler "rehabdocs/internal/document/handler"
	documentmodels "rehabdocs/internal/document/models"
	"rehabdocs/internal/issuer/service"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/httputil"
	"rehabdocs/pkg/requestcontext"
)

// Service defines the auto-issue operations the handler needs.
type Service interface {
	Issue(ctx context.Context, caseID id.CaseID, docType string, params service.IssueParams) (*documentmodels.Document, error)
	IssueMissing(ctx context.Context, caseID id.CaseID, params service.IssueParams) ([]service.TypeResult, error)
	Supported() []catalog.DocumentType
}

// Handler wires the auto-issue endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the auto-issue endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/documents/auto-issue", func(r chi.Router) {
		r.Get("/supported", h.HandleSupported)
		r.Post("/{caseID}", h.HandleIssueMissing)
		r.Post("/{caseID}/{documentType}", h.HandleIssue)
	})
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CaseID{}, false
	}
	return caseID, true
}

// IssueRequest is the HTTP request body for the auto-issue endpoints.
type IssueRequest struct {
	AuthMethod string `json:"auth_method"`
	Phone      string `json:"phone"`
	Telecom    string `json:"telecom"`
}

func (r *IssueRequest) Validate() error {
	if r.AuthMethod == "" {
		return dErrors.New(dErrors.CodeValidation, "auth_method is required")
	}
	return nil
}

func (r *IssueRequest) toParams() service.IssueParams {
	return service.IssueParams{
		AuthMethod: r.AuthMethod,
		Phone:      r.Phone,
		Telecom:    r.Telecom,
	}
}

// HandleIssue handles POST /documents/auto-issue/{caseID}/{documentType}.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	docType := chi.URLParam(r, "documentType")

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	doc, err := h.service.Issue(ctx, caseID, docType, req.toParams())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document auto-issued",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"document_type", docType,
	)
	httputil.WriteJSON(w, http.StatusCreated, documenthandler.FromDocument(doc))
}

// TypeResultResponse is one entry of the batch issuance report.
type TypeResultResponse struct {
	DocumentType string                           `json:"document_type"`
	DocumentName string                           `json:"document_name"`
	Success      bool                             `json:"success"`
	Error        string                           `json:"error,omitempty"`
	Document     *documenthandler.DocumentResponse `json:"document,omitempty"`
}

// BatchIssueResponse is the HTTP response for POST /documents/auto-issue/{caseID}.
type BatchIssueResponse struct {
	Attempted int                   `json:"attempted"`
	Succeeded int                   `json:"succeeded"`
	Results   []*TypeResultResponse `json:"results"`
}

// HandleIssueMissing handles POST /documents/auto-issue/{caseID}, issuing
// every missing auto-issuable document.
func (h *Handler) HandleIssueMissing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	results, err := h.service.IssueMissing(ctx, caseID, req.toParams())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := &BatchIssueResponse{Attempted: len(results)}
	for _, res := range results {
		item := &TypeResultResponse{
			DocumentType: string(res.DocumentType),
			DocumentName: catalog.DocumentName(res.DocumentType),
			Success:      res.Err == nil,
		}
		if res.Err != nil {
			item.Error = dErrors.MessageOf(res.Err)
		} else {
			resp.Succeeded++
			item.Document = documenthandler.FromDocument(res.Document)
		}
		resp.Results = append(resp.Results, item)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// SupportedResponse describes one auto-issuable document type.
type SupportedResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	IssueURL string `json:"issue_url,omitempty"`
}

// HandleSupported handles GET /documents/auto-issue/supported.
func (h *Handler) HandleSupported(w http.ResponseWriter, _ *http.Request) {
	types := h.service.Supported()
	items := make([]*SupportedResponse, 0, len(types))
	for _, t := range types {
		items = append(items, &SupportedResponse{
			Code:     string(t),
			Name:     catalog.DocumentName(t),
			IssueURL: catalog.IssueURL(t),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
