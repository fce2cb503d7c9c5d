package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
	"rehabdocs/internal/document/models"
	"rehabdocs/internal/document/service"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/httputil"
	"rehabdocs/pkg/requestcontext"
)

// Service defines the document operations the handler needs.
type Service interface {
	Upload(ctx context.Context, params service.UploadParams) (*models.Document, error)
	Get(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Document, error)
	Download(ctx context.Context, documentID id.DocumentID) (*models.Document, io.ReadCloser, error)
	Delete(ctx context.Context, documentID id.DocumentID) error
	SetRequiredStatus(ctx context.Context, entryID id.ChecklistEntryID, status string) (*checklistmodels.Entry, error)
}

// Handler wires the document endpoints to the document service.
type Handler struct {
	service       Service
	logger        *slog.Logger
	maxUploadSize int64
}

func New(service Service, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{service: service, logger: logger, maxUploadSize: maxUploadSize}
}

// Register mounts the document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Get("/types", h.HandleTypes)
		r.Post("/upload/{caseID}", h.HandleUpload)
		r.Get("/case/{caseID}", h.HandleListByCase)
		r.Put("/required/{entryID}/status", h.HandleSetRequiredStatus)
		r.Route("/{documentID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/download", h.HandleDownload)
			r.Delete("/", h.HandleDelete)
		})
	})
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.DocumentID{}, false
	}
	return documentID, true
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CaseID{}, false
	}
	return caseID, true
}

// HandleTypes handles GET /documents/types. The catalog is static.
func (h *Handler) HandleTypes(w http.ResponseWriter, _ *http.Request) {
	types := catalog.DocumentTypes()
	items := make([]*DocumentTypeResponse, 0, len(types))
	for _, t := range types {
		items = append(items, &DocumentTypeResponse{
			Code:         string(t),
			Name:         catalog.DocumentName(t),
			AutoIssuable: catalog.AutoIssuable(t),
			IssueURL:     catalog.IssueURL(t),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// HandleUpload handles POST /documents/upload/{caseID}. Expects multipart
// form data with a file field plus a document_type query parameter.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	docType := r.URL.Query().Get("document_type")
	if docType == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "document_type is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "upload must be multipart form data within the size limit"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file is required"))
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}

	doc, err := h.service.Upload(ctx, service.UploadParams{
		CaseID:       caseID,
		DocumentType: docType,
		FileName:     filepath.Base(header.Filename),
		MimeType:     mimeType,
		Body:         file,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", doc.ID,
		"case_id", caseID,
		"document_type", docType,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDocument(doc))
}

// HandleListByCase handles GET /documents/case/{caseID}.
func (h *Handler) HandleListByCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	docs, err := h.service.ListByCase(ctx, caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, FromDocument(doc))
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// HandleGet handles GET /documents/{documentID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Get(ctx, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc))
}

// HandleDownload handles GET /documents/{documentID}/download, streaming the
// stored payload.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, rc, err := h.service.Download(ctx, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer rc.Close()

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	// RFC 5987 encoding keeps Korean file names intact.
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(doc.FileName)))
	if doc.FileSize > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.FileSize))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.ErrorContext(ctx, "stream document failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", documentID,
			"error", err,
		)
	}
}

// HandleDelete handles DELETE /documents/{documentID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, documentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetRequiredStatus handles PUT /documents/required/{entryID}/status,
// the staff override for checklist entries handled outside the system.
func (h *Handler) HandleSetRequiredStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, err := id.ParseChecklistEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	entry, err := h.service.SetRequiredStatus(ctx, entryID, req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromChecklistEntry(entry))
}
