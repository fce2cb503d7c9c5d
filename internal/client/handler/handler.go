package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rehabdocs/internal/client/models"
	"rehabdocs/internal/client/service"
	"rehabdocs/internal/client/store"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/httputil"
	"rehabdocs/pkg/requestcontext"
)

// Service defines the client operations the handler needs.
type Service interface {
	Create(ctx context.Context, params service.CreateParams) (*models.Client, error)
	Get(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.Client, int, error)
	Update(ctx context.Context, clientID id.ClientID, params service.UpdateParams) (*models.Client, error)
	Delete(ctx context.Context, clientID id.ClientID) error
	MaskedResidentNumber(client *models.Client) string

	RegisterCertificate(ctx context.Context, clientID id.ClientID, pfxData []byte, password string) (*service.CertificateInfo, error)
	Certificate(ctx context.Context, clientID id.ClientID) (*service.CertificateInfo, error)
	RemoveCertificate(ctx context.Context, clientID id.ClientID) error
}

// Handler wires the client registry endpoints to the client service.
type Handler struct {
	service       Service
	logger        *slog.Logger
	maxUploadSize int64
}

func New(service Service, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{service: service, logger: logger, maxUploadSize: maxUploadSize}
}

// Register mounts the client endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/certificate", h.HandleUploadCertificate)
			r.Get("/certificate", h.HandleCertificateStatus)
			r.Delete("/certificate", h.HandleDeleteCertificate)
		})
	})
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (id.ClientID, bool) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ClientID{}, false
	}
	return clientID, true
}

// HandleCreate handles POST /clients.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	client, err := h.service.Create(ctx, req.ToParams())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "client created",
		"request_id", requestID,
		"client_id", client.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, h.clientResponse(client))
}

// HandleList handles GET /clients.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := store.ListFilter{Search: q.Get("search")}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "offset must be a non-negative integer"))
			return
		}
		filter.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}

	clients, total, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := make([]*ClientResponse, 0, len(clients))
	for _, c := range clients {
		items = append(items, h.clientResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, &ClientListResponse{
		Items:  items,
		Total:  total,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// HandleGet handles GET /clients/{clientID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	client, err := h.service.Get(ctx, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.clientDetail(client))
}

// HandleUpdate handles PUT /clients/{clientID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateClientRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	client, err := h.service.Update(ctx, clientID, req.ToParams())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.clientDetail(client))
}

// HandleDelete handles DELETE /clients/{clientID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, clientID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadCertificate handles POST /clients/{clientID}/certificate.
// Expects multipart form data: cert_file (.pfx/.p12) and cert_password.
func (h *Handler) HandleUploadCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "certificate upload must be multipart form data"))
		return
	}

	file, header, err := r.FormFile("cert_file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "cert_file is required"))
		return
	}
	defer file.Close()

	if !hasCertExtension(header.Filename) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "only .pfx or .p12 files are supported"))
		return
	}
	password := r.FormValue("cert_password")
	if password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "cert_password is required"))
		return
	}

	pfxData, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "read certificate file"))
		return
	}

	info, err := h.service.RegisterCertificate(ctx, clientID, pfxData, password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate registered",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"valid_until", info.ValidUntil.Format(time.RFC3339),
	)
	httputil.WriteJSON(w, http.StatusOK, FromCertificateInfo(info))
}

// HandleCertificateStatus handles GET /clients/{clientID}/certificate.
func (h *Handler) HandleCertificateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	info, err := h.service.Certificate(ctx, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCertificateInfo(info))
}

// HandleDeleteCertificate handles DELETE /clients/{clientID}/certificate.
func (h *Handler) HandleDeleteCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveCertificate(ctx, clientID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
