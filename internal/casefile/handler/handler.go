package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rehabdocs/internal/casefile/models"
	"rehabdocs/internal/casefile/service"
	"rehabdocs/internal/casefile/store"
	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/httputil"
	"rehabdocs/pkg/requestcontext"
)

// Service defines the case operations the handler needs.
type Service interface {
	Create(ctx context.Context, params service.CreateParams) (*models.Case, error)
	Get(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.Case, map[id.CaseID]checklistmodels.Summary, int, error)
	Update(ctx context.Context, caseID id.CaseID, params service.UpdateParams) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID) error
	Status(ctx context.Context, caseID id.CaseID) (*service.DocumentStatus, error)
}

// Handler wires the case registry endpoints to the case service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/courts", h.HandleCourts)
		r.Route("/{caseID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Get("/documents/status", h.HandleDocumentStatus)
		})
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

// HandleCreate handles POST /cases.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	params, err := req.ToParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.Create(ctx, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case created",
		"request_id", requestID,
		"case_id", c.ID,
		"court", c.Court,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

// HandleList handles GET /cases.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var filter store.ListFilter
	if v := q.Get("status"); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}
	if v := q.Get("court"); v != "" {
		court, ok := catalog.ParseCourt(v)
		if !ok {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "unknown court %q", v))
			return
		}
		filter.Court = court
	}
	if v := q.Get("client_id"); v != "" {
		clientID, err := id.ParseClientID(v)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.ClientID = clientID
	}
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

	cases, sums, total, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := make([]*CaseListItem, 0, len(cases))
	for _, c := range cases {
		items = append(items, &CaseListItem{
			CaseResponse: *FromCase(c),
			Progress:     fromSummary(sums[c.ID]),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, &CaseListResponse{
		Items:  items,
		Total:  total,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// HandleGet handles GET /cases/{caseID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(ctx, caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleUpdate handles PUT /cases/{caseID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateCaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	c, err := h.service.Update(ctx, caseID, req.ToParams())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleDelete handles DELETE /cases/{caseID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, caseID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDocumentStatus handles GET /cases/{caseID}/documents/status.
func (h *Handler) HandleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}

	st, err := h.service.Status(ctx, caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocumentStatus(st))
}

// CourtResponse describes one supported court.
type CourtResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// HandleCourts handles GET /cases/courts. The court list is static, so no
// service round trip.
func (h *Handler) HandleCourts(w http.ResponseWriter, _ *http.Request) {
	courts := catalog.Courts()
	items := make([]*CourtResponse, 0, len(courts))
	for _, c := range courts {
		items = append(items, &CourtResponse{Code: string(c), Name: catalog.CourtName(c)})
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
