package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"rehabdocs/internal/audit"
	casemodels "rehabdocs/internal/casefile/models"
	"rehabdocs/internal/catalog"
	checklistservice "rehabdocs/internal/checklist/service"
	checkliststore "rehabdocs/internal/checklist/store"
	"rehabdocs/internal/document/service"
	"rehabdocs/internal/document/store"
	"rehabdocs/internal/platform/metrics"
	"rehabdocs/internal/storage"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/tx"
)

type fakeCaseDir struct {
	known map[id.CaseID]*casemodels.Case
}

func (f *fakeCaseDir) Get(_ context.Context, caseID id.CaseID) (*casemodels.Case, error) {
	c, ok := f.known[caseID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return c, nil
}

type docFixture struct {
	router     http.Handler
	caseID     id.CaseID
	checklists *checkliststore.InMemoryStore
}

func newDocRouter(t *testing.T) *docFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	m := metrics.New(prometheus.NewRegistry())

	checklists := checkliststore.NewMemory()
	checklist := checklistservice.New(checklists, logger)

	caseID := id.NewCaseID()
	cases := &fakeCaseDir{known: map[id.CaseID]*casemodels.Case{
		caseID: {ID: caseID, Court: catalog.CourtDaegu},
	}}
	if err := checklist.Seed(context.Background(), caseID, catalog.CourtDaegu); err != nil {
		t.Fatalf("failed to seed checklist: %v", err)
	}

	svc := service.New(store.NewMemory(), cases, checklist, storage.NewMemory(),
		tx.NewMemoryRunner(), audit.Nop{}, m, logger)

	h := New(svc, logger, 10<<20)
	r := chi.NewRouter()
	h.Register(r)
	return &docFixture{router: r, caseID: caseID, checklists: checklists}
}

func uploadDocument(t *testing.T, f *docFixture, docType, fileName, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost,
		"/documents/upload/"+f.caseID.String()+"?document_type="+docType, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 uploading, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	return resp.ID
}

func TestUploadCompletesChecklistEntry(t *testing.T) {
	f := newDocRouter(t)
	docID := uploadDocument(t, f, "resident_register", "등본.pdf", "pdf-bytes")
	if docID == "" {
		t.Fatalf("expected document id")
	}

	entry, err := f.checklists.FindByCaseAndType(context.Background(), f.caseID, catalog.DocResidentRegister)
	if err != nil {
		t.Fatalf("failed to fetch entry: %v", err)
	}
	if string(entry.Status) != "completed" {
		t.Fatalf("expected completed entry, got %s", entry.Status)
	}
}

func TestUploadMissingDocumentType(t *testing.T) {
	f := newDocRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "x.pdf")
	io.WriteString(fw, "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload/"+f.caseID.String(), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without document_type, got %d", rec.Code)
	}
}

func TestDownloadDocument(t *testing.T) {
	f := newDocRouter(t)
	docID := uploadDocument(t, f, "income_cert", "소득금액증명.pdf", "income-data")

	req := httptest.NewRequest(http.MethodGet, "/documents/"+docID+"/download", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 downloading, got %d", rec.Code)
	}
	if rec.Body.String() != "income-data" {
		t.Fatalf("unexpected payload: %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd == "" {
		t.Fatalf("expected Content-Disposition header")
	}
}

func TestListCaseDocuments(t *testing.T) {
	f := newDocRouter(t)
	uploadDocument(t, f, "resident_register", "a.pdf", "a")
	uploadDocument(t, f, "income_cert", "b.pdf", "b")

	req := httptest.NewRequest(http.MethodGet, "/documents/case/"+f.caseID.String(), nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing, got %d", rec.Code)
	}

	var docs []struct {
		DocumentType string `json:"document_type"`
		DocumentName string `json:"document_name"`
		Source       string `json:"source"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&docs); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Source != "manual_upload" || docs[0].DocumentName == "" {
		t.Fatalf("unexpected document projection: %+v", docs[0])
	}
}

func TestDeleteDocumentRevertsEntry(t *testing.T) {
	f := newDocRouter(t)
	docID := uploadDocument(t, f, "resident_register", "등본.pdf", "pdf")

	req := httptest.NewRequest(http.MethodDelete, "/documents/"+docID, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting, got %d", rec.Code)
	}

	entry, err := f.checklists.FindByCaseAndType(context.Background(), f.caseID, catalog.DocResidentRegister)
	if err != nil {
		t.Fatalf("failed to fetch entry: %v", err)
	}
	if string(entry.Status) != "not_started" {
		t.Fatalf("expected reverted entry, got %s", entry.Status)
	}
}

func TestDocumentTypesCatalog(t *testing.T) {
	f := newDocRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/documents/types", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing types, got %d", rec.Code)
	}

	var types []struct {
		Code         string `json:"code"`
		Name         string `json:"name"`
		AutoIssuable bool   `json:"auto_issuable"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&types); err != nil {
		t.Fatalf("failed to decode types: %v", err)
	}
	if len(types) == 0 {
		t.Fatalf("expected document types")
	}
	issuable := 0
	for _, dt := range types {
		if dt.AutoIssuable {
			issuable++
		}
	}
	if issuable != 6 {
		t.Fatalf("expected 6 auto-issuable types, got %d", issuable)
	}
}

func TestSetRequiredStatusOverride(t *testing.T) {
	f := newDocRouter(t)
	entries, err := f.checklists.FindByCase(context.Background(), f.caseID)
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected seeded entries, err=%v", err)
	}

	body, _ := json.Marshal(map[string]string{"status": "completed"})
	req := httptest.NewRequest(http.MethodPut,
		"/documents/required/"+entries[0].ID.String()+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 overriding status, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "completed" {
		t.Fatalf("expected completed, got %q", resp.Status)
	}
}
