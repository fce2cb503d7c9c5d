package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"rehabdocs/internal/audit"
	"rehabdocs/internal/casefile/service"
	"rehabdocs/internal/casefile/store"
	checklistservice "rehabdocs/internal/checklist/service"
	checkliststore "rehabdocs/internal/checklist/store"
	clientservice "rehabdocs/internal/client/service"
	clientstore "rehabdocs/internal/client/store"
	"rehabdocs/internal/platform/crypto"
	"rehabdocs/internal/platform/metrics"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/tx"
)

type nopPurger struct{}

func (nopPurger) DeleteByCase(context.Context, id.CaseID) error { return nil }

func newCaseRouter(t *testing.T) (http.Handler, id.ClientID) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	m := metrics.New(prometheus.NewRegistry())

	sealer, err := crypto.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("failed to build sealer: %v", err)
	}

	caseStore := store.NewMemory()
	clients := clientservice.New(clientstore.NewMemory(), caseStore, sealer, audit.Nop{}, m, logger)
	checklist := checklistservice.New(checkliststore.NewMemory(), logger)
	svc := service.New(caseStore, clients, checklist, nopPurger{}, tx.NewMemoryRunner(), audit.Nop{}, m, logger)

	client, err := clients.Create(context.Background(), clientservice.CreateParams{Name: "홍길동"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r, client.ID
}

func createCase(t *testing.T, router http.Handler, clientID id.ClientID, court string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"client_id": clientID.String(),
		"court":     court,
	})
	req := httptest.NewRequest(http.MethodPost, "/cases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating case, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode case response: %v", err)
	}
	return resp.ID
}

func TestCreateCase(t *testing.T) {
	router, clientID := newCaseRouter(t)

	body, _ := json.Marshal(map[string]string{
		"client_id": clientID.String(),
		"court":     "daegu",
	})
	req := httptest.NewRequest(http.MethodPost, "/cases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		StatusName string `json:"status_name"`
		CourtName  string `json:"court_name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected case id in response")
	}
	if resp.Status != "preparing" {
		t.Fatalf("expected status preparing, got %q", resp.Status)
	}
	if resp.StatusName != "서류 준비 중" {
		t.Fatalf("expected korean status name, got %q", resp.StatusName)
	}
	if resp.CourtName != "대구지방법원" {
		t.Fatalf("expected korean court name, got %q", resp.CourtName)
	}
}

func TestCreateCaseUnknownCourt(t *testing.T) {
	router, clientID := newCaseRouter(t)

	body, _ := json.Marshal(map[string]string{
		"client_id": clientID.String(),
		"court":     "seoul",
	})
	req := httptest.NewRequest(http.MethodPost, "/cases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown court, got %d", rec.Code)
	}
}

func TestListCasesWithProgress(t *testing.T) {
	router, clientID := newCaseRouter(t)
	createCase(t, router, clientID, "daegu")
	createCase(t, router, clientID, "busan")

	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing cases, got %d", rec.Code)
	}

	var resp struct {
		Total int `json:"total"`
		Items []struct {
			Court    string `json:"court"`
			Progress struct {
				Total          int     `json:"total"`
				CompletionRate float64 `json:"completion_rate"`
			} `json:"progress"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("expected 2 cases, got total=%d items=%d", resp.Total, len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.Progress.Total == 0 {
			t.Fatalf("expected seeded checklist progress for court %s", item.Court)
		}
		if item.Progress.CompletionRate != 0 {
			t.Fatalf("expected zero completion on fresh case, got %v", item.Progress.CompletionRate)
		}
	}
}

func TestUpdateCaseStatus(t *testing.T) {
	router, clientID := newCaseRouter(t)
	caseID := createCase(t, router, clientID, "daegu")

	body, _ := json.Marshal(map[string]string{"status": "submitted", "case_number": "2026개회1234"})
	req := httptest.NewRequest(http.MethodPut, "/cases/"+caseID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating case, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status     string `json:"status"`
		CaseNumber string `json:"case_number"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode update response: %v", err)
	}
	if resp.Status != "submitted" || resp.CaseNumber != "2026개회1234" {
		t.Fatalf("unexpected update result: %+v", resp)
	}
}

func TestDeleteCase(t *testing.T) {
	router, clientID := newCaseRouter(t)
	caseID := createCase(t, router, clientID, "daegu")

	req := httptest.NewRequest(http.MethodDelete, "/cases/"+caseID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting case, got %d", rec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/cases/"+caseID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", getRec.Code)
	}
}

func TestDocumentStatus(t *testing.T) {
	router, clientID := newCaseRouter(t)
	caseID := createCase(t, router, clientID, "busan")

	req := httptest.NewRequest(http.MethodGet, "/cases/"+caseID+"/documents/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching status, got %d", rec.Code)
	}

	var resp struct {
		Progress struct {
			Total int `json:"total"`
		} `json:"progress"`
		Missing []struct {
			DocumentType string `json:"document_type"`
			DocumentName string `json:"document_name"`
		} `json:"missing"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode status response: %v", err)
	}
	if resp.Progress.Total != 20 {
		t.Fatalf("expected busan checklist of 20, got %d", resp.Progress.Total)
	}
	if len(resp.Missing) != 20 {
		t.Fatalf("expected all 20 entries missing, got %d", len(resp.Missing))
	}
	if resp.Missing[0].DocumentName == "" {
		t.Fatalf("expected korean document names in status")
	}
}

func TestListCourts(t *testing.T) {
	router, _ := newCaseRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/cases/courts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing courts, got %d", rec.Code)
	}

	var courts []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&courts); err != nil {
		t.Fatalf("failed to decode courts: %v", err)
	}
	if len(courts) != 5 {
		t.Fatalf("expected 5 courts, got %d", len(courts))
	}
}
