package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"rehabdocs/internal/catalog"
	documentmodels "rehabdocs/internal/document/models"
	"rehabdocs/internal/issuer/service"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
)

type fakeIssuer struct {
	issued   *documentmodels.Document
	issueErr error
	batch    []service.TypeResult

	gotCaseID  id.CaseID
	gotDocType string
	gotParams  service.IssueParams
}

func (f *fakeIssuer) Issue(_ context.Context, caseID id.CaseID, docType string, params service.IssueParams) (*documentmodels.Document, error) {
	f.gotCaseID = caseID
	f.gotDocType = docType
	f.gotParams = params
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return f.issued, nil
}

func (f *fakeIssuer) IssueMissing(_ context.Context, caseID id.CaseID, params service.IssueParams) ([]service.TypeResult, error) {
	f.gotCaseID = caseID
	f.gotParams = params
	return f.batch, nil
}

func (f *fakeIssuer) Supported() []catalog.DocumentType {
	return []catalog.DocumentType{catalog.DocHealthInsuranceCert, catalog.DocIncomeCert}
}

func newIssueRouter(f *fakeIssuer) http.Handler {
	h := New(f, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func issueBody(t *testing.T, authMethod string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]string{"auth_method": authMethod})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(body)
}

func TestHandleIssue(t *testing.T) {
	caseID := id.NewCaseID()
	f := &fakeIssuer{issued: &documentmodels.Document{
		ID:           id.NewDocumentID(),
		CaseID:       caseID,
		DocumentType: catalog.DocHealthInsuranceCert,
		FileName:     "건강보험자격득실확인서.pdf",
		Source:       documentmodels.SourceHyphen,
		CreatedAt:    time.Now(),
	}}
	router := newIssueRouter(f)

	req := httptest.NewRequest(http.MethodPost,
		"/documents/auto-issue/"+caseID.String()+"/health_insurance_cert", issueBody(t, "certificate"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.gotDocType != "health_insurance_cert" || f.gotParams.AuthMethod != "certificate" {
		t.Fatalf("unexpected service call: type=%q params=%+v", f.gotDocType, f.gotParams)
	}

	var resp struct {
		Source   string `json:"source"`
		FileName string `json:"file_name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "hyphen" {
		t.Fatalf("expected hyphen source, got %q", resp.Source)
	}
}

func TestHandleIssueRequiresAuthMethod(t *testing.T) {
	router := newIssueRouter(&fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost,
		"/documents/auto-issue/"+id.NewCaseID().String()+"/income_cert", issueBody(t, ""))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without auth_method, got %d", rec.Code)
	}
}

func TestHandleIssueMissingReport(t *testing.T) {
	caseID := id.NewCaseID()
	f := &fakeIssuer{batch: []service.TypeResult{
		{
			DocumentType: catalog.DocHealthInsuranceCert,
			Document: &documentmodels.Document{
				ID:           id.NewDocumentID(),
				CaseID:       caseID,
				DocumentType: catalog.DocHealthInsuranceCert,
				Source:       documentmodels.SourceHyphen,
			},
		},
		{
			DocumentType: catalog.DocIncomeCert,
			Err:          dErrors.New(dErrors.CodeExternal, "발급 실패"),
		},
	}}
	router := newIssueRouter(f)

	req := httptest.NewRequest(http.MethodPost,
		"/documents/auto-issue/"+caseID.String(), issueBody(t, "certificate"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp BatchIssueResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Attempted != 2 || resp.Succeeded != 1 {
		t.Fatalf("unexpected tally: attempted=%d succeeded=%d", resp.Attempted, resp.Succeeded)
	}
	if resp.Results[1].Error != "발급 실패" {
		t.Fatalf("expected failure message, got %q", resp.Results[1].Error)
	}
	if resp.Results[0].Document == nil || resp.Results[1].Document != nil {
		t.Fatalf("document should only accompany successes")
	}
}

func TestHandleSupported(t *testing.T) {
	router := newIssueRouter(&fakeIssuer{})

	req := httptest.NewRequest(http.MethodGet, "/documents/auto-issue/supported", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var items []SupportedResponse
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 supported types, got %d", len(items))
	}
	if items[0].Name == "" || items[0].IssueURL == "" {
		t.Fatalf("expected name and issue url: %+v", items[0])
	}
}
