package handler

import (
	"time"

	"rehabdocs/internal/casefile/models"
	"rehabdocs/internal/casefile/service"
	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
)

// CaseResponse is the JSON projection of a case.
type CaseResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Court      string    `json:"court"`
	CourtName  string    `json:"court_name"`
	CaseNumber string    `json:"case_number,omitempty"`
	Status     string    `json:"status"`
	StatusName string    `json:"status_name"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CaseListItem adds checklist progress to the list projection.
type CaseListItem struct {
	CaseResponse
	Progress *ProgressResponse `json:"progress"`
}

// CaseListResponse is the HTTP response for GET /cases.
type CaseListResponse struct {
	Items  []*CaseListItem `json:"items"`
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

// ProgressResponse summarizes checklist completion for a case.
type ProgressResponse struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	NotStarted     int     `json:"not_started"`
	CompletionRate float64 `json:"completion_rate"`
}

// MissingDocumentResponse names one required document not yet on file.
type MissingDocumentResponse struct {
	DocumentType string `json:"document_type"`
	DocumentName string `json:"document_name"`
	Status       string `json:"status"`
}

// DocumentStatusResponse is the HTTP response for GET /cases/{caseID}/documents/status.
type DocumentStatusResponse struct {
	CaseID   string                     `json:"case_id"`
	Court    string                     `json:"court"`
	Progress *ProgressResponse          `json:"progress"`
	Missing  []*MissingDocumentResponse `json:"missing"`
}

// FromCase converts a case to its response form.
func FromCase(c *models.Case) *CaseResponse {
	return &CaseResponse{
		ID:         c.ID.String(),
		ClientID:   c.ClientID.String(),
		Court:      string(c.Court),
		CourtName:  catalog.CourtName(c.Court),
		CaseNumber: c.CaseNumber,
		Status:     string(c.Status),
		StatusName: models.StatusName(c.Status),
		Memo:       c.Memo,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromSummary(s checklistmodels.Summary) *ProgressResponse {
	return &ProgressResponse{
		Total:          s.Total,
		Completed:      s.Completed,
		InProgress:     s.InProgress,
		NotStarted:     s.NotStarted,
		CompletionRate: s.CompletionRate,
	}
}

// FromDocumentStatus converts a status report to its response form.
func FromDocumentStatus(st *service.DocumentStatus) *DocumentStatusResponse {
	missing := make([]*MissingDocumentResponse, 0, len(st.Missing))
	for _, e := range st.Missing {
		missing = append(missing, &MissingDocumentResponse{
			DocumentType: string(e.DocumentType),
			DocumentName: catalog.DocumentName(e.DocumentType),
			Status:       string(e.Status),
		})
	}
	return &DocumentStatusResponse{
		CaseID:   st.Case.ID.String(),
		Court:    string(st.Case.Court),
		Progress: fromSummary(st.Summary),
		Missing:  missing,
	}
}
