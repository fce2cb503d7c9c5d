package handler

import (
	"time"

	"rehabdocs/internal/catalog"
	checklistmodels "rehabdocs/internal/checklist/models"
	"rehabdocs/internal/document/models"
)

// DocumentResponse is the JSON projection of a document row.
type DocumentResponse struct {
	ID           string     `json:"id"`
	CaseID       string     `json:"case_id"`
	DocumentType string     `json:"document_type"`
	DocumentName string     `json:"document_name"`
	FileName     string     `json:"file_name"`
	FileSize     int64      `json:"file_size"`
	MimeType     string     `json:"mime_type,omitempty"`
	Source       string     `json:"source"`
	IssuedAt     *time.Time `json:"issued_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DocumentTypeResponse describes one catalog document type.
type DocumentTypeResponse struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	AutoIssuable bool   `json:"auto_issuable"`
	IssueURL     string `json:"issue_url,omitempty"`
}

// ChecklistEntryResponse is the JSON projection of a checklist entry.
type ChecklistEntryResponse struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"case_id"`
	DocumentType string    `json:"document_type"`
	DocumentName string    `json:"document_name"`
	IsRequired   bool      `json:"is_required"`
	Status       string    `json:"status"`
	Note         string    `json:"note,omitempty"`
	DocumentID   string    `json:"document_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromDocument converts a document to its response form.
func FromDocument(doc *models.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:           doc.ID.String(),
		CaseID:       doc.CaseID.String(),
		DocumentType: string(doc.DocumentType),
		DocumentName: catalog.DocumentName(doc.DocumentType),
		FileName:     doc.FileName,
		FileSize:     doc.FileSize,
		MimeType:     doc.MimeType,
		Source:       string(doc.Source),
		IssuedAt:     doc.IssuedAt,
		CreatedAt:    doc.CreatedAt,
	}
}

// FromChecklistEntry converts a checklist entry to its response form.
func FromChecklistEntry(e *checklistmodels.Entry) *ChecklistEntryResponse {
	resp := &ChecklistEntryResponse{
		ID:           e.ID.String(),
		CaseID:       e.CaseID.String(),
		DocumentType: string(e.DocumentType),
		DocumentName: catalog.DocumentName(e.DocumentType),
		IsRequired:   e.IsRequired,
		Status:       string(e.Status),
		Note:         e.Note,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.DocumentID != nil {
		resp.DocumentID = e.DocumentID.String()
	}
	return resp
}
