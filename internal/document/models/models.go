// Package models holds the document record entities. A document is one
// stored file attached to a case, either uploaded by staff or fetched from
// the issuance gateway.
package models

import (
	"time"

	"rehabdocs/internal/catalog"
	id "rehabdocs/pkg/domain"
)

// Source records how a document entered the system.
type Source string

const (
	SourceManualUpload Source = "manual_upload"
	SourceHyphen       Source = "hyphen"
)

// Document is one stored file. FilePath is the storage provider's opaque
// path; FileName keeps the name the user saw.
type Document struct {
	ID           id.DocumentID
	CaseID       id.CaseID
	DocumentType catalog.DocumentType
	FileName     string
	FilePath     string
	FileSize     int64
	MimeType     string
	Source       Source
	// IssuedAt is set only for issued documents, from the gateway response.
	IssuedAt   *time.Time
	UploadedBy id.UserID
	CreatedAt  time.Time
}
