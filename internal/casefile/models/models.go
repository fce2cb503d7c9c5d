// Package models holds the case registry entities. A case is one
// personal-rehabilitation filing for a client at a specific court.
package models

import (
	"time"

	"rehabdocs/internal/catalog"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
)

// Status tracks where a filing stands in the court process.
type Status string

const (
	StatusPreparing Status = "preparing"
	StatusSubmitted Status = "submitted"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

var statusNames = map[Status]string{
	StatusPreparing: "서류 준비 중",
	StatusSubmitted: "신청서 제출",
	StatusReviewing: "심사 중",
	StatusApproved:  "개시결정",
	StatusCompleted: "완료",
	StatusRejected:  "기각",
}

// ParseStatus validates a case status string.
func ParseStatus(s string) (Status, error) {
	if _, ok := statusNames[Status(s)]; ok {
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown case status %q", s)
}

// StatusName returns the display name for a status.
func StatusName(s Status) string {
	return statusNames[s]
}

// Case is one filing. CaseNumber is assigned by the court after submission
// and stays empty until then.
type Case struct {
	ID         id.CaseID
	ClientID   id.ClientID
	Court      catalog.Court
	CaseNumber string
	Status     Status
	Memo       string
	CreatedBy  id.UserID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
