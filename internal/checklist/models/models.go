// Package models holds the per-case required-document checklist entities.
package models

import (
	"time"

	"rehabdocs/internal/catalog"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
)

// Status tracks one checklist entry's preparation state.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown checklist status %q", s)
}

// Entry is one required document on a case's checklist. DocumentID points at
// the upload that completed it, when there is one.
type Entry struct {
	ID           id.ChecklistEntryID
	CaseID       id.CaseID
	DocumentType catalog.DocumentType
	IsRequired   bool
	Status       Status
	Note         string
	DocumentID   *id.DocumentID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary aggregates a case's checklist by status. Only required entries
// count toward the completion rate.
type Summary struct {
	Total          int
	Completed      int
	InProgress     int
	NotStarted     int
	CompletionRate float64
}

// Summarize computes the summary over a case's entries.
func Summarize(entries []*Entry) Summary {
	var sum Summary
	for _, e := range entries {
		if !e.IsRequired {
			continue
		}
		sum.Total++
		switch e.Status {
		case StatusCompleted:
			sum.Completed++
		case StatusInProgress:
			sum.InProgress++
		default:
			sum.NotStarted++
		}
	}
	if sum.Total > 0 {
		rate := float64(sum.Completed) / float64(sum.Total) * 100
		// One decimal place, matching how the rate is displayed.
		sum.CompletionRate = float64(int(rate*10+0.5)) / 10
	}
	return sum
}
