// Package audit records who did what to client records and filings. Auditing
// is fail-open: a broken sink never blocks or fails the operation it records.
package audit

import (
	"context"
	"time"

	id "rehabdocs/pkg/domain"
)

// Action names a recorded operation.
type Action string

const (
	ActionLogin  Action = "user_login"
	ActionLogout Action = "user_logout"

	ActionClientCreated   Action = "client_created"
	ActionClientUpdated   Action = "client_updated"
	ActionClientDeleted   Action = "client_deleted"
	ActionCertRegistered  Action = "certificate_registered"
	ActionCertRemoved     Action = "certificate_removed"
	ActionCaseCreated     Action = "case_created"
	ActionCaseUpdated     Action = "case_updated"
	ActionCaseDeleted     Action = "case_deleted"
	ActionDocumentUpload  Action = "document_uploaded"
	ActionDocumentDeleted Action = "document_deleted"
	ActionAutoIssueStart  Action = "auto_issue_requested"
	ActionAutoIssueDone   Action = "auto_issue_completed"
	ActionAutoIssueFailed Action = "auto_issue_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ActorID   id.UserID `json:"actor_id"`
	// Entity and EntityID locate the record acted on, e.g. "client"/"case"
	// and its UUID.
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Recorder accepts events without blocking the caller. Implementations must
// tolerate sink failures silently.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Store persists events for inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Nop discards every event. Used in tests and when auditing is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
