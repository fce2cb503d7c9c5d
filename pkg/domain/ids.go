// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-entity
// assignment (a CaseID can never be passed where a ClientID is expected).
// Parse functions enforce the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "rehabdocs/pkg/domain-errors"
)

type (
	// UserID identifies a staff member of the office.
	UserID uuid.UUID
	// ClientID identifies a client (the debtor the office represents).
	ClientID uuid.UUID
	// CaseID identifies a single rehabilitation filing.
	CaseID uuid.UUID
	// ChecklistEntryID identifies one required-document entry of a case.
	ChecklistEntryID uuid.UUID
	// DocumentID identifies an uploaded or issued document record.
	DocumentID uuid.UUID
	// SessionID identifies a login session.
	SessionID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseClientID validates and returns a ClientID.
func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s)
	return ClientID(u), err
}

// ParseCaseID validates and returns a CaseID.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s)
	return CaseID(u), err
}

// ParseChecklistEntryID validates and returns a ChecklistEntryID.
func ParseChecklistEntryID(s string) (ChecklistEntryID, error) {
	u, err := parseUUID(s)
	return ChecklistEntryID(u), err
}

// ParseDocumentID validates and returns a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	return DocumentID(u), err
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s)
	return SessionID(u), err
}

func (id UserID) String() string           { return uuid.UUID(id).String() }
func (id ClientID) String() string         { return uuid.UUID(id).String() }
func (id CaseID) String() string           { return uuid.UUID(id).String() }
func (id ChecklistEntryID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string       { return uuid.UUID(id).String() }
func (id SessionID) String() string        { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id ChecklistEntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewClientID returns a fresh random ClientID.
func NewClientID() ClientID { return ClientID(uuid.New()) }

// NewCaseID returns a fresh random CaseID.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

// NewChecklistEntryID returns a fresh random ChecklistEntryID.
func NewChecklistEntryID() ChecklistEntryID { return ChecklistEntryID(uuid.New()) }

// NewDocumentID returns a fresh random DocumentID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }
