// Package domain defines typed identifiers shared across services.
//
// Each ID is a distinct type over uuid.UUID so the compiler rejects
// cross-type assignment (a DocumentID can never be passed where a
// TenantID is expected). Parse functions enforce the trust-boundary
// invariant that IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "lexdraft/pkg/domain-errors"
)

type (
	// TenantID identifies a tenant organization.
	TenantID uuid.UUID
	// UserID identifies a user within a tenant.
	UserID uuid.UUID
	// SessionID identifies an authenticated session.
	SessionID uuid.UUID
	// DocumentID identifies a legal document.
	DocumentID uuid.UUID
	// VersionID identifies an entry in a document's version ledger.
	VersionID uuid.UUID
	// ClauseID identifies a clause within a document version.
	ClauseID uuid.UUID
	// RedlineID identifies a redline (proposed change set).
	RedlineID uuid.UUID
	// AnalysisID identifies a clause analysis job.
	AnalysisID uuid.UUID
	// EventID identifies an audit event.
	EventID uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is required", kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s id", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be nil", kind)
	}
	return parsed, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant")
	return TenantID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session")
	return SessionID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document")
	return DocumentID(u), err
}

func ParseVersionID(s string) (VersionID, error) {
	u, err := parseUUID(s, "version")
	return VersionID(u), err
}

func ParseClauseID(s string) (ClauseID, error) {
	u, err := parseUUID(s, "clause")
	return ClauseID(u), err
}

func ParseRedlineID(s string) (RedlineID, error) {
	u, err := parseUUID(s, "redline")
	return RedlineID(u), err
}

func ParseAnalysisID(s string) (AnalysisID, error) {
	u, err := parseUUID(s, "analysis")
	return AnalysisID(u), err
}

func (id TenantID) String() string   { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id VersionID) String() string  { return uuid.UUID(id).String() }
func (id ClauseID) String() string   { return uuid.UUID(id).String() }
func (id RedlineID) String() string  { return uuid.UUID(id).String() }
func (id AnalysisID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VersionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ClauseID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RedlineID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AnalysisID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewTenantID generates a fresh tenant ID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewUserID generates a fresh user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID generates a fresh session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewDocumentID generates a fresh document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewVersionID generates a fresh version ID.
func NewVersionID() VersionID { return VersionID(uuid.New()) }

// NewClauseID generates a fresh clause ID.
func NewClauseID() ClauseID { return ClauseID(uuid.New()) }

// NewRedlineID generates a fresh redline ID.
func NewRedlineID() RedlineID { return RedlineID(uuid.New()) }

// NewAnalysisID generates a fresh analysis ID.
func NewAnalysisID() AnalysisID { return AnalysisID(uuid.New()) }

// NewEventID generates a fresh event ID.
func NewEventID() EventID { return EventID(uuid.New()) }
