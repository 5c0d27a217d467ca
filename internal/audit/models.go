// Package audit captures structured audit events via the transactional
// outbox pattern: events are written to the outbox in the same transaction
// as the domain change, and a background worker publishes them to Kafka.
package audit

import (
	"time"

	id "lexdraft/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        id.EventID
	TenantID  id.TenantID
	ActorID   id.UserID
	Action    string
	Subject   string
	Detail    string
	RequestID string
	Timestamp time.Time
}

// Actions recorded by the services. The subject identifies the affected
// entity (document ID, tenant ID, redline ID).
const (
	ActionTenantCreated             = "tenant.created"
	ActionTenantSuspended           = "tenant.suspended"
	ActionTenantReactivated         = "tenant.reactivated"
	ActionUserRegistered            = "user.registered"
	ActionUserLoggedIn              = "user.logged_in"
	ActionUserLoggedOut             = "user.logged_out"
	ActionDocumentUploaded          = "document.uploaded"
	ActionDocumentDeleted           = "document.deleted"
	ActionDocumentWorkflowAdvanced  = "document.workflow_advanced"
	ActionDocumentClausesSegmented  = "document.clauses_segmented"
	ActionDocumentAnalysisRequested = "document.analysis_requested"
	ActionRedlineCreated            = "redline.created"
	ActionRedlineDecided            = "redline.hunk_decided"
	ActionRedlineApplied            = "redline.applied"
	ActionRedlineDiscarded          = "redline.discarded"
	ActionVersionAppended           = "version.appended"
	ActionExportRendered            = "document.exported"
)
