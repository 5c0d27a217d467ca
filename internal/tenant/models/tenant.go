package models

import (
	"time"

	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
)

// Tenant is the aggregate root for a customer organization (a law firm or
// legal department).
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status transitions: active ↔ suspended only
//   - CreatedAt is immutable after construction
//
// Suspension is enforced at the service layer: every document operation
// resolves the tenant first and fails when it is suspended. Documents are
// not cascaded; reactivation restores access without touching them.
type Tenant struct {
	ID        id.TenantID `json:"id"`
	Name      string      `json:"name"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewTenant validates and constructs an active tenant.
func NewTenant(tenantID id.TenantID, name string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// CanSuspend checks whether the tenant may transition to suspended.
func (t *Tenant) CanSuspend() error {
	if !t.Status.CanTransitionTo(StatusSuspended) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already suspended")
	}
	return nil
}

// ApplySuspension transitions the tenant to suspended. Call CanSuspend first.
func (t *Tenant) ApplySuspension(now time.Time) {
	t.Status = StatusSuspended
	t.UpdatedAt = now
}

// CanReactivate checks whether the tenant may transition back to active.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

// ApplyReactivation transitions the tenant to active. Call CanReactivate first.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = StatusActive
	t.UpdatedAt = now
}
