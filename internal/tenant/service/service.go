// Package service orchestrates tenant lifecycle management.
package service

import (
	"context"
	"errors"
	"strings"

	"lexdraft/internal/audit"
	tenantmetrics "lexdraft/internal/tenant/metrics"
	"lexdraft/internal/tenant/models"
	"lexdraft/internal/tenant/store"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/platform/tx"
	"lexdraft/pkg/requestcontext"
)

// Service orchestrates tenant lifecycle management. Mutations and their
// audit events commit in one transaction through the runner.
type Service struct {
	tenants store.Store
	auditor *audit.Publisher
	metrics *tenantmetrics.Metrics
	runner  tx.Runner
}

func New(tenants store.Store, auditor *audit.Publisher, metrics *tenantmetrics.Metrics, runner tx.Runner) *Service {
	return &Service{tenants: tenants, auditor: auditor, metrics: metrics, runner: runner}
}

func (s *Service) Create(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)

	tenant, err := models.NewTenant(id.NewTenantID(), name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = tx.Run(ctx, s.runner, func(ctx context.Context) error {
		if err := s.tenants.CreateIfNameAvailable(ctx, tenant); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenant.ID,
			Action:   audit.ActionTenantCreated,
			Subject:  tenant.ID.String(),
			Detail:   tenant.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTenantsCreated()
	return tenant, nil
}

func (s *Service) Get(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

// GetByName retrieves a tenant by name (case-insensitive).
func (s *Service) GetByName(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant name is required")
	}
	tenant, err := s.tenants.FindByName(ctx, name)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

// Suspend transitions a tenant to suspended status. Suspension is the
// enforcement point that blocks all document operations for the tenant.
func (s *Service) Suspend(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}

	now := requestcontext.Now(ctx)
	var tenant *models.Tenant
	err := tx.Run(ctx, s.runner, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenants.Execute(ctx, tenantID,
			func(t *models.Tenant) error {
				if err := t.CanSuspend(); err != nil {
					return dErrors.New(dErrors.CodeConflict, "tenant is already suspended")
				}
				return nil
			},
			func(t *models.Tenant) {
				t.ApplySuspension(now)
			},
		)
		if err != nil {
			return wrapTenantErr(err)
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenant.ID,
			Action:   audit.ActionTenantSuspended,
			Subject:  tenant.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTenantsSuspended()
	return tenant, nil
}

// Reactivate transitions a suspended tenant back to active status.
func (s *Service) Reactivate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}

	now := requestcontext.Now(ctx)
	var tenant *models.Tenant
	err := tx.Run(ctx, s.runner, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenants.Execute(ctx, tenantID,
			func(t *models.Tenant) error {
				if err := t.CanReactivate(); err != nil {
					return dErrors.New(dErrors.CodeConflict, "tenant is already active")
				}
				return nil
			},
			func(t *models.Tenant) {
				t.ApplyReactivation(now)
			},
		)
		if err != nil {
			return wrapTenantErr(err)
		}
		return s.auditor.Emit(ctx, audit.Event{
			TenantID: tenant.ID,
			Action:   audit.ActionTenantReactivated,
			Subject:  tenant.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	return tenant, nil
}

// RequireActive resolves the tenant and fails unless it is active. Document
// services call this on every operation so suspension takes effect
// immediately, without cascading status onto documents.
func (s *Service) RequireActive(ctx context.Context, tenantID id.TenantID) error {
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if !tenant.IsActive() {
		return dErrors.New(dErrors.CodeForbidden, "tenant is suspended")
	}
	return nil
}

func wrapTenantErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
	}
}
