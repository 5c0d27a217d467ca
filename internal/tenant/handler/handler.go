// Package handler exposes tenant administration endpoints. These are
// operator-facing and gated by the admin token middleware, not user auth.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/audit"
	"lexdraft/internal/tenant/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the tenant operations the handler needs.
type Service interface {
	Create(ctx context.Context, name string) (*models.Tenant, error)
	Get(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Suspend(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Reactivate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
}

// Handler handles tenant admin endpoints.
type Handler struct {
	logger  *slog.Logger
	tenants Service
	auditor *audit.Publisher
}

func New(tenants Service, auditor *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, tenants: tenants, auditor: auditor}
}

// Register mounts the tenant admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants", h.handleCreate)
	r.Get("/tenants/{tenantID}", h.handleGet)
	r.Post("/tenants/{tenantID}/suspend", h.handleSuspend)
	r.Post("/tenants/{tenantID}/reactivate", h.handleReactivate)
	r.Get("/tenants/{tenantID}/audit", h.handleAudit)
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tenant, err := h.tenants.Create(ctx, req.Name)
	if err != nil {
		h.logError(ctx, "create tenant failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.tenants.Get(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Suspend)
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Reactivate)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.TenantID) (*models.Tenant, error)) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := op(r.Context(), tenantID)
	if err != nil {
		h.logError(r.Context(), "tenant transition failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.auditor.List(r.Context(), tenantID, 100)
	if err != nil {
		h.logError(r.Context(), "list audit events failed", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	type eventResponse struct {
		ID        string `json:"id"`
		Action    string `json:"action"`
		Subject   string `json:"subject"`
		Detail    string `json:"detail,omitempty"`
		ActorID   string `json:"actor_id,omitempty"`
		Timestamp string `json:"timestamp"`
	}
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		resp := eventResponse{
			ID:        event.ID.String(),
			Action:    event.Action,
			Subject:   event.Subject,
			Detail:    event.Detail,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if !event.ActorID.IsNil() {
			resp.ActorID = event.ActorID.String()
		}
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
