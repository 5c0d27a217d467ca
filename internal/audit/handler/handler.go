// Package handler exposes the audit trail to operators.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/audit"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Handler handles admin audit endpoints.
type Handler struct {
	logger    *slog.Logger
	publisher *audit.Publisher
}

func New(publisher *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, publisher: publisher}
}

// Register mounts the audit routes. Callers gate these behind the admin
// token.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}/audit-events", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a number"))
			return
		}
	}

	events, err := h.publisher.List(ctx, tenantID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit events failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
