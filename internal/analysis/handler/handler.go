// Package handler exposes risk analysis endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/analysis/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the analysis operations the handler needs.
type Service interface {
	Request(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (int, error)
	Results(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Job, error)
}

// Handler handles analysis endpoints.
type Handler struct {
	logger   *slog.Logger
	analyses Service
}

func New(analyses Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, analyses: analyses}
}

// Register mounts the analysis routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{documentID}/analysis", h.handleRequest)
	r.Get("/documents/{documentID}/analysis", h.handleResults)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	queued, err := h.analyses.Request(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		h.logError(ctx, "analysis request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"queued": queued})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	jobs, err := h.analyses.Results(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*models.Job{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
