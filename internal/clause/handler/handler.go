// Package handler exposes clause segmentation endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/clause/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the clause operations the handler needs.
type Service interface {
	Segment(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Clause, error)
	List(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Clause, error)
}

// Handler handles clause endpoints.
type Handler struct {
	logger  *slog.Logger
	clauses Service
}

func New(clauses Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, clauses: clauses}
}

// Register mounts the clause routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{documentID}/segment", h.handleSegment)
	r.Get("/documents/{documentID}/clauses", h.handleList)
}

func (h *Handler) handleSegment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	clauses, err := h.clauses.Segment(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		h.logError(ctx, "segmentation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"clauses": clauses})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	clauses, err := h.clauses.List(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if clauses == nil {
		clauses = []*models.Clause{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"clauses": clauses})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
