// Package handler exposes redline review endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/redline/models"
	versionmodels "lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the redline operations the handler needs.
type Service interface {
	Create(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, clauseID *id.ClauseID, proposed string) (*models.Redline, error)
	Get(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) (*models.Redline, error)
	List(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Redline, error)
	Decide(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID, hunkIndex int, decision models.Decision) (*models.Redline, error)
	Apply(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) (*versionmodels.Version, error)
	Discard(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID) error
}

// Handler handles redline endpoints.
type Handler struct {
	logger   *slog.Logger
	redlines Service
}

func New(redlines Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, redlines: redlines}
}

// Register mounts the redline routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{documentID}/redlines", h.handleCreate)
	r.Get("/documents/{documentID}/redlines", h.handleList)
	r.Get("/redlines/{redlineID}", h.handleGet)
	r.Post("/redlines/{redlineID}/decide", h.handleDecide)
	r.Post("/redlines/{redlineID}/apply", h.handleApply)
	r.Post("/redlines/{redlineID}/discard", h.handleDiscard)
}

type createRequest struct {
	Proposed string `json:"proposed"`
	ClauseID string `json:"clause_id,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var clauseID *id.ClauseID
	if req.ClauseID != "" {
		parsed, err := id.ParseClauseID(req.ClauseID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		clauseID = &parsed
	}

	redline, err := h.redlines.Create(ctx, requestcontext.TenantID(ctx), documentID, clauseID, req.Proposed)
	if err != nil {
		h.logError(ctx, "create redline failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, redline)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	redlines, err := h.redlines.List(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if redlines == nil {
		redlines = []*models.Redline{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"redlines": redlines})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	redlineID, err := id.ParseRedlineID(chi.URLParam(r, "redlineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	redline, err := h.redlines.Get(ctx, requestcontext.TenantID(ctx), redlineID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, redline)
}

type decideRequest struct {
	Hunk     int    `json:"hunk"`
	Decision string `json:"decision"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	redlineID, err := id.ParseRedlineID(chi.URLParam(r, "redlineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	redline, err := h.redlines.Decide(ctx, requestcontext.TenantID(ctx), redlineID, req.Hunk, models.Decision(req.Decision))
	if err != nil {
		h.logError(ctx, "decide hunk failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, redline)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	redlineID, err := id.ParseRedlineID(chi.URLParam(r, "redlineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.redlines.Apply(ctx, requestcontext.TenantID(ctx), redlineID)
	if err != nil {
		h.logError(ctx, "apply redline failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, version)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	redlineID, err := id.ParseRedlineID(chi.URLParam(r, "redlineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.redlines.Discard(ctx, requestcontext.TenantID(ctx), redlineID); err != nil {
		h.logError(ctx, "discard redline failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
