// Package handler exposes the version ledger endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/redline/engine"
	"lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the version operations the handler needs.
type Service interface {
	AppendManual(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, content, changeSummary string) (*models.Version, error)
	Get(ctx context.Context, tenantID id.TenantID, versionID id.VersionID) (*models.Version, error)
	GetLatest(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Version, error)
	List(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) ([]*models.Version, error)
	Diff(ctx context.Context, tenantID id.TenantID, fromID, toID id.VersionID) ([]engine.Segment, error)
}

// Handler handles version endpoints.
type Handler struct {
	logger   *slog.Logger
	versions Service
}

func New(versions Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, versions: versions}
}

// Register mounts the version routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{documentID}/versions", h.handleAppend)
	r.Get("/documents/{documentID}/versions", h.handleList)
	r.Get("/documents/{documentID}/versions/latest", h.handleLatest)
	r.Get("/documents/{documentID}/versions/diff", h.handleDiff)
	r.Get("/versions/{versionID}", h.handleGet)
}

type appendRequest struct {
	Content       string `json:"content"`
	ChangeSummary string `json:"change_summary"`
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	version, err := h.versions.AppendManual(ctx, requestcontext.TenantID(ctx), documentID, req.Content, req.ChangeSummary)
	if err != nil {
		h.logError(ctx, "append version failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, version)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	versions, err := h.versions.List(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if versions == nil {
		versions = []*models.Version{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.versions.GetLatest(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, version)
}

func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := id.ParseDocumentID(chi.URLParam(r, "documentID")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	fromID, err := id.ParseVersionID(r.URL.Query().Get("from"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "from version is required"))
		return
	}
	toID, err := id.ParseVersionID(r.URL.Query().Get("to"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "to version is required"))
		return
	}

	segments, err := h.versions.Diff(ctx, requestcontext.TenantID(ctx), fromID, toID)
	if err != nil {
		h.logError(ctx, "version diff failed", err)
		httputil.WriteError(w, err)
		return
	}
	if segments == nil {
		segments = []engine.Segment{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	versionID, err := id.ParseVersionID(chi.URLParam(r, "versionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.versions.Get(ctx, requestcontext.TenantID(ctx), versionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, version)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
