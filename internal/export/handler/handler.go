// Package handler exposes export endpoints.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/export"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the export operations the handler needs.
type Service interface {
	ExportRedline(ctx context.Context, tenantID id.TenantID, redlineID id.RedlineID, format export.Format) (*export.Result, error)
	ExportDiff(ctx context.Context, tenantID id.TenantID, fromID, toID id.VersionID, format export.Format) (*export.Result, error)
}

// Handler handles export endpoints.
type Handler struct {
	logger  *slog.Logger
	exports Service
}

func New(exports Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, exports: exports}
}

// Register mounts the export routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/redlines/{redlineID}/export", h.handleRedlineExport)
	r.Get("/documents/{documentID}/export", h.handleDiffExport)
}

func (h *Handler) handleRedlineExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	redlineID, err := id.ParseRedlineID(chi.URLParam(r, "redlineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.exports.ExportRedline(ctx, requestcontext.TenantID(ctx), redlineID, format)
	if err != nil {
		h.logError(ctx, "redline export failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeResult(w, result)
}

func (h *Handler) handleDiffExport(w http.ResponseWriter, r *http.Request) {
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
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.exports.ExportDiff(ctx, requestcontext.TenantID(ctx), fromID, toID, format)
	if err != nil {
		h.logError(ctx, "diff export failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeResult(w, result)
}

func writeResult(w http.ResponseWriter, result *export.Result) {
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
