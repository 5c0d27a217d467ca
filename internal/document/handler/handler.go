// Package handler exposes document CRUD and workflow endpoints. All routes
// sit behind RequireAuth; the tenant always comes from the token, never
// from the request.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/document/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// maxUploadBytes bounds multipart uploads. Contracts are small; anything
// bigger is almost certainly a mistake.
const maxUploadBytes = 32 << 20

// Service defines the document operations the handler needs.
type Service interface {
	Upload(ctx context.Context, tenantID id.TenantID, title, filename, contentType string, data []byte) (*models.Document, error)
	Get(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)
	List(ctx context.Context, tenantID id.TenantID, status *models.Status) ([]*models.Document, error)
	UpdateTitle(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID, title string) (*models.Document, error)
	Delete(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) error
	DownloadOriginal(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, []byte, error)

	SubmitForReview(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)
	RequestChanges(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)
	Approve(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)
	SendForSignature(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)
	Complete(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)
}

// Handler handles document endpoints.
type Handler struct {
	logger    *slog.Logger
	documents Service
}

func New(documents Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, documents: documents}
}

// Register mounts the document routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents", h.handleUpload)
	r.Get("/documents", h.handleList)
	r.Get("/documents/{documentID}", h.handleGet)
	r.Patch("/documents/{documentID}", h.handleUpdateTitle)
	r.Delete("/documents/{documentID}", h.handleDelete)
	r.Get("/documents/{documentID}/original", h.handleDownload)

	r.Post("/documents/{documentID}/submit-review", h.transitionHandler(h.documents.SubmitForReview))
	r.Post("/documents/{documentID}/request-changes", h.transitionHandler(h.documents.RequestChanges))
	r.Post("/documents/{documentID}/approve", h.transitionHandler(h.documents.Approve))
	r.Post("/documents/{documentID}/send-signature", h.transitionHandler(h.documents.SendForSignature))
	r.Post("/documents/{documentID}/complete", h.transitionHandler(h.documents.Complete))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart request"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read file"))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	contentType := header.Header.Get("Content-Type")

	document, err := h.documents.Upload(ctx, requestcontext.TenantID(ctx), title, header.Filename, contentType, data)
	if err != nil {
		h.logError(ctx, "upload failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, document)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var status *models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.Status(raw)
		status = &s
	}

	documents, err := h.documents.List(ctx, requestcontext.TenantID(ctx), status)
	if err != nil {
		h.logError(ctx, "list documents failed", err)
		httputil.WriteError(w, err)
		return
	}
	if documents == nil {
		documents = []*models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": documents})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	document, err := h.documents.Get(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, document)
}

type updateTitleRequest struct {
	Title string `json:"title"`
}

func (h *Handler) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	document, err := h.documents.UpdateTitle(ctx, requestcontext.TenantID(ctx), documentID, req.Title)
	if err != nil {
		h.logError(ctx, "update title failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, document)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.documents.Delete(ctx, requestcontext.TenantID(ctx), documentID); err != nil {
		h.logError(ctx, "delete document failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	document, data, err := h.documents.DownloadOriginal(ctx, requestcontext.TenantID(ctx), documentID)
	if err != nil {
		h.logError(ctx, "download original failed", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", document.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.OriginalFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type transitionFunc func(ctx context.Context, tenantID id.TenantID, documentID id.DocumentID) (*models.Document, error)

func (h *Handler) transitionHandler(op transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		document, err := op(ctx, requestcontext.TenantID(ctx), documentID)
		if err != nil {
			h.logError(ctx, "workflow transition failed", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, document)
	}
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
