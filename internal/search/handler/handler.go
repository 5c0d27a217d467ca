// Package handler exposes the search endpoint.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/search"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

const maxLimit = 100

// Handler handles the search endpoint.
type Handler struct {
	logger *slog.Logger
	index  search.Index
}

func New(index search.Index, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, index: index}
}

// Register mounts the search route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/search", h.handleSearch)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "q is required"))
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLimit {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "limit must be between 1 and %d", maxLimit))
			return
		}
		limit = parsed
	}

	hits, err := h.index.Search(ctx, requestcontext.TenantID(ctx), query, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "search failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "search is unavailable"))
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
