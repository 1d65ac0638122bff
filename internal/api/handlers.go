package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tinywiki/internal/apperr"
	"github.com/starford/tinywiki/internal/checksum"
	"github.com/starford/tinywiki/internal/wiki"
)

// Handler holds API route handlers.
type Handler struct {
	svc *wiki.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *wiki.Service) *Handler {
	return &Handler{svc: svc}
}

// pagePath extracts the page name from the URL (everything after /pages/).
// Supports encoded slashes (e.g. Folder%2FPage); the name is decoded once.
func pagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	// chi matches on RawPath only when the URL carries escapes that Path
	// cannot represent; otherwise the parameter is already decoded.
	if raw == "" || r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /pages.
//
//	@Summary	List all page keys
//	@Tags		pages
//	@Produce	json
//	@Success	200	{object}	PageListResponse
//	@Router		/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("list pages failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: keys, Total: len(keys)})
}

// GetPage handles GET /pages/*.
//
//	@Summary	Get a page with its rendered HTML and backlinks
//	@Tags		pages
//	@Produce	json
//	@Param		path	path		string	true	"Page name"
//	@Success	200		{object}	PageDetail
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Router		/pages/{path} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	name := pagePath(r)
	page, err := h.svc.View(r.Context(), name)
	if err != nil {
		h.writeError(w, name, "get page failed", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag([]byte(page.Content)))
	writeJSON(w, http.StatusOK, page)
}

// PutPage handles PUT /pages/*. It creates or replaces the page.
//
//	@Summary	Write a page
//	@Tags		pages
//	@Accept		json
//	@Produce	json
//	@Param		path	path		string			true	"Page name"
//	@Param		body	body		PutPageRequest	true	"New content"
//	@Success	200		{object}	PageDetail
//	@Failure	400		{object}	errResponse
//	@Router		/pages/{path} [put]
func (h *Handler) PutPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	name := pagePath(r)

	var req PutPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	key, err := h.svc.Save(r.Context(), name, req.Content)
	if err != nil {
		h.writeError(w, name, "put page failed", err)
		return
	}
	page, err := h.svc.View(r.Context(), key.String())
	if err != nil {
		h.writeError(w, name, "put page failed", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag([]byte(page.Content)))
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) writeError(w http.ResponseWriter, name, msg string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid page path"))
	case errors.Is(err, apperr.ErrEmptyContent):
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(msg, slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
