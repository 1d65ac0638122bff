// Package web serves the HTML surface of the wiki: page views, the edit form,
// the page list and flash messages carried between redirects.
package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/starford/tinywiki/internal/apperr"
	"github.com/starford/tinywiki/internal/pathkey"
	"github.com/starford/tinywiki/internal/wiki"
)

const (
	editSuffix   = "/edit"
	maxFormBytes = 10 << 20
)

// Config holds settings for the HTML surface.
type Config struct {
	HomePage string
	Session  SessionConfig
}

// Handler holds the HTML route handlers.
type Handler struct {
	svc       *wiki.Service
	home      string
	sessions  *sessions.CookieStore
	templates map[string]*template.Template
}

type viewData struct {
	Title    string
	HomePage string
	Flashes  []string
	Page     *wiki.Page
	Body     template.HTML
	Pages    []pathkey.Key
}

// NewHandler parses the embedded templates and creates a Handler.
func NewHandler(svc *wiki.Service, cfg Config) (*Handler, error) {
	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	home := cfg.HomePage
	if home == "" {
		home = "Home"
	}
	return &Handler{
		svc:       svc,
		home:      home,
		sessions:  newSessionStore(cfg.Session),
		templates: tmpls,
	}, nil
}

// Register mounts the HTML routes on r. Page names starting with "_" are
// shadowed by the fixed routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/_list", h.List)
	r.Get("/_static/highlight.css", h.HighlightCSS)
	r.Get("/*", h.Page)
	r.Post("/*", h.Save)
	r.NotFound(h.NotFound)
}

// pagePath extracts the page name from the URL and percent-decodes it
// exactly once.
func pagePath(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
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

func pageURL(name string) string {
	return "/" + pathkey.EscapePath(name)
}

// Root handles GET / by redirecting to the home page.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pageURL(h.home), http.StatusFound)
}

// List handles GET /_list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list pages failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "list.html", viewData{
		Title:    "All pages",
		HomePage: h.home,
		Flashes:  h.takeFlashes(w, r),
		Pages:    keys,
	})
}

// HighlightCSS handles GET /_static/highlight.css.
func (h *Handler) HighlightCSS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.WriteHighlightCSS(&buf); err != nil {
		slog.ErrorContext(r.Context(), "highlight css failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = buf.WriteTo(w)
}

// Page handles GET /<name> and GET /<name>/edit.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	name := pagePath(r)
	if strings.HasSuffix(name, editSuffix) {
		h.edit(w, r, strings.TrimSuffix(name, editSuffix))
		return
	}
	h.view(w, r, name)
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request, name string) {
	page, err := h.svc.View(r.Context(), name)
	switch {
	case errors.Is(err, apperr.ErrInvalidPath):
		h.NotFound(w, r)
		return
	case errors.Is(err, apperr.ErrNotFound):
		h.addFlash(w, r, "Page '"+name+"' does not exist. Create it!")
		http.Redirect(w, r, pageURL(name)+editSuffix, http.StatusFound)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "view page failed", slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	title := page.Title
	if title == "" {
		title = page.Key.Name()
	}
	h.render(w, r, http.StatusOK, "show.html", viewData{
		Title:    title,
		HomePage: h.home,
		Flashes:  h.takeFlashes(w, r),
		Page:     page,
		// Sanitized by the renderer.
		Body: template.HTML(page.HTML), //nolint:gosec
	})
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request, name string) {
	page, err := h.svc.Source(r.Context(), name)
	if errors.Is(err, apperr.ErrInvalidPath) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "read page source failed", slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "edit.html", viewData{
		Title:    "Editing " + page.Key.String(),
		HomePage: h.home,
		Flashes:  h.takeFlashes(w, r),
		Page:     page,
	})
}

// Save handles POST /<name> with the form field content.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	name := pagePath(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	_, err := h.svc.Save(r.Context(), name, r.PostForm.Get("content"))
	switch {
	case errors.Is(err, apperr.ErrEmptyContent):
		h.addFlash(w, r, "Page content cannot be empty!")
		http.Redirect(w, r, pageURL(name)+editSuffix, http.StatusSeeOther)
	case errors.Is(err, apperr.ErrInvalidPath):
		h.NotFound(w, r)
	case err != nil:
		slog.ErrorContext(r.Context(), "save page failed", slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	default:
		h.addFlash(w, r, "Page '"+name+"' saved successfully!")
		http.Redirect(w, r, pageURL(name), http.StatusSeeOther)
	}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound.html", viewData{
		Title:    "Page Not Found",
		HomePage: h.home,
	})
}
