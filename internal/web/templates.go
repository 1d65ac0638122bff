package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutName = "layout.html"

// parseTemplates builds one template set per page, each combined with the
// shared layout.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: glob templates: %w", err)
	}
	layout := path.Join("templates", layoutName)

	cache := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		name := path.Base(p)
		if name == layoutName {
			continue
		}
		tmpl, err := template.New(name).ParseFS(templateFS, layout, p)
		if err != nil {
			return nil, fmt.Errorf("web: parse template %s: %w", name, err)
		}
		cache[name] = tmpl
	}
	if len(cache) == 0 {
		return nil, fmt.Errorf("web: no page templates found")
	}
	return cache, nil
}

// render executes a page template into a buffer so a failing template never
// leaves a half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data viewData) {
	tmpl, ok := h.templates[page]
	if !ok {
		slog.ErrorContext(r.Context(), "template not found", slog.String("template", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutName, data); err != nil {
		slog.ErrorContext(r.Context(), "template execute failed",
			slog.String("template", page),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "write response failed", slog.String("error", err.Error()))
	}
}
