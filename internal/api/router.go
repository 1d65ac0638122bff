package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tinywiki/internal/wiki"
)

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *wiki.Service) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)
	r.Put("/pages/*", h.PutPage)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})

	return r
}
