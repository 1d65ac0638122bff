package api

import (
	"github.com/starford/tinywiki/internal/pathkey"
	"github.com/starford/tinywiki/internal/wiki"
)

// PutPageRequest is the request body for writing a page.
type PutPageRequest struct {
	Content string `json:"content" example:"# Hello\nSee [[Other Page]]" validate:"required"`
}

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = wiki.Page

// PageListResponse wraps the page listing.
type PageListResponse struct {
	Pages []pathkey.Key `json:"pages" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}
