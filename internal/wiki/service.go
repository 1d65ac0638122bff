// Package wiki ties the path resolver, storage, renderer and link graph into
// the page operations served over HTTP and MCP.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/starford/tinywiki/internal/apperr"
	"github.com/starford/tinywiki/internal/checksum"
	"github.com/starford/tinywiki/internal/index"
	"github.com/starford/tinywiki/internal/parser"
	"github.com/starford/tinywiki/internal/pathkey"
	"github.com/starford/tinywiki/internal/render"
	"github.com/starford/tinywiki/internal/storage"
)

// Page is the full representation of a wiki page.
type Page struct {
	Key       pathkey.Key      `json:"key"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	HTML      string           `json:"html,omitempty"`
	Checksum  string           `json:"checksum,omitempty"`
	Backlinks []index.Backlink `json:"backlinks"`
	Exists    bool             `json:"exists"`
}

// Service coordinates storage, rendering and link-graph operations.
type Service struct {
	store    storage.Provider
	renderer *render.Renderer
	links    index.LinkIndex
}

// NewService creates a new wiki service. links may be nil, in which case
// backlinks are always empty.
func NewService(store storage.Provider, renderer *render.Renderer, links index.LinkIndex) *Service {
	return &Service{store: store, renderer: renderer, links: links}
}

// View reads a page and renders it. It returns apperr.ErrInvalidPath when name
// sanitizes to nothing and apperr.ErrNotFound when no page is stored.
func (s *Service) View(ctx context.Context, name string) (*Page, error) {
	key := pathkey.Parse(name)
	if !key.Valid() {
		return nil, apperr.ErrInvalidPath
	}
	data, err := s.store.Read(key)
	if err != nil {
		return nil, err
	}
	p, err := s.buildPage(ctx, key, data)
	if err != nil {
		return nil, err
	}
	p.HTML = s.renderer.Render(data)
	return p, nil
}

// Source returns the raw content of a page for editing. A missing page is
// not an error: it yields an empty page with Exists set to false.
func (s *Service) Source(ctx context.Context, name string) (*Page, error) {
	key := pathkey.Parse(name)
	if !key.Valid() {
		return nil, apperr.ErrInvalidPath
	}
	data, err := s.store.Read(key)
	if errors.Is(err, apperr.ErrNotFound) {
		return &Page{Key: key, Backlinks: []index.Backlink{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, key, data)
}

// Save replaces the content of a page. Content that is empty after trimming
// whitespace is rejected with apperr.ErrEmptyContent and nothing is written.
func (s *Service) Save(ctx context.Context, name, content string) (pathkey.Key, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.ErrEmptyContent
	}
	key := pathkey.Parse(name)
	if !key.Valid() {
		return "", apperr.ErrInvalidPath
	}
	data := []byte(content)
	if err := s.store.Write(key, data); err != nil {
		return "", fmt.Errorf("wiki: save %s: %w", key, err)
	}
	if s.links != nil {
		// The page is on disk; a stale link graph is repaired by the watcher.
		if _, err := index.IndexPage(s.links, key, data); err != nil {
			slog.WarnContext(ctx, "index update failed", slog.String("key", key.String()), slog.String("error", err.Error()))
		}
	}
	return key, nil
}

// List returns the key of every stored page, sorted.
func (s *Service) List(_ context.Context) ([]pathkey.Key, error) {
	metas, err := s.store.List()
	if err != nil {
		return nil, err
	}
	keys := make([]pathkey.Key, len(metas))
	for i, m := range metas {
		keys[i] = m.Key
	}
	return keys, nil
}

// Backlinks returns the pages linking to name.
func (s *Service) Backlinks(_ context.Context, name string) ([]index.Backlink, error) {
	key := pathkey.Parse(name)
	if !key.Valid() {
		return nil, apperr.ErrInvalidPath
	}
	return s.backlinks(key)
}

// Render converts Markdown without touching storage.
func (s *Service) Render(src string) string {
	return s.renderer.Render([]byte(src))
}

// WriteHighlightCSS writes the stylesheet for highlighted code blocks.
func (s *Service) WriteHighlightCSS(w io.Writer) error {
	return s.renderer.WriteHighlightCSS(w)
}

func (s *Service) backlinks(key pathkey.Key) ([]index.Backlink, error) {
	if s.links == nil {
		return []index.Backlink{}, nil
	}
	bl, err := s.links.Backlinks(key)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// buildPage constructs a Page from raw data without re-reading the file.
func (s *Service) buildPage(_ context.Context, key pathkey.Key, data []byte) (*Page, error) {
	bl, err := s.backlinks(key)
	if err != nil {
		return nil, err
	}
	return &Page{
		Key:       key,
		Title:     parser.Parse(data).Title,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Backlinks: bl,
		Exists:    true,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
