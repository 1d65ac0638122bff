// Package storage defines the wiki file-system abstraction.
package storage

import (
	"github.com/starford/tinywiki/internal/models"
	"github.com/starford/tinywiki/internal/pathkey"
)

// Provider is the interface for page file operations.
type Provider interface {
	// List returns metadata for every page under the wiki root, sorted by key.
	// A missing root yields an empty list.
	List() ([]models.PageMetadata, error)
	// Read returns the stored content of key, or apperr.ErrNotFound.
	Read(key pathkey.Key) ([]byte, error)
	// Write replaces the content of key, creating parent folders as needed.
	Write(key pathkey.Key, content []byte) error
	// Root returns the absolute wiki root directory.
	Root() string
}
