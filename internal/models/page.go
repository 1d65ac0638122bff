// Package models defines the domain types for tinywiki.
package models

import (
	"time"

	"github.com/starford/tinywiki/internal/pathkey"
)

// PageMetadata is a lightweight representation returned by list operations.
type PageMetadata struct {
	Key       pathkey.Key `json:"key"`
	Checksum  string      `json:"checksum"`
	UpdatedAt time.Time   `json:"updated_at"`
}

