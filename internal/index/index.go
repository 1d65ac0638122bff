package index

import "github.com/starford/tinywiki/internal/pathkey"

// LinkIndex defines the link-graph operations consumers depend on.
type LinkIndex interface {
	UpsertPage(p PageRow, links []pathkey.Key) error
	DeletePage(key pathkey.Key) error
	GetChecksum(key pathkey.Key) (string, error)
	AllChecksums() (map[pathkey.Key]string, error)
	Backlinks(target pathkey.Key) ([]Backlink, error)
	Close() error
}

// Verify *DB satisfies LinkIndex at compile time.
var _ LinkIndex = (*DB)(nil)
