package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/tinywiki/internal/pathkey"
)

// PageRow represents a row in the pages table.
type PageRow struct {
	Key       pathkey.Key
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// Backlink is a page linking to another page.
type Backlink struct {
	Key   pathkey.Key `json:"key"`
	Title string      `json:"title,omitempty"`
}

// UpsertPage inserts or replaces a page and its outgoing links within a transaction.
func (db *DB) UpsertPage(p PageRow, links []pathkey.Key) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO pages (key, title, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, p.Key.String(), p.Title, p.Checksum, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p.Key.String()); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(p.Key.String(), target.String()); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePage removes a page and its outgoing links.
func (db *DB) DeletePage(key pathkey.Key) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, key.String()); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE key = ?`, key.String()); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a page, or empty string if not indexed.
func (db *DB) GetChecksum(key pathkey.Key) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE key = ?`, key.String()).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed page.
func (db *DB) AllChecksums() (map[pathkey.Key]string, error) {
	rows, err := db.conn.Query(`SELECT key, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[pathkey.Key]string)
	for rows.Next() {
		var k, cs string
		if err := rows.Scan(&k, &cs); err != nil {
			return nil, err
		}
		out[pathkey.Key(k)] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the indexed pages linking to target, ordered by key.
// A page linking to itself is not reported.
func (db *DB) Backlinks(target pathkey.Key) ([]Backlink, error) {
	rows, err := db.conn.Query(`
		SELECT l.source, COALESCE(p.title, '')
		FROM links l
		LEFT JOIN pages p ON p.key = l.source
		WHERE l.target = ? AND l.source != l.target
		ORDER BY l.source
	`, target.String())
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []Backlink
	for rows.Next() {
		var k, title string
		if err := rows.Scan(&k, &title); err != nil {
			return nil, err
		}
		out = append(out, Backlink{Key: pathkey.Key(k), Title: title})
	}
	return out, rows.Err()
}
