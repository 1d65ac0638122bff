package index

import (
	"log/slog"
	"time"

	"github.com/starford/tinywiki/internal/checksum"
	"github.com/starford/tinywiki/internal/parser"
	"github.com/starford/tinywiki/internal/pathkey"
	"github.com/starford/tinywiki/internal/storage"
)

// Sync walks the wiki and brings the link graph up to date:
//   - new/changed pages are parsed and upserted
//   - pages removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[pathkey.Key]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Key] = struct{}{}

		if checksums[m.Key] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Key)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("key", m.Key.String()), slog.String("error", err.Error()))
			continue
		}
		if _, err := IndexPage(db, m.Key, data); err != nil {
			logger.Warn("sync: index failed", slog.String("key", m.Key.String()), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("key", m.Key.String()))
		}
	}

	for k := range checksums {
		if _, ok := disk[k]; !ok {
			if err := db.DeletePage(k); err != nil {
				logger.Warn("sync: delete failed", slog.String("key", k.String()), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("key", k.String()))
			}
		}
	}

	return nil
}

// IndexPage parses data and upserts it into the link graph. It reports
// false without writing when the stored checksum already matches data.
func IndexPage(db LinkIndex, key pathkey.Key, data []byte) (bool, error) {
	sum := checksum.Sum(data)
	old, err := db.GetChecksum(key)
	if err != nil {
		return false, err
	}
	if old == sum {
		return false, nil
	}
	res := parser.Parse(data)
	err = db.UpsertPage(PageRow{
		Key:       key,
		Title:     res.Title,
		Checksum:  sum,
		UpdatedAt: time.Now(),
	}, res.Links)
	if err != nil {
		return false, err
	}
	return true, nil
}
