package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/tinywiki/internal/pathkey"
	"github.com/starford/tinywiki/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, key pathkey.Key)

// Watch starts an fsnotify watcher on the wiki root and keeps the link graph
// in step with edits made outside the server until ctx is cancelled. It
// calls cb (if non-nil) after each successful index mutation.
//
// New directories are added to the watch list as they appear. Rename events
// trigger a debounced reconciliation pass against the file system.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	root := store.Root()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind string, key pathkey.Key) {
		if cb != nil {
			cb(kind, key)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Pages may land in the directory before it is watched.
					scheduleReconcile()
					continue
				}
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			key, isPage := pathkey.FromRelPath(rel)
			if !isPage {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(key)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("key", key.String()), slog.String("error", readErr.Error()))
					continue
				}
				changed, idxErr := IndexPage(db, key, data)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("key", key.String()), slog.String("error", idxErr.Error()))
					continue
				}
				// Saves made through the server are indexed before the event arrives.
				if !changed {
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("key", key.String()), slog.String("op", kind))
				notify(kind, key)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeletePage(key); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("key", key.String()), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("key", key.String()))
				notify("deleted", key)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports only the old name; the new one arrives as
				// a Create if it stays inside a watched directory.
				if delErr := db.DeletePage(key); delErr == nil {
					notify("deleted", key)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries whose page is gone and indexes pages whose
// checksum differs from the index.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[pathkey.Key]string, len(metas))
	for _, m := range metas {
		disk[m.Key] = m.Checksum
	}

	for k := range checksums {
		if _, ok := disk[k]; !ok {
			if delErr := db.DeletePage(k); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("key", k.String()))
				notify("deleted", k)
			}
		}
	}

	for k, cs := range disk {
		old, indexed := checksums[k]
		if indexed && old == cs {
			continue
		}
		data, readErr := store.Read(k)
		if readErr != nil {
			continue
		}
		if changed, idxErr := IndexPage(db, k, data); idxErr == nil && changed {
			kind := "updated"
			if !indexed {
				kind = "created"
			}
			logger.Debug("reconcile: indexed", slog.String("key", k.String()), slog.String("op", kind))
			notify(kind, k)
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
