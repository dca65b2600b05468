// Package inbox imports files dropped into a watched directory. Anything
// written into the inbox is encrypted into the vault as a document record
// and the source file is removed on success.
package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/vaultservice"
)

const settleDelay = 200 * time.Millisecond

// ImportCallback is called after a file is imported, with the new record id.
type ImportCallback func(dataID, filename string)

// Watch starts an fsnotify watcher on the inbox directory and imports
// dropped files until ctx is cancelled. Writes are debounced per file so a
// file still being copied is only imported once it stops changing.
//
// Files already in the inbox at startup are imported first; hidden files
// and subdirectories are ignored.
func Watch(ctx context.Context, svc *vaultservice.Service, dir string, logger *slog.Logger, cb ImportCallback) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("inbox: started", slog.String("dir", dir))

	// Sweep files that arrived while the watcher was down.
	sweep(ctx, svc, dir, logger, cb)

	// pending holds per-file debounce deadlines; one ticker drives them.
	pending := make(map[string]time.Time)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("inbox: stopped")
			return nil

		case now := <-tick.C:
			for path, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, path)
				importFile(ctx, svc, path, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				delete(pending, ev.Name)
				continue
			}
			if skip(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now().Add(settleDelay)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: error", slog.String("error", watchErr.Error()))
		}
	}
}

// skip filters out hidden files, temp files, and directories.
func skip(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	info, err := os.Stat(path)
	return err != nil || info.IsDir()
}

func sweep(ctx context.Context, svc *vaultservice.Service, dir string, logger *slog.Logger, cb ImportCallback) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("inbox: sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if skip(path) {
			continue
		}
		importFile(ctx, svc, path, logger, cb)
	}
}

// importFile stores one dropped file and removes it on success. Failures
// leave the file in place for the next sweep.
func importFile(ctx context.Context, svc *vaultservice.Service, path string, logger *slog.Logger, cb ImportCallback) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("inbox: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if len(data) == 0 {
		return
	}

	name := filepath.Base(path)
	rec, err := svc.Store(ctx, vaultservice.StoreInput{
		Data:     data,
		DataType: "document",
		Metadata: models.Metadata{Name: name, Category: "inbox"},
	})
	if err != nil {
		logger.Warn("inbox: store failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("inbox: cleanup failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	logger.Info("inbox: imported", slog.String("file", name), slog.String("id", rec.ID))
	if cb != nil {
		cb(rec.ID, name)
	}
}
