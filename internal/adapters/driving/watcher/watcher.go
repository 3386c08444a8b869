// Package watcher ingests documents dropped into a watched folder.
//
// Files are handed to the knowledge service once their writes settle,
// so copying a large PDF into the folder does not trigger ingestion of
// a half-written file.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lexchat/internal/core/ports/driving"
	"github.com/custodia-labs/lexchat/internal/logger"
)

// settleDelay is how long a file must stay quiet after its last write
// event before it is ingested.
const settleDelay = 500 * time.Millisecond

// ingestUserID marks watcher-ingested documents in bookkeeping records.
const ingestUserID = "local"

// Watcher feeds created files in a directory into the knowledge service.
type Watcher struct {
	dir       string
	knowledge driving.KnowledgeService

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. The directory is created if absent.
func New(dir string, knowledge driving.KnowledgeService) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating watch directory: %w", err)
	}
	return &Watcher{
		dir:       dir,
		knowledge: knowledge,
		pending:   make(map[string]*time.Timer),
	}, nil
}

// Run watches the directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching %s for documents", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

// schedule arms (or re-arms) the settle timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if mimeTypeFor(path) == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.ingest(ctx, path)
	})
}

// ingest reads a settled file and hands it to the knowledge service.
func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watcher: reading %s: %v", path, err)
		return
	}

	filename := filepath.Base(path)
	result, err := w.knowledge.IngestFile(ctx, ingestUserID, filename, mimeTypeFor(path), data)
	if err != nil {
		logger.Warn("watcher: ingesting %s: %v", filename, err)
		return
	}

	logger.Info("ingested %s (%d chunks)", filename, result.ChunkCount)
}

// mimeTypeFor maps a watched file's extension to its MIME type.
// Unsupported extensions return "".
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".text", ".md":
		return "text/plain"
	default:
		return ""
	}
}
