package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
)

// DefaultDebounce is how long a file must stay quiet before it is re-ingested.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-ingests supported files under a directory when they are
// created or written, and drops their chunks when they are removed.
type Watcher struct {
	root     string
	loader   *Loader
	ingester *Ingester
	metadata map[string]string
	logger   *zap.Logger

	// chunks is the chunk count last indexed per relative path. Only the
	// Run goroutine touches it.
	chunks map[string]int

	Debounce time.Duration
	// OnIngest, when set, is called after every re-ingest attempt.
	OnIngest func(path string, ids []string, err error)
}

// NewWatcher returns a Watcher over root.
func NewWatcher(root string, loader *Loader, ingester *Ingester, metadata map[string]string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:     root,
		loader:   loader,
		ingester: ingester,
		metadata: metadata,
		logger:   logger,
		chunks:   make(map[string]int),
		Debounce: DefaultDebounce,
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.seed(ctx)
	w.logger.Info("watching for document changes", zap.String("dir", w.root))

	tick := time.NewTicker(max(w.Debounce/2, 10*time.Millisecond))
	defer tick.Stop()
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.logger.Warn("watching new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 && Supported(ev.Name) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.String("dir", w.root), zap.Error(err))

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < w.Debounce {
					continue
				}
				delete(pending, path)
				w.sync(ctx, path)
			}
		}
	}
}

// seed records the chunk counts of files already on disk so later edits can
// drop chunks that no longer exist.
func (w *Watcher) seed(ctx context.Context) {
	docs, err := w.loader.LoadDirectory(ctx, w.root, w.metadata)
	if err != nil && !errors.Is(err, ErrNoDocuments) {
		w.logger.Warn("reading existing documents", zap.String("dir", w.root), zap.Error(err))
		return
	}
	for rel, n := range chunkCounts(docs) {
		w.chunks[rel] = n
	}
}

// sync brings the index in line with path: re-ingest when it exists, drop
// its chunks when it is gone.
func (w *Watcher) sync(ctx context.Context, path string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		w.remove(ctx, path)
		return
	}
	w.reingest(ctx, path)
}

func (w *Watcher) reingest(ctx context.Context, path string) {
	rel := w.rel(path)
	docs, err := w.loader.LoadFile(w.root, path, w.metadata)
	var ids []string
	if err == nil && len(docs) > 0 {
		ids, err = w.ingester.Ingest(ctx, docs)
	}
	if err == nil {
		n := chunkCounts(docs)[rel]
		err = w.dropFrom(ctx, rel, n)
	}
	if err != nil {
		w.logger.Error("re-ingest failed", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Info("re-ingested file", zap.String("path", path), zap.Int("chunks", len(ids)))
	}
	if w.OnIngest != nil {
		w.OnIngest(path, ids, err)
	}
}

func (w *Watcher) remove(ctx context.Context, path string) {
	rel := w.rel(path)
	if _, ok := w.chunks[rel]; !ok {
		return
	}
	if err := w.dropFrom(ctx, rel, 0); err != nil {
		w.logger.Error("removing chunks failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("removed file from index", zap.String("path", path))
}

// dropFrom deletes the chunks of rel numbered n and above that the previous
// ingest produced, then records n as the current count.
func (w *Watcher) dropFrom(ctx context.Context, rel string, n int) error {
	prev := w.chunks[rel]
	if prev > n {
		stale := make([]string, 0, prev-n)
		for i := n; i < prev; i++ {
			stale = append(stale, ChunkID(rel, i))
		}
		if err := w.ingester.Remove(ctx, stale); err != nil {
			return err
		}
	}
	if n == 0 {
		delete(w.chunks, rel)
	} else {
		w.chunks[rel] = n
	}
	return nil
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// addTree watches dir and its subdirectories, skipping hidden and ignored
// ones.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	ignored, err := w.loader.ignoreMatcher(w.root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (strings.HasPrefix(d.Name(), ".") || ignored.Match(w.rel(path), true)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// chunkCounts maps each relative path to one past its highest chunk number.
func chunkCounts(docs []vectorstore.Document) map[string]int {
	counts := make(map[string]int)
	for _, d := range docs {
		rel, _ := d.Metadata[MetaName].(string)
		i, ok := d.Metadata[MetaChunk].(int)
		if rel == "" || !ok {
			continue
		}
		counts[rel] = max(counts[rel], i+1)
	}
	return counts
}
