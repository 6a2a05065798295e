package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/hcaudit/internal/store"
)

// dirWatcher collects create/write events under a directory tree and hands
// each changed document to a callback once it has been quiet for the
// debounce delay.
type dirWatcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

func newDirWatcher(root string, debounce time.Duration) (*dirWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = debounceDefault
	}
	w := &dirWatcher{fsw: fsw, debounce: debounce, pending: map[string]time.Time{}}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *dirWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Warn().Err(err).Str("dir", path).Msg("watch directory failed")
		}
		return nil
	})
}

func (w *dirWatcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(ev.Name)
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !isDocument(ev.Name) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

// due removes and returns the paths quiet for at least the debounce delay.
func (w *dirWatcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for p, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			out = append(out, p)
			delete(w.pending, p)
		}
	}
	sort.Strings(out)
	return out
}

// run dispatches debounced paths to fn until ctx is done.
func (w *dirWatcher) run(ctx context.Context, fn func(path string)) error {
	defer w.fsw.Close()
	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		case now := <-ticker.C:
			for _, p := range w.due(now) {
				if _, err := os.Stat(p); err != nil {
					continue
				}
				fn(p)
			}
		}
	}
}

// Watch audits documents under dir as they are created or rewritten, until
// ctx is cancelled. Each audit is emitted like a batch entry and recorded in
// the history database when one is configured.
func (a *App) Watch(ctx context.Context, dir string) error {
	w, err := newDirWatcher(dir, a.cfg.Debounce)
	if err != nil {
		return err
	}
	runID := "watch-" + uuid.New().String()
	log.Info().Str("dir", dir).Str("run_id", runID).Dur("debounce", w.debounce).Msg("watching")
	if a.history != nil {
		now := time.Now()
		if err := a.history.RecordRun(ctx, store.Run{ID: runID, StartedAt: now, FinishedAt: now, Directory: dir, RulesDigest: a.digest}); err != nil {
			log.Warn().Err(err).Msg("record run failed")
		}
	}
	return w.run(ctx, func(path string) {
		log.Info().Str("run_id", runID).Str("doc", path).Msg("change detected")
		res := a.auditOne(ctx, runID, path)
		if err := a.emit(res); err != nil {
			log.Warn().Err(err).Str("doc", path).Msg("write report failed")
		}
		if a.history != nil {
			if err := a.history.RecordDocument(ctx, runID, documentRow(res)); err != nil {
				log.Warn().Err(err).Str("doc", path).Msg("record document failed")
			}
		}
		if err := a.metrics.write(a.cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("write metrics failed")
		}
	})
}
