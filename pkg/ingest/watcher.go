// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	stabilityWindow = 2 * time.Second
	maxQueueDepth   = 1024
	debounceTick    = 250 * time.Millisecond
)

// Watcher watches the Ingestor's configured directory for file creates and
// writes, debounces rapid-fire events until a path has been quiet for
// stabilityWindow, and routes settled paths through IngestFile. It never
// terminates on a per-file ingest error; it logs and continues.
type Watcher struct {
	ingestor *Ingestor
	root     string
	fsw      *fsnotify.Watcher

	mu       sync.Mutex
	pending  map[string]time.Time
	queueLen int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher builds a Watcher rooted at ig's configured WatchedDir.
func NewWatcher(ig *Ingestor) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		ingestor: ig,
		root:     ig.cfg.WatchedDir,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start adds every directory under root to the watch list and begins the
// event loop in a background goroutine. Start returns once the initial
// directory walk completes; Stop blocks until the event loop has exited.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isDotfile(d.Name()) && path != w.root {
				return filepath.SkipDir
			}
			if werr := w.fsw.Add(path); werr != nil {
				w.ingestor.logger.Warn("watch.add_failed", "path", path, "err", werr)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop halts the event loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.ingestor.logger.Warn("watch.error", "err", err)

		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	base := filepath.Base(ev.Name)
	if isDotfile(base) || isSnapshotFile(base) {
		return
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if werr := w.fsw.Add(ev.Name); werr != nil {
			w.ingestor.logger.Warn("watch.add_failed", "path", ev.Name, "err", werr)
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.pending[ev.Name]; !exists {
		if w.queueLen >= maxQueueDepth {
			w.dropOldestLocked()
		}
		w.queueLen++
	}
	w.pending[ev.Name] = time.Now()
}

// dropOldestLocked evicts the stalest pending path to make room, logging
// the overflow. Caller holds w.mu.
func (w *Watcher) dropOldestLocked() {
	var oldestPath string
	var oldestTime time.Time
	first := true
	for path, t := range w.pending {
		if first || t.Before(oldestTime) {
			oldestPath, oldestTime = path, t
			first = false
		}
	}
	if oldestPath != "" {
		delete(w.pending, oldestPath)
		w.queueLen--
		w.ingestor.logger.Warn("watch.queue_overflow_dropped", "path", oldestPath)
		if w.ingestor.metrics != nil {
			w.ingestor.metrics.WatcherDroppedTotal.Inc()
		}
	}
}

func (w *Watcher) flushSettled() {
	now := time.Now()

	w.mu.Lock()
	var settled []string
	for path, last := range w.pending {
		if now.Sub(last) >= stabilityWindow {
			settled = append(settled, path)
			delete(w.pending, path)
			w.queueLen--
		}
	}
	if w.ingestor.metrics != nil {
		w.ingestor.metrics.WatcherQueueDepth.Set(float64(w.queueLen))
	}
	w.mu.Unlock()

	for _, path := range settled {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if _, err := w.ingestor.IngestFile(path); err != nil {
			w.ingestor.logger.Warn("watch.ingest_failed", "path", path, "err", err)
		}
	}
}
