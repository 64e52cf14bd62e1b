package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Allowed extensions for spooled event files (lowercase, without '.').
var defaultExts = map[string]struct{}{
	"json": {},
}

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	AllowedExts map[string]struct{}
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid update/rename bursts
}

// StartWatcher emits the path of every spooled event file as it appears.
// Existing files are emitted first when InitialScan is set, so events dropped
// while the daemon was down are not lost. Sends block until the consumer
// drains them; a full channel applies backpressure instead of losing paths.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if len(cfg.Roots) == 0 {
		slog.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = defaultExts
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	// Add roots recursively, collecting any pre-existing files for the
	// initial emit. Emission happens on the watcher goroutine so a slow
	// consumer cannot stall startup.
	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && allowed(path, cfg.AllowedExts) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			slog.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			_ = w.Close()
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		// pending is only ever touched from this goroutine; the debounce
		// timer wakes the select loop through flush rather than flushing
		// the map from the timer goroutine.
		var timer *time.Timer
		var flush <-chan time.Time
		pending := map[string]struct{}{}

		sendPending := func() bool {
			for p := range pending {
				if !emit(p) {
					return false
				}
				delete(pending, p)
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				flush = nil
				if !sendPending() {
					return
				}
			case e := <-w.Events:
				if e.Op&fsnotify.Create == fsnotify.Create {
					// A created directory needs watching too; for files the
					// add fails and is ignored.
					tryAddDir(w, e.Name)
				}

				if allowed(e.Name, cfg.AllowedExts) && (e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename)) != 0 {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer == nil {
							timer = time.NewTimer(cfg.Debounce)
						} else {
							if !timer.Stop() && flush != nil {
								<-timer.C
							}
							timer.Reset(cfg.Debounce)
						}
						flush = timer.C
					} else if !sendPending() {
						return
					}
				}
			case err := <-w.Errors:
				slog.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}

func tryAddDir(w *fsnotify.Watcher, path string) {
	// Best-effort: attempt to add; non-directories error and are ignored.
	_ = w.Add(path)
}
