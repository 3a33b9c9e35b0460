// Package watch re-animates diagram source files as they change on disk.
// Dropping a .mmd file into the watched directory produces an animation;
// editing it replaces the previous runs; removing it deletes them.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eidsvag/animere/internal/studio"
)

const sourceExt = ".mmd"

// Animator is the slice of the studio service the watcher drives.
type Animator interface {
	Animate(ctx context.Context, req studio.Request) (*studio.Result, error)
	DeleteRunsByName(name string) error
}

// Watcher re-runs the pipeline for diagram sources under a directory.
type Watcher struct {
	root     string
	theme    string
	debounce time.Duration
	svc      Animator
	logger   *slog.Logger
}

// New creates a watcher over root. debounce below 1ms is raised to the
// default, absorbing editor save bursts.
func New(root, themeName string, debounce time.Duration, svc Animator, logger *slog.Logger) *Watcher {
	if debounce < time.Millisecond {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{root: root, theme: themeName, debounce: debounce, svc: svc, logger: logger}
}

// Run starts an fsnotify watcher on the source root and processes file
// change events until ctx is cancelled. Per-file events are debounced so an
// editor's save burst triggers one animation run, not several.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events fire on the old path only; the new path arrives as a
// separate Create event.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	w.logger.Info("watcher: started", slog.String("root", w.root))

	// Debounced paths land here from their timers.
	ready := make(chan string, 256)
	timers := make(map[string]*time.Timer)

	schedule := func(rel string) {
		if t, ok := timers[rel]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[rel] = time.AfterFunc(w.debounce, func() {
			select {
			case ready <- rel:
			default:
				// Queue full; the next event for the path will reschedule.
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range timers {
				t.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case rel := <-ready:
			delete(timers, rel)
			w.animate(ctx, rel)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, absPath); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					// Pick up sources already inside the new directory.
					w.scheduleExisting(absPath, schedule)
					continue
				}
			}

			if !strings.HasSuffix(absPath, sourceExt) {
				continue
			}
			rel, relErr := filepath.Rel(w.root, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				schedule(rel)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if t, ok := timers[rel]; ok {
					t.Stop()
					delete(timers, rel)
				}
				name := runName(rel)
				if delErr := w.svc.DeleteRunsByName(name); delErr != nil {
					w.logger.Warn("watcher: delete runs failed",
						slog.String("name", name),
						slog.String("error", delErr.Error()))
				} else {
					w.logger.Info("watcher: runs removed", slog.String("name", name))
				}
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// animate runs the pipeline for one source file, replacing any previous runs
// recorded under the same name.
func (w *Watcher) animate(ctx context.Context, rel string) {
	data, err := os.ReadFile(filepath.Join(w.root, rel))
	if err != nil {
		w.logger.Warn("watcher: read failed",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		return
	}

	name := runName(rel)
	if err := w.svc.DeleteRunsByName(name); err != nil {
		w.logger.Warn("watcher: stale run cleanup failed",
			slog.String("name", name),
			slog.String("error", err.Error()))
	}

	res, err := w.svc.Animate(ctx, studio.Request{
		Name:   name,
		Source: string(data),
		Theme:  w.theme,
	})
	if err != nil {
		w.logger.Error("watcher: animation failed",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Info("watcher: animated",
		slog.String("path", rel),
		slog.String("run", res.Run.ID),
		slog.Int("frames", res.Run.FrameCount))
}

// scheduleExisting schedules every source file already present under dir.
func (w *Watcher) scheduleExisting(dir string, schedule func(string)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, sourceExt) {
			return nil
		}
		if rel, relErr := filepath.Rel(w.root, path); relErr == nil {
			schedule(rel)
		}
		return nil
	})
}

// runName derives the catalog run name from a source path: the file stem,
// keeping any subdirectory prefix.
func runName(rel string) string {
	return strings.TrimSuffix(filepath.ToSlash(rel), sourceExt)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
