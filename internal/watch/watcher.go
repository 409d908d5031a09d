package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/specterhq/specter-scan/internal/manifest"
	"github.com/specterhq/specter-scan/internal/scanner"
)

// Watch runs the filesystem watch loop until ctx is cancelled. Manifest
// writes feed the trigger controller; directories under excluded path
// segments are never watched.
func (s *Session) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range s.paths {
		if err := addDirs(w, root); err != nil {
			return err
		}
	}

	if s.cfg.AutoScan {
		// Initial pass, the equivalent of opening every manifest.
		if err := s.ScanAll(ctx); err != nil {
			s.logger.Warn("initial scan failed", "error", err)
		}
	}

	defer s.ctrl.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, w, ev)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event) {
	if scanner.Excluded(ev.Name) {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = addDirs(w, ev.Name)
			return
		}
	}

	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		if manifest.For(ev.Name) != nil {
			s.ctrl.Forget(ev.Name)
			s.store.Clear(ev.Name)
		}
		return
	}

	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}

	if manifest.For(ev.Name) == nil {
		return
	}

	if !s.cfg.AutoScan {
		return
	}

	s.logger.Debug("manifest changed", "file", ev.Name)
	s.ctrl.Trigger(ctx, ev.Name)
}

// addDirs registers root and every non-excluded directory beneath it.
func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if scanner.Excluded(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
