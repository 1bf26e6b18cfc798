package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Root        string        // inbox root; owner directories below it are watched too
	InitialScan bool          // import files already present before watching
	Debounce    time.Duration // coalesce write bursts per file; 0 imports on every event
}

// Watch imports message files as they are created or rewritten under cfg.Root
// and returns when ctx ends.
func (in *Inbox) Watch(ctx context.Context, cfg WatchConfig) error {
	if cfg.Root == "" {
		return errors.New("watch: root is required")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		in.logger.Error("failed to create fsnotify watcher", "error", err)
		return err
	}
	defer func() { _ = w.Close() }()

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		in.logger.Error("failed to watch inbox", "root", cfg.Root, "error", err)
		return err
	}
	if cfg.InitialScan {
		if _, _, err := in.ImportDirectory(ctx, cfg.Root, true); err != nil {
			return err
		}
	}
	in.logger.Info("ingest.watch.start", "root", cfg.Root, "debounce_ms", cfg.Debounce.Milliseconds())

	pending := map[string]struct{}{}
	var tick <-chan time.Time
	var timer *time.Timer
	flush := func() {
		for p := range pending {
			delete(pending, p)
			if _, err := in.ImportFile(ctx, p); err != nil {
				in.logger.Warn("ingest.file.failed", "path", p, "error", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.Has(fsnotify.Create) {
				// new owner directories; plain files fail Add and are handled below
				_ = w.Add(e.Name)
			}
			if !allowed(e.Name, messageExts) || isHidden(e.Name) {
				continue
			}
			if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
				continue
			}
			pending[e.Name] = struct{}{}
			if cfg.Debounce <= 0 {
				flush()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(cfg.Debounce)
			} else {
				timer.Reset(cfg.Debounce)
			}
			tick = timer.C
		case <-tick:
			tick = nil
			flush()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("watcher error", "error", err)
		}
	}
}
