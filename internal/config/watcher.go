package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"firestige.xyz/netkit/internal/log"
)

// reloadDebounce coalesces the bursts of write events editors and atomic
// renames produce for a single save.
const reloadDebounce = 2 * time.Second

// Watch watches the config file's directory and calls onReload with the
// freshly loaded config after each change. Reload failures are logged and
// the previous config stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onReload func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic-rename saves replace the
	// inode and a file watch would silently die.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.GetLogger().Infof("watching %s for config changes", abs)

	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastReload) < reloadDebounce {
				continue
			}
			lastReload = time.Now()

			cfg, err := Load(abs)
			if err != nil {
				log.GetLogger().WithError(err).Warn("config reload failed, keeping previous config")
				continue
			}
			log.GetLogger().Info("config reloaded")
			onReload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.GetLogger().WithError(err).Warn("config watcher error")
		}
	}
}
