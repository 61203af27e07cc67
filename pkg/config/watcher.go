package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// watchDebounce coalesces the burst of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// Watch calls onChange after the file at path is written, created, renamed
// or removed. The parent directory is watched so that editors replacing the
// file are noticed. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create config watcher")
	}
	defer func() {
		if err := w.Close(); err != nil {
			logrus.Warnf("failed to close config watcher: %v", err)
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to resolve %s", path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return pkgerrors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	logrus.WithField("path", abs).Debug("watching config file")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("config watcher error: %v", err)
		case <-debounce:
			debounce = nil
			onChange()
		}
	}
}
