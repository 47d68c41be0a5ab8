package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/themegrid/internal/ctxlog"
)

// Source delivers absolute, forward-slash paths of changed files.
type Source interface {
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// FSSource is a Source backed by fsnotify. Directories are watched
// recursively, including directories created after the start.
type FSSource struct {
	watcher *fsnotify.Watcher
	events  chan string
	errors  chan error
	done    chan struct{}
	once    sync.Once
}

// NewFSSource watches every directory below the given roots. Roots that do
// not exist yet are skipped.
func NewFSSource(ctx context.Context, roots []string) (*FSSource, error) {
	logger := ctxlog.FromContext(ctx)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s := &FSSource{
		watcher: w,
		events:  make(chan string, 64),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}

	for _, root := range roots {
		native := filepath.FromSlash(root)
		info, err := os.Stat(native)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Watch root does not exist, skipping.", "root", root)
				continue
			}
			_ = w.Close()
			return nil, err
		}
		if !info.IsDir() {
			native = filepath.Dir(native)
		}
		if err := s.addRecursive(native); err != nil {
			_ = w.Close()
			return nil, err
		}
		logger.Debug("Watching directory tree.", "root", root)
	}

	go s.forward()
	return s, nil
}

func (s *FSSource) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return s.watcher.Add(p)
	})
}

func (s *FSSource) forward() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := s.addRecursive(ev.Name); err != nil {
						s.sendErr(err)
					}
				}
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				abs = ev.Name
			}
			select {
			case s.events <- filepath.ToSlash(abs):
			case <-s.done:
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendErr(err)
		case <-s.done:
			return
		}
	}
}

func (s *FSSource) sendErr(err error) {
	select {
	case s.errors <- err:
	default:
	}
}

// Events returns the changed paths.
func (s *FSSource) Events() <-chan string { return s.events }

// Errors returns watcher errors.
func (s *FSSource) Errors() <-chan error { return s.errors }

// Close stops watching.
func (s *FSSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}
