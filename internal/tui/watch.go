package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports writes to one file, including its sqlite journal
// siblings (-wal, -shm, -journal).
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// dbChangedMsg reports an external change of the watched file.
type dbChangedMsg struct {
	err error
}

// NewFileWatcher watches the directory holding path.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &FileWatcher{path: abs, watcher: w}, nil
}

// Close stops watching.
func (f *FileWatcher) Close() error {
	if f == nil || f.watcher == nil {
		return nil
	}
	return f.watcher.Close()
}

// matches reports whether name is the watched file or one of its siblings.
func (f *FileWatcher) matches(name string) bool {
	name = filepath.Clean(name)
	return name == f.path || strings.HasPrefix(name, f.path+"-")
}

// wait blocks until the next relevant change. It must be re-armed after
// every message it returns.
func (f *FileWatcher) wait() tea.Cmd {
	if f == nil || f.watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-f.watcher.Events:
				if !ok {
					return nil
				}
				if !f.matches(ev.Name) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) {
					return dbChangedMsg{}
				}
			case err, ok := <-f.watcher.Errors:
				if !ok {
					return nil
				}
				return dbChangedMsg{err: err}
			}
		}
	}
}
