// Package directory serves the static user list shown on the landing page.
package directory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/spf13/afero"
)

//go:embed users.json
var defaultUsers []byte

// Directory holds the user list as one batch. It is safe for concurrent use.
type Directory struct {
	fs   afero.Fs
	path string

	mu    sync.RWMutex
	users []domain.UserRow

	logger *slog.Logger
}

// New loads the user list from path on fs. An empty path serves the
// embedded default list.
func New(fs afero.Fs, path string) (*Directory, error) {
	d := &Directory{
		fs:     fs,
		path:   path,
		logger: slog.Default().With("component", "directory"),
	}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Users returns a copy of the current list.
func (d *Directory) Users(ctx context.Context) []domain.UserRow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.UserRow, len(d.users))
	copy(out, d.users)
	return out
}

// Reload re-reads the backing file. On failure the previous list is kept.
func (d *Directory) Reload() error {
	data := defaultUsers
	if d.path != "" {
		var err error
		data, err = afero.ReadFile(d.fs, d.path)
		if err != nil {
			return fmt.Errorf("failed to read users file %s: %w", d.path, err)
		}
	}

	var users []domain.UserRow
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("failed to parse users file: %w", err)
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	return nil
}

// Watch reloads the list whenever the backing file changes on disk, until
// ctx is done. It is a no-op for the embedded list.
func (d *Directory) Watch(ctx context.Context) error {
	if d.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", d.path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				d.handleEvent(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Error("File watcher error", "error", err)
			}
		}
	}()

	d.logger.Debug("Watching users file", "path", d.path)
	return nil
}

func (d *Directory) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(d.path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if err := d.Reload(); err != nil {
		d.logger.Warn("Keeping previous user list", "error", err)
		return
	}
	d.logger.Info("Reloaded user list", "path", d.path, "count", len(d.Users(context.Background())))
}
