package redirect

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileSource receives login callbacks through a handoff directory. The
// OS URI-scheme handler (registered by the IDE extension installer)
// writes the full callback URI into a file in the directory; the source
// parses it, dispatches, and removes the file.
type FileSource struct {
	*dispatcher

	dir    string
	logger *slog.Logger
}

// NewFileSource creates a source watching dir, creating it if needed.
func NewFileSource(dir string, logger *slog.Logger) (*FileSource, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating handoff directory: %w", err)
	}

	return &FileSource{
		dispatcher: newDispatcher(logger),
		dir:        dir,
		logger:     logger,
	}, nil
}

// Run watches the handoff directory until ctx is cancelled. It blocks;
// run it in a background goroutine. Files already present at startup
// are consumed first so a callback delivered while the broker was down
// is not lost.
func (s *FileSource) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching handoff directory: %w", err)
	}

	s.consumeExisting()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				s.consumeFile(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}

			s.logger.Warn("handoff watcher error", slog.Any("error", err))
		}
	}
}

// consumeExisting processes callback files left over from before the
// watcher started.
func (s *FileSource) consumeExisting() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("reading handoff directory", slog.Any("error", err))
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			s.consumeFile(filepath.Join(s.dir, entry.Name()))
		}
	}
}

// consumeFile parses one handoff file and dispatches its callback.
// The file is removed regardless of outcome so a malformed file cannot
// be re-processed forever.
func (s *FileSource) consumeFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Create events can race with the writer; Write will follow.
		return
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		// Create events can fire before the writer's first write;
		// leave the file for the Write event to pick up.
		return
	}

	defer func() {
		_ = os.Remove(path)
	}()

	u, err := url.Parse(raw)
	if err != nil {
		s.logger.Warn("malformed handoff callback", slog.String("file", filepath.Base(path)))
		return
	}

	s.dispatch(u.Query())
}
