// Package watch reports stylesheet changes under a set of files and
// directories, coalescing bursts of file system events.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDelay is how long the watcher waits for events to stop before
// reporting them.
const DefaultDelay = 200 * time.Millisecond

// Watcher watches stylesheet sources.
type Watcher struct {
	logger     zerolog.Logger
	delay      time.Duration
	extensions []string
	ignore     map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithExtensions sets which file extensions inside watched directories
// count as stylesheets. Extensions are matched case-insensitively.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) { w.extensions = exts }
}

// WithIgnore drops events for the given files, such as the outputs written
// by the callback.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p == "" {
				continue
			}
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			w.ignore[filepath.Clean(p)] = true
		}
	}
}

// New creates a Watcher.
func New(opts ...Option) *Watcher {
	w := &Watcher{
		logger:     zerolog.Nop(),
		delay:      DefaultDelay,
		extensions: []string{".scss", ".sass", ".css"},
		ignore:     map[string]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches paths until ctx is done, calling fn with the sorted names of
// the files that changed once no new event has arrived for the debounce
// delay. A file path is watched through its directory so that editors that
// replace files on save are seen. Directories are watched recursively and
// directories created later are added. Run returns nil when ctx is done.
func (w *Watcher) Run(ctx context.Context, paths []string, fn func(changed []string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	files := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			w.logger.Warn().Err(err).Str("path", p).Msg("Failed to stat path for watching")
			continue
		}
		if info.IsDir() {
			if err := w.addTree(fw, abs); err != nil {
				w.logger.Warn().Err(err).Str("path", p).Msg("Failed to watch directory")
			}
			continue
		}
		files[abs] = true
		if err := fw.Add(filepath.Dir(abs)); err != nil {
			w.logger.Warn().Err(err).Str("path", p).Msg("Failed to watch file")
		}
	}

	w.logger.Info().
		Int("paths", len(paths)).
		Dur("delay", w.delay).
		Msg("Started watching stylesheets")

	pending := map[string]bool{}
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if w.ignore[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
					}
					continue
				}
			}
			if !files[event.Name] && !w.stylesheet(event.Name) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Stylesheet changed")
			pending[event.Name] = true
			timer.Reset(w.delay)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			slices.Sort(changed)
			clear(pending)
			fn(changed)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) stylesheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range w.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// addTree adds dir and every directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
