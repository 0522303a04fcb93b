package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

// FileSource reads a JSON or YAML document and re-reads it when it changes.
type FileSource struct {
	path     string
	debounce time.Duration
	log      *zap.Logger
}

// NewFile returns a source for the document at path.
func NewFile(path string, opts Options) *FileSource {
	opts = opts.withDefaults()
	return &FileSource{path: path, debounce: opts.Debounce, log: opts.Logger}
}

// Path returns the watched file.
func (f *FileSource) Path() string { return f.path }

// Run delivers the current document, then watches its directory so that
// editors which replace the file are still seen. A failed first read is
// returned; later read failures are logged and the last good graph stays.
func (f *FileSource) Run(ctx context.Context, deliver func(*graphdoc.Document)) error {
	doc, err := graphdoc.ParseFile(f.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	last := fingerprint(doc)
	deliver(doc)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	name := filepath.Base(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	f.log.Debug("watching graph document", zap.String("path", f.path))

	changed := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(f.debounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			doc, err := graphdoc.ParseFile(f.path)
			if err != nil {
				f.log.Warn("reload graph document", zap.String("path", f.path), zap.Error(err))
				continue
			}
			sum := fingerprint(doc)
			if sum == last {
				continue
			}
			last = sum
			f.log.Info("graph document changed", zap.String("path", f.path), zap.Int("nodes", len(doc.Nodes)))
			deliver(doc)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
