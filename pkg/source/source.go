// Package source delivers relationship graph documents to a viewer, either
// from a file on disk or by polling the analysis backend.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

// Source produces graph documents until its context ends. Run calls
// deliver from its own goroutine, once for the initial document and again
// whenever the graph changes.
type Source interface {
	Run(ctx context.Context, deliver func(*graphdoc.Document)) error
}

// Options configures New.
type Options struct {
	PollInterval time.Duration // HTTP sources; default 5s
	Debounce     time.Duration // file sources; default 500ms
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// New picks an HTTPSource for http(s) locations and a FileSource otherwise.
func New(location string, opts Options) Source {
	if IsURL(location) {
		return NewHTTP(location, opts)
	}
	return NewFile(location, opts)
}

// IsURL reports whether location names a backend rather than a file.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// fingerprint identifies a document's content for change detection.
func fingerprint(doc *graphdoc.Document) uint64 {
	data, err := graphdoc.ToJSON(doc, false)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}
