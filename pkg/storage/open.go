package storage

import (
	"context"
	"fmt"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
)

// Options selects and configures a backend
type Options struct {
	Backend     string
	Dir         string
	Compress    bool
	S3          S3Options
	PostgresURL string
	Metrics     *metrics.Registry
	Logger      logging.Logger
}

// Open returns the store named by opts.Backend. An empty backend means none.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NopStore{}, nil
	case BackendFile:
		return NewFileStore(opts.Dir, opts.Compress, opts.Metrics, opts.Logger)
	case BackendS3:
		return NewS3Store(ctx, opts.S3, opts.Metrics, opts.Logger)
	case BackendPostgres:
		return NewPGStore(ctx, opts.PostgresURL, opts.Metrics, opts.Logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// NopStore discards saves and finds nothing
type NopStore struct{}

func (NopStore) Save(context.Context, string, *catalog.Catalog) error { return nil }

func (NopStore) Load(_ context.Context, key string) (*catalog.Catalog, error) {
	return nil, opError(BackendNone, opLoad, key, ErrNotFound)
}

func (NopStore) Close() error { return nil }
