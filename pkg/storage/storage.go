// Package storage persists route catalogs under a caller-chosen key, on the
// local filesystem, in an S3 bucket or in PostgreSQL.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
)

// Backend names
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

// Operation names used in errors and metrics
const (
	opSave = "save"
	opLoad = "load"
)

// Store saves and loads catalogs by key. Implementations are safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, key string, cat *catalog.Catalog) error
	Load(ctx context.Context, key string) (*catalog.Catalog, error)
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateKey checks that a key is usable as a file name, object name and row key
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// instrument records metrics and logs for one backend
type instrument struct {
	backend string
	metrics *metrics.Registry
	logger  logging.Logger
}

func newInstrument(backend string, reg *metrics.Registry, logger logging.Logger) instrument {
	return instrument{
		backend: backend,
		metrics: reg,
		logger:  logging.OrDefault(logger).With(logging.Component("storage"), logging.Backend(backend)),
	}
}

// done records the outcome of an operation started at start and wraps err
func (in instrument) done(op, key string, start time.Time, err error) error {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	if in.metrics != nil {
		in.metrics.RecordStorageOperation(in.backend, op, status, time.Since(start))
	}
	if err != nil {
		in.logger.Warn("storage operation failed", logging.String("operation", op), logging.String("key", key), logging.Error(err))
		return opError(in.backend, op, key, err)
	}
	in.logger.Debug("storage operation done", logging.String("operation", op), logging.String("key", key), logging.Latency(time.Since(start)))
	return nil
}

func (in instrument) payload(op string, n int) {
	if in.metrics != nil {
		in.metrics.RecordStoragePayload(in.backend, op, n)
	}
}
