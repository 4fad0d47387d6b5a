package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
)

// FileStore keeps each catalog as <dir>/<key>.json, or <key>.json.sz when
// compression is on
type FileStore struct {
	dir      string
	compress bool
	closed   atomic.Bool
	inst     instrument
}

// NewFileStore creates dir if needed and returns a store rooted there
func NewFileStore(dir string, compress bool, reg *metrics.Registry, logger logging.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	return &FileStore{
		dir:      dir,
		compress: compress,
		inst:     newInstrument(BackendFile, reg, logger),
	}, nil
}

// Path returns the file a key is stored in
func (s *FileStore) Path(key string) string {
	name := key + ".json"
	if s.compress {
		name += catalog.CompressedSuffix
	}
	return filepath.Join(s.dir, name)
}

// Save writes the catalog, replacing any previous one under key
func (s *FileStore) Save(ctx context.Context, key string, cat *catalog.Catalog) error {
	start := time.Now()
	return s.inst.done(opSave, key, start, s.save(ctx, key, cat))
}

func (s *FileStore) save(ctx context.Context, key string, cat *catalog.Catalog) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(key)
	if err := catalog.WriteFile(path, cat); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		s.inst.payload(opSave, int(info.Size()))
	}
	return nil
}

// Load reads the catalog stored under key
func (s *FileStore) Load(ctx context.Context, key string) (*catalog.Catalog, error) {
	start := time.Now()
	cat, err := s.load(ctx, key)
	return cat, s.inst.done(opLoad, key, start, err)
}

func (s *FileStore) load(ctx context.Context, key string) (*catalog.Catalog, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.inst.payload(opLoad, int(info.Size()))
	return catalog.ReadFile(path)
}

// Close marks the store closed
func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}
