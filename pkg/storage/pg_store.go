package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
)

// PGStore keeps catalogs in PostgreSQL, one row per route
type PGStore struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
	inst   instrument
}

// NewPGStore connects to databaseURL and creates the tables if missing
func NewPGStore(ctx context.Context, databaseURL string, reg *metrics.Registry, logger logging.Logger) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool, inst: newInstrument(BackendPostgres, reg, logger)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Save replaces the catalog under key in a single transaction
func (s *PGStore) Save(ctx context.Context, key string, cat *catalog.Catalog) error {
	start := time.Now()
	return s.inst.done(opSave, key, start, s.save(ctx, key, cat))
}

func (s *PGStore) save(ctx context.Context, key string, cat *catalog.Catalog) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	routes := cat.Routes()
	batch := &pgx.Batch{}
	size := 0
	for _, r := range routes {
		data, err := catalog.MarshalRoute(r)
		if err != nil {
			return err
		}
		size += len(data)
		batch.Queue(`INSERT INTO routes (catalog_key, identifier, target, record) VALUES ($1, $2, $3, $4)`,
			key, r.ID(), string(r.Target()), data)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM route_catalogs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO route_catalogs (key, run_id, routes) VALUES ($1, $2, $3)`,
		key, cat.RunID().String(), len(routes)); err != nil {
		return fmt.Errorf("failed to insert catalog: %w", err)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert routes: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	s.inst.payload(opSave, size)
	return nil
}

// Load reads the catalog under key with routes in identifier order
func (s *PGStore) Load(ctx context.Context, key string) (*catalog.Catalog, error) {
	start := time.Now()
	cat, err := s.load(ctx, key)
	return cat, s.inst.done(opLoad, key, start, err)
}

func (s *PGStore) load(ctx context.Context, key string) (*catalog.Catalog, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var runID string
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT run_id, routes FROM route_catalogs WHERE key = $1`, key).Scan(&runID, &count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT record FROM routes WHERE catalog_key = $1 ORDER BY identifier`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := make([]*catalog.Route, 0, count)
	size := 0
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		r, err := catalog.UnmarshalRoute(data)
		if err != nil {
			return nil, err
		}
		size += len(data)
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read routes: %w", err)
	}
	if len(routes) != count {
		return nil, fmt.Errorf("catalog %q lists %d routes, found %d", key, count, len(routes))
	}
	s.inst.payload(opLoad, size)
	return catalog.New(id, routes), nil
}

// Close closes the connection pool
func (s *PGStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.pool.Close()
	return nil
}
