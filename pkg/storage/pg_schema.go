package storage

import "context"

// migrate creates the catalog tables
func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS route_catalogs (
		key TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		routes INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS routes (
		catalog_key TEXT NOT NULL REFERENCES route_catalogs(key) ON DELETE CASCADE,
		identifier INTEGER NOT NULL,
		target TEXT NOT NULL,
		record JSONB NOT NULL,
		PRIMARY KEY (catalog_key, identifier)
	);

	CREATE INDEX IF NOT EXISTS idx_routes_target ON routes(catalog_key, target);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
