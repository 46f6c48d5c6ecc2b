package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processes (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    project_id BIGINT NOT NULL,
    properties JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS process_shapes (
    id         BIGSERIAL PRIMARY KEY,
    process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
    position   INT NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS process_links (
    process_id     TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
    position       INT NOT NULL,
    is_destination BOOLEAN NOT NULL DEFAULT FALSE,
    source_id      BIGINT NOT NULL REFERENCES process_shapes(id) ON DELETE CASCADE,
    destination_id BIGINT NOT NULL REFERENCES process_shapes(id) ON DELETE CASCADE,
    order_index    DOUBLE PRECISION NOT NULL DEFAULT 0,
    label          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_process_shapes_process_id ON process_shapes(process_id);
CREATE INDEX IF NOT EXISTS idx_process_links_process_id  ON process_links(process_id);
CREATE INDEX IF NOT EXISTS idx_process_links_source      ON process_links(source_id);
CREATE INDEX IF NOT EXISTS idx_process_links_destination ON process_links(destination_id);
`

// CreateSchema creates the processes, process_shapes and process_links
// tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the process tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS process_links, process_shapes, processes CASCADE;`)
	return err
}
