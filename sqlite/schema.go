package sqlite

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processes (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    project_id INTEGER NOT NULL,
    properties BLOB,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS process_shapes (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    data       BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS process_links (
    process_id     TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
    position       INTEGER NOT NULL,
    is_destination INTEGER NOT NULL DEFAULT 0,
    source_id      INTEGER NOT NULL,
    destination_id INTEGER NOT NULL,
    order_index    REAL NOT NULL DEFAULT 0,
    label          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_process_shapes_process_id ON process_shapes(process_id);
CREATE INDEX IF NOT EXISTS idx_process_links_process_id  ON process_links(process_id);
`

// CreateSchema creates the process tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropSchema drops the process tables.
func (s *Store) DropSchema(ctx context.Context) error {
	for _, table := range []string{"process_links", "process_shapes", "processes"} {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return err
		}
	}
	return nil
}
