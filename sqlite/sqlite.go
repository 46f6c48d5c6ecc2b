// Package sqlite implements process.Store on an embedded SQLite database
// (modernc.org/sqlite, no cgo). Shapes and property bags are stored as
// serialized blobs next to the columns the store queries on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meikuraledutech/process/codec"
	_ "modernc.org/sqlite"
)

// Store implements process.Store using SQLite via database/sql.
type Store struct {
	db    *sql.DB
	codec *codec.Serializer
}

// New creates a Store on db. Blobs are encoded with serializer, or with
// codec.Default() when serializer is nil.
func New(db *sql.DB, serializer *codec.Serializer) *Store {
	if serializer == nil {
		serializer = codec.Default()
	}
	return &Store{db: db, codec: serializer}
}

// Open opens the database at path with foreign keys enabled. A single
// connection is used so ":memory:" databases are shared by every query.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("process: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("process: enable foreign keys: %w", err)
	}
	return db, nil
}
