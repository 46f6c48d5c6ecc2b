package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/process"
)

// ListShapes returns all shapes of a process in diagram order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListShapes(ctx context.Context, processID string) ([]process.Shape, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, data FROM process_shapes WHERE process_id = $1 ORDER BY position`, processID)
	if err != nil {
		return nil, fmt.Errorf("process: list shapes: %w", err)
	}
	defer rows.Close()

	shapes := []process.Shape{}
	for rows.Next() {
		var (
			id   int64
			data []byte
			sh   process.Shape
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("process: scan shape: %w", err)
		}
		if err := json.Unmarshal(data, &sh); err != nil {
			return nil, fmt.Errorf("process: decode shape %d: %w", id, err)
		}
		sh.ID = id
		shapes = append(shapes, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("process: rows shapes: %w", err)
	}

	return shapes, nil
}
