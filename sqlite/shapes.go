package sqlite

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/process"
)

// ListShapes returns all shapes of a process in diagram order.
// Returns an empty slice (not nil) if none found.
func (s *Store) ListShapes(ctx context.Context, processID string) ([]process.Shape, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM process_shapes WHERE process_id = ? ORDER BY position`, processID)
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
		if err := s.codec.Deserialize(data, &sh); err != nil {
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

// ListLinks returns the links of a process in diagram order, without the
// branch destination links.
func (s *Store) ListLinks(ctx context.Context, processID string) ([]process.Link, error) {
	links, err := s.links(ctx, processID, false)
	if err != nil {
		return nil, err
	}
	out := make([]process.Link, 0, len(links))
	for _, l := range links {
		out = append(out, *l)
	}
	return out, nil
}

func (s *Store) links(ctx context.Context, processID string, destination bool) ([]*process.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, destination_id, order_index, label FROM process_links
		WHERE process_id = ? AND is_destination = ? ORDER BY position`, processID, destination)
	if err != nil {
		return nil, fmt.Errorf("process: list links: %w", err)
	}
	defer rows.Close()

	links := []*process.Link{}
	for rows.Next() {
		var l process.Link
		if err := rows.Scan(&l.SourceID, &l.DestinationID, &l.OrderIndex, &l.Label); err != nil {
			return nil, fmt.Errorf("process: scan link: %w", err)
		}
		links = append(links, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("process: rows links: %w", err)
	}
	return links, nil
}
