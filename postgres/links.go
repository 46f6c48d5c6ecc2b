package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/process"
)

// ListLinks returns the links of a process in diagram order. Branch
// destination links are not included.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListLinks(ctx context.Context, processID string) ([]process.Link, error) {
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

func (s *PGStore) links(ctx context.Context, processID string, destination bool) ([]*process.Link, error) {
	rows, err := s.db.Query(ctx, `
		SELECT source_id, destination_id, order_index, label FROM process_links
		WHERE process_id = $1 AND is_destination = $2 ORDER BY position`, processID, destination)
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
