package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/process"
)

// SaveProcess saves a full process (shapes + links) in one transaction.
// A process without an id gets a UUID; what was stored under the id before
// is replaced. Local shapes (ID <= 0) get ids from the shape sequence and,
// once committed, the links referring to them are rewritten.
// Returns the process with all IDs filled in.
func (s *PGStore) SaveProcess(ctx context.Context, p *process.Process) (*process.Process, error) {
	if err := process.Validate(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	props, err := json.Marshal(p.PropertyValues)
	if err != nil {
		return nil, fmt.Errorf("process: encode properties: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("process: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Delete existing process data if any (replace semantics).
	if _, err := tx.Exec(ctx, `DELETE FROM process_links WHERE process_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("process: delete links: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM process_shapes WHERE process_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("process: delete shapes: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO processes (id, name, project_id, properties) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, project_id = EXCLUDED.project_id, properties = EXCLUDED.properties`,
		p.ID, p.Name, p.ProjectID, props,
	); err != nil {
		return nil, fmt.Errorf("process: upsert process: %w", err)
	}

	// Insert shapes.
	ids := make(map[int64]int64)
	for i, sh := range p.Shapes {
		data, err := json.Marshal(sh)
		if err != nil {
			return nil, fmt.Errorf("process: encode shape %d: %w", sh.ID, err)
		}
		if !sh.IsLocal() {
			if _, err := tx.Exec(ctx,
				`INSERT INTO process_shapes (id, process_id, position, data) VALUES ($1, $2, $3, $4)`,
				sh.ID, p.ID, i, data,
			); err != nil {
				return nil, fmt.Errorf("process: insert shape %d: %w", sh.ID, err)
			}
			continue
		}
		var id int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO process_shapes (process_id, position, data) VALUES ($1, $2, $3) RETURNING id`,
			p.ID, i, data,
		).Scan(&id); err != nil {
			return nil, fmt.Errorf("process: insert shape %d: %w", sh.ID, err)
		}
		ids[sh.ID] = id
	}

	// Insert links.
	if err := insertLinks(ctx, tx, p.ID, p.Links, false, ids); err != nil {
		return nil, err
	}
	if err := insertLinks(ctx, tx, p.ID, p.DecisionBranchDestinationLinks, true, ids); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("process: commit: %w", err)
	}

	process.Remap(p, ids)
	return p, nil
}

func insertLinks(ctx context.Context, tx pgx.Tx, processID string, links []*process.Link, destination bool, ids map[int64]int64) error {
	resolve := func(id int64) int64 {
		if v, ok := ids[id]; ok {
			return v
		}
		return id
	}

	batch := &pgx.Batch{}
	for i, l := range links {
		batch.Queue(`
			INSERT INTO process_links (process_id, position, is_destination, source_id, destination_id, order_index, label)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			processID, i, destination, resolve(l.SourceID), resolve(l.DestinationID), l.OrderIndex, l.Label,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("process: insert links: %w", err)
	}
	return nil
}

// GetProcess retrieves a full process (shapes + links) by its ID.
// Returns process.ErrProcessNotFound if it doesn't exist.
func (s *PGStore) GetProcess(ctx context.Context, processID string) (*process.Process, error) {
	p := &process.Process{ID: processID}
	var props []byte
	err := s.db.QueryRow(ctx,
		`SELECT name, project_id, properties FROM processes WHERE id = $1`, processID,
	).Scan(&p.Name, &p.ProjectID, &props)
	if err != nil {
		if isNoRows(err) {
			return nil, process.ErrProcessNotFound
		}
		return nil, fmt.Errorf("process: get process: %w", err)
	}
	if err := json.Unmarshal(props, &p.PropertyValues); err != nil {
		return nil, fmt.Errorf("process: decode properties: %w", err)
	}

	shapes, err := s.ListShapes(ctx, processID)
	if err != nil {
		return nil, err
	}
	for i := range shapes {
		p.Shapes = append(p.Shapes, &shapes[i])
	}

	if p.Links, err = s.links(ctx, processID, false); err != nil {
		return nil, err
	}
	if p.DecisionBranchDestinationLinks, err = s.links(ctx, processID, true); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProcess removes a process with all its shapes and links.
// No error if the processID doesn't exist.
func (s *PGStore) DeleteProcess(ctx context.Context, processID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("process: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM process_links WHERE process_id = $1`, processID); err != nil {
		return fmt.Errorf("process: delete links: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM process_shapes WHERE process_id = $1`, processID); err != nil {
		return fmt.Errorf("process: delete shapes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM processes WHERE id = $1`, processID); err != nil {
		return fmt.Errorf("process: delete process: %w", err)
	}

	return tx.Commit(ctx)
}
