package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/process"
)

// SaveProcess saves a full process (shapes + links) in one transaction,
// replacing whatever was stored under its id. A process without an id gets
// a UUID. Local shapes (ID <= 0) are given database ids, and once committed
// every link referring to them is rewritten. Returns p with all ids filled in.
func (s *Store) SaveProcess(ctx context.Context, p *process.Process) (*process.Process, error) {
	if err := process.Validate(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	props, err := s.codec.Serialize(p.PropertyValues)
	if err != nil {
		return nil, fmt.Errorf("process: encode properties: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("process: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM process_links WHERE process_id = ?`, p.ID); err != nil {
		return nil, fmt.Errorf("process: delete links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM process_shapes WHERE process_id = ?`, p.ID); err != nil {
		return nil, fmt.Errorf("process: delete shapes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO processes (id, name, project_id, properties) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, project_id = excluded.project_id, properties = excluded.properties`,
		p.ID, p.Name, p.ProjectID, props,
	); err != nil {
		return nil, fmt.Errorf("process: upsert process: %w", err)
	}

	// Persisted shapes keep their ids; insert them before the sequence
	// hands out new ones.
	for i, sh := range p.Shapes {
		if sh.IsLocal() {
			continue
		}
		if _, err := s.insertShape(ctx, tx, p.ID, i, sh, true); err != nil {
			return nil, err
		}
	}
	ids := make(map[int64]int64)
	for i, sh := range p.Shapes {
		if !sh.IsLocal() {
			continue
		}
		id, err := s.insertShape(ctx, tx, p.ID, i, sh, false)
		if err != nil {
			return nil, err
		}
		ids[sh.ID] = id
	}

	if err := insertLinks(ctx, tx, p.ID, p.Links, false, ids); err != nil {
		return nil, err
	}
	if err := insertLinks(ctx, tx, p.ID, p.DecisionBranchDestinationLinks, true, ids); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("process: commit: %w", err)
	}
	process.Remap(p, ids)
	return p, nil
}

// insertShape stores sh and returns its database id. With keepID the
// shape's own id is used.
func (s *Store) insertShape(ctx context.Context, tx *sql.Tx, processID string, pos int, sh *process.Shape, keepID bool) (int64, error) {
	data, err := s.codec.Serialize(sh)
	if err != nil {
		return 0, fmt.Errorf("process: encode shape %d: %w", sh.ID, err)
	}
	if keepID {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO process_shapes (id, process_id, position, data) VALUES (?, ?, ?, ?)`,
			sh.ID, processID, pos, data,
		); err != nil {
			return 0, fmt.Errorf("process: insert shape %d: %w", sh.ID, err)
		}
		return sh.ID, nil
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO process_shapes (process_id, position, data) VALUES (?, ?, ?)`,
		processID, pos, data,
	)
	if err != nil {
		return 0, fmt.Errorf("process: insert shape %d: %w", sh.ID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("process: shape id: %w", err)
	}
	return id, nil
}

// insertLinks stores links with their endpoints translated through ids.
func insertLinks(ctx context.Context, tx *sql.Tx, processID string, links []*process.Link, destination bool, ids map[int64]int64) error {
	resolve := func(id int64) int64 {
		if v, ok := ids[id]; ok {
			return v
		}
		return id
	}
	for i, l := range links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO process_links (process_id, position, is_destination, source_id, destination_id, order_index, label)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			processID, i, destination, resolve(l.SourceID), resolve(l.DestinationID), l.OrderIndex, l.Label,
		); err != nil {
			return fmt.Errorf("process: insert link %d -> %d: %w", l.SourceID, l.DestinationID, err)
		}
	}
	return nil
}

// GetProcess retrieves a full process by its id.
// Returns process.ErrProcessNotFound if no such process exists.
func (s *Store) GetProcess(ctx context.Context, processID string) (*process.Process, error) {
	p := &process.Process{ID: processID}
	var props []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT name, project_id, properties FROM processes WHERE id = ?`, processID,
	).Scan(&p.Name, &p.ProjectID, &props)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, process.ErrProcessNotFound
		}
		return nil, fmt.Errorf("process: get process: %w", err)
	}
	if len(props) > 0 {
		if err := s.codec.Deserialize(props, &p.PropertyValues); err != nil {
			return nil, fmt.Errorf("process: decode properties: %w", err)
		}
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

// DeleteProcess removes a process with its shapes and links.
// No error if the process doesn't exist.
func (s *Store) DeleteProcess(ctx context.Context, processID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("process: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM process_links WHERE process_id = ?`, processID); err != nil {
		return fmt.Errorf("process: delete links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM process_shapes WHERE process_id = ?`, processID); err != nil {
		return fmt.Errorf("process: delete shapes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM processes WHERE id = ?`, processID); err != nil {
		return fmt.Errorf("process: delete process: %w", err)
	}
	return tx.Commit()
}
