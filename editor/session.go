// Package editor holds an editing session over one process: the graph being
// edited, the shape factory that creates its new shapes and the graph
// mutations decision branches are committed through.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/branch"
	"github.com/meikuraledutech/process/codec"
	"github.com/meikuraledutech/process/shapes"
)

var (
	ErrSessionNotFound = errors.New("editor: session not found")
	ErrNotADecision    = errors.New("editor: shape is not a decision")
	ErrLinkNotFound    = errors.New("editor: link not found")
)

// Session is one user's edit of one process. It is not safe for concurrent
// use; Registry serializes access per session.
type Session struct {
	ID string

	proc    *process.Process
	graph   *process.Graph
	factory *shapes.Factory
	codec   *codec.Serializer
	logger  *slog.Logger
	dirty   bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithSerializer sets the serializer used for snapshots.
func WithSerializer(c *codec.Serializer) Option {
	return func(s *Session) { s.codec = c }
}

// NewSession opens p for editing. The factory must not be shared with
// another session.
func NewSession(p *process.Process, f *shapes.Factory, opts ...Option) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		proc:    p,
		graph:   process.NewGraph(p),
		factory: f,
		codec:   codec.Default(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.ID)
	return s
}

// Process returns the process being edited.
func (s *Session) Process() *process.Process { return s.proc }

// Graph returns the adjacency index of the process.
func (s *Session) Graph() *process.Graph { return s.graph }

// Factory returns the session's shape factory.
func (s *Session) Factory() *shapes.Factory { return s.factory }

// Dirty reports whether the process changed since it was opened or saved.
func (s *Session) Dirty() bool { return s.dirty }

// MarkDirty records a change made outside the session's own operations.
func (s *Session) MarkDirty() { s.dirty = true }

// AddShape creates a free-standing shape of kind at (x, y).
func (s *Session) AddShape(kind process.ShapeKind, x, y float64) (*process.Shape, error) {
	shape, err := s.factory.CreateShape(kind, 0, s.proc.ProjectID, s.tempID(), x, y)
	if err != nil {
		return nil, err
	}
	s.proc.Shapes = append(s.proc.Shapes, shape)
	s.changed()
	s.logger.Debug("Shape added.", "id", shape.ID, "kind", kind)
	return shape, nil
}

// Conditions builds the branch models of a decision from the current links.
func (s *Session) Conditions(decisionID int64) []*branch.Condition {
	return branch.FromDecision(s.graph, decisionID)
}

// ApplyConditions commits the conditions, deletions first and then the rest
// in order. A deleted branch is resolved by its order index, so it must be
// removed before an update can move another branch onto that index.
// changed reports whether anything changed; failed lists the creations and
// deletions the graph rejected.
func (s *Session) ApplyConditions(conds []*branch.Condition) (changed bool, failed []*branch.Condition) {
	deletes := make([]*branch.Condition, 0, len(conds))
	rest := make([]*branch.Condition, 0, len(conds))
	for _, c := range conds {
		if c.Pending() == branch.ActionDelete {
			deletes = append(deletes, c)
		} else {
			rest = append(rest, c)
		}
	}
	for _, c := range append(deletes, rest...) {
		action := c.Pending()
		ok := c.ApplyChanges(s)
		if ok {
			changed = true
			continue
		}
		if action != branch.ActionUpdate {
			failed = append(failed, c)
		}
	}
	if changed {
		s.changed()
	}
	return changed, failed
}

// MergeCandidates returns the shapes a branch of the decision may merge
// into: everything downstream of the decision.
func (s *Session) MergeCandidates(decisionID int64) []*process.Shape {
	var out []*process.Shape
	for _, n := range s.graph.Reachable(decisionID, nil) {
		out = append(out, n.Shape)
	}
	return out
}

// Save persists the process and adopts the server-assigned ids.
func (s *Session) Save(ctx context.Context, store process.Store) error {
	saved, err := store.SaveProcess(ctx, s.proc)
	if err != nil {
		return fmt.Errorf("editor: save: %w", err)
	}
	if saved != s.proc {
		*s.proc = *saved
	}
	s.graph.Refresh()
	s.dirty = false
	s.logger.Info("Process saved.", "process", s.proc.ID, "shapes", len(s.proc.Shapes))
	return nil
}

// Snapshot encodes the current process so a failed edit can be undone.
func (s *Session) Snapshot() ([]byte, error) {
	return s.codec.Serialize(s.proc)
}

// Restore replaces the process with a snapshot taken by Snapshot.
func (s *Session) Restore(data []byte) error {
	var restored process.Process
	if err := s.codec.Deserialize(data, &restored); err != nil {
		return fmt.Errorf("editor: restore: %w", err)
	}
	*s.proc = restored
	s.graph.Refresh()
	return nil
}

// tempID issues the next local shape id, skipping ids still in use.
func (s *Session) tempID() int64 {
	for {
		id := s.factory.IDs().TempID()
		if s.proc.Shape(id) == nil {
			return id
		}
	}
}

func (s *Session) changed() {
	s.graph.Refresh()
	s.dirty = true
}
