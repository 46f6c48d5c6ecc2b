package editor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/branch"
	"github.com/meikuraledutech/process/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	f := shapes.NewFactory(shapes.DefaultCatalog())
	s := NewSession(NewProcess(f, 7, "Order intake"), f)
	require.NoError(t, process.Validate(s.Process()))
	return s
}

func shapeOfKind(t *testing.T, p *process.Process, kind process.ShapeKind) *process.Shape {
	t.Helper()
	for _, s := range p.Shapes {
		if s.Kind() == kind {
			return s
		}
	}
	t.Fatalf("no %s shape", kind)
	return nil
}

func kindCount(p *process.Process, kind process.ShapeKind) int {
	n := 0
	for _, s := range p.Shapes {
		if s.Kind() == kind {
			n++
		}
	}
	return n
}

// withDecision inserts a system decision between the system task and the end.
func withDecision(t *testing.T, s *Session) *process.Shape {
	t.Helper()
	st := shapeOfKind(t, s.Process(), process.ShapeKindSystemTask)
	end := shapeOfKind(t, s.Process(), process.ShapeKindEnd)
	d, err := s.InsertDecision(process.ShapeKindSystemDecision, st.ID, end.ID)
	require.NoError(t, err)
	return d
}

func TestNewProcess(t *testing.T) {
	s := newTestSession(t)
	p := s.Process()

	assert.Equal(t, "Order intake", p.Name)
	assert.Equal(t, process.ProcessTypeUserToSystemProcess, p.Kind())
	require.Len(t, p.Shapes, 5)
	require.Len(t, p.Links, 4)
	assert.Len(t, p.LocalShapes(), 5)

	start := s.Graph().Node(shapeOfKind(t, p, process.ShapeKindStart).ID)
	var kinds []process.ShapeKind
	for n := start; n != nil; {
		kinds = append(kinds, n.Kind())
		next := n.NextNodes()
		if len(next) == 0 {
			break
		}
		n = next[0]
	}
	assert.Equal(t, []process.ShapeKind{
		process.ShapeKindStart,
		process.ShapeKindPreconditionSystemTask,
		process.ShapeKindUserTask,
		process.ShapeKindSystemTask,
		process.ShapeKindEnd,
	}, kinds)
	assert.False(t, s.Dirty())
}

func TestSession_InsertDecision(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	p := s.Process()

	assert.Equal(t, process.ShapeKindSystemDecision, d.Kind())
	assert.Equal(t, 1, kindCount(p, process.ShapeKindMergeNode))
	assert.Equal(t, 3, kindCount(p, process.ShapeKindSystemTask))
	require.NoError(t, process.Validate(p))

	conds := s.Conditions(d.ID)
	require.Len(t, conds, 2)
	merge := shapeOfKind(t, p, process.ShapeKindMergeNode)
	for i, c := range conds {
		assert.Equal(t, float64(i), c.OrderIndex)
		assert.Equal(t, merge.ID, c.MergeNodeID)
		require.NotNil(t, c.BranchEndLink)
		assert.Equal(t, merge.ID, c.BranchEndLink.DestinationID)
	}
	assert.True(t, s.Dirty())

	_, err := s.InsertDecision(process.ShapeKindUserTask, d.ID, merge.ID)
	assert.ErrorIs(t, err, ErrNotADecision)
	_, err = s.InsertDecision(process.ShapeKindUserDecision, 1000, 1001)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestSession_UserDecisionBranchHasTaskPair(t *testing.T) {
	s := newTestSession(t)
	ut := shapeOfKind(t, s.Process(), process.ShapeKindUserTask)
	pre := shapeOfKind(t, s.Process(), process.ShapeKindPreconditionSystemTask)

	d, err := s.InsertDecision(process.ShapeKindUserDecision, pre.ID, ut.ID)
	require.NoError(t, err)

	for _, c := range s.Conditions(d.ID) {
		first := s.Graph().Node(c.FirstNodeID)
		require.NotNil(t, first)
		assert.Equal(t, process.ShapeKindUserTask, first.Kind())
		assert.NotNil(t, first.NextSystemTask())
	}
	assert.NoError(t, process.Validate(s.Process()))
}

func TestSession_ApplyConditions(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	p := s.Process()
	end := shapeOfKind(t, p, process.ShapeKindEnd)

	conds := s.Conditions(d.ID)
	conds[0].Label = "yes"
	conds[1].MergeNodeID = end.ID
	conds = append(conds, branch.NewCreated(d.ID, "maybe", 0))

	changed, failed := s.ApplyConditions(conds)
	assert.True(t, changed)
	assert.Empty(t, failed)
	require.NoError(t, process.Validate(p))

	conds = s.Conditions(d.ID)
	require.Len(t, conds, 3)
	assert.Equal(t, "yes", conds[0].Label)
	assert.Equal(t, end.ID, conds[1].MergeNodeID)
	assert.Equal(t, end.ID, conds[1].BranchEndLink.DestinationID)
	assert.Equal(t, "maybe", conds[2].Label)
	assert.Equal(t, 2.0, conds[2].OrderIndex)
	merge := shapeOfKind(t, p, process.ShapeKindMergeNode)
	assert.Equal(t, merge.ID, conds[2].MergeNodeID)

	changed, failed = s.ApplyConditions(s.Conditions(d.ID))
	assert.False(t, changed)
	assert.Empty(t, failed)
}

func TestSession_DeleteBranch(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	p := s.Process()
	require.True(t, s.AddDecisionBranch(d.ID, "third", 0))
	before := len(p.Shapes)

	conds := s.Conditions(d.ID)
	require.Len(t, conds, 3)
	conds[1].IsDeleted = true
	changed, failed := s.ApplyConditions(conds)
	assert.True(t, changed)
	assert.Empty(t, failed)

	assert.Len(t, p.Shapes, before-1)
	assert.Len(t, p.DecisionBranchDestinationLinks, 2)
	require.NoError(t, process.Validate(p))

	conds = s.Conditions(d.ID)
	require.Len(t, conds, 2)
	conds[0].IsDeleted = true
	changed, failed = s.ApplyConditions(conds)
	assert.False(t, changed)
	require.Len(t, failed, 1)
	assert.Same(t, conds[0], failed[0])
	assert.Len(t, s.Conditions(d.ID), MinBranches)
}

func TestSession_MoveOntoDeletedBranchSlot(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	p := s.Process()
	require.True(t, s.AddDecisionBranch(d.ID, "third", 0))

	conds := s.Conditions(d.ID)
	require.Len(t, conds, 3)
	moved, deleted := conds[0], conds[1]
	movedDest, deletedDest := moved.BranchDestinationLink, deleted.BranchDestinationLink
	deletedFirst := deleted.FirstNodeID

	moved.OrderIndex = 1
	deleted.IsDeleted = true
	changed, failed := s.ApplyConditions(conds)
	assert.True(t, changed)
	assert.Empty(t, failed)

	assert.Nil(t, p.Shape(deletedFirst))
	assert.Contains(t, p.DecisionBranchDestinationLinks, movedDest)
	assert.NotContains(t, p.DecisionBranchDestinationLinks, deletedDest)
	assert.Equal(t, 1.0, movedDest.OrderIndex)
	require.NoError(t, process.Validate(p))

	after := s.Conditions(d.ID)
	require.Len(t, after, 2)
	assert.Equal(t, 1.0, after[0].OrderIndex)
	assert.Equal(t, moved.FirstNodeID, after[0].FirstNodeID)
	assert.Same(t, movedDest, after[0].BranchDestinationLink)
}

func TestSession_MergeNodeNamesAreConsecutive(t *testing.T) {
	s := newTestSession(t)
	withDecision(t, s)
	ut := shapeOfKind(t, s.Process(), process.ShapeKindUserTask)
	pre := shapeOfKind(t, s.Process(), process.ShapeKindPreconditionSystemTask)
	_, err := s.InsertDecision(process.ShapeKindUserDecision, pre.ID, ut.ID)
	require.NoError(t, err)

	var names []string
	for _, sh := range s.Process().Shapes {
		if sh.Kind() == process.ShapeKindMergeNode {
			names = append(names, sh.Name)
		}
	}
	assert.Equal(t, []string{shapes.MergeNodeNamePrefix + " 1", shapes.MergeNodeNamePrefix + " 2"}, names)
}

func TestSession_DeleteCreatedBranchIsNoop(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	before := len(s.Process().Shapes)

	c := branch.NewCreated(d.ID, "never", 0)
	c.IsDeleted = true
	changed, failed := s.ApplyConditions([]*branch.Condition{c})
	assert.True(t, changed)
	assert.Empty(t, failed)
	assert.Len(t, s.Process().Shapes, before)
}

func typed(id int64, kind process.ShapeKind) *process.Shape {
	return &process.Shape{
		ID:             id,
		PropertyValues: map[string]process.PropertyValue{process.KeyClientType: {Value: int(kind)}},
	}
}

func TestSession_DeleteSharedBranchRefused(t *testing.T) {
	// D(1) -> 2 -> M(4), D -> 3 -> M, D -> 5 -> M, and 2 -> 5.
	p := &process.Process{
		Shapes: []*process.Shape{
			typed(1, process.ShapeKindSystemDecision),
			typed(2, process.ShapeKindSystemTask),
			typed(3, process.ShapeKindSystemTask),
			typed(4, process.ShapeKindMergeNode),
			typed(5, process.ShapeKindSystemTask),
		},
		Links: []*process.Link{
			{SourceID: 1, DestinationID: 2, OrderIndex: 0},
			{SourceID: 1, DestinationID: 3, OrderIndex: 1},
			{SourceID: 1, DestinationID: 5, OrderIndex: 2},
			{SourceID: 2, DestinationID: 4},
			{SourceID: 2, DestinationID: 5, OrderIndex: 1},
			{SourceID: 3, DestinationID: 4},
			{SourceID: 5, DestinationID: 4},
		},
		DecisionBranchDestinationLinks: []*process.Link{
			{SourceID: 1, DestinationID: 4, OrderIndex: 0},
			{SourceID: 1, DestinationID: 4, OrderIndex: 1},
			{SourceID: 1, DestinationID: 4, OrderIndex: 2},
		},
	}
	s := NewSession(p, shapes.NewFactory(nil))

	assert.False(t, s.DeleteDecisionBranch(p.Links[2]))
	assert.False(t, s.DeleteDecisionBranch(&process.Link{SourceID: 1, DestinationID: 3, OrderIndex: 1}))
	assert.False(t, s.Dirty())

	assert.True(t, s.DeleteDecisionBranch(p.Links[1]))
	assert.Nil(t, p.Shape(3))
	assert.Nil(t, p.DestinationLink(1, 1))
	assert.NoError(t, process.Validate(p))
}

func TestSession_AddBranchRejected(t *testing.T) {
	s := newTestSession(t)
	st := shapeOfKind(t, s.Process(), process.ShapeKindSystemTask)

	assert.False(t, s.AddDecisionBranch(st.ID, "x", 0))
	assert.False(t, s.AddDecisionBranch(999, "x", 0))

	d, err := s.AddShape(process.ShapeKindUserDecision, 0, 0)
	require.NoError(t, err)
	assert.False(t, s.AddDecisionBranch(d.ID, "x", 0), "no merge node to default to")
}

func TestSession_TempIDsSkipUsedIDs(t *testing.T) {
	p := &process.Process{Shapes: []*process.Shape{typed(-1, process.ShapeKindStart)}}
	s := NewSession(p, shapes.NewFactory(nil))

	shape, err := s.AddShape(process.ShapeKindUserTask, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), shape.ID)
	assert.NotNil(t, s.Graph().Node(-2))
	assert.True(t, s.Dirty())

	_, err = s.AddShape(process.ShapeKind(42), 0, 0)
	assert.Error(t, err)
}

func TestSession_MergeCandidates(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	merge := shapeOfKind(t, s.Process(), process.ShapeKindMergeNode)
	end := shapeOfKind(t, s.Process(), process.ShapeKindEnd)

	got := s.MergeCandidates(d.ID)
	assert.Contains(t, got, merge)
	assert.Contains(t, got, end)
	assert.NotContains(t, got, d)

	label, ok := s.Conditions(d.ID)[0].MergeNodeLabel(got)
	assert.True(t, ok)
	assert.Equal(t, merge.Label(), label)
}

func TestSession_SnapshotRestore(t *testing.T) {
	s := newTestSession(t)
	d := withDecision(t, s)
	shapesBefore, linksBefore := len(s.Process().Shapes), len(s.Process().Links)

	snap, err := s.Snapshot()
	require.NoError(t, err)

	require.True(t, s.AddDecisionBranch(d.ID, "extra", 0))
	require.NoError(t, s.Restore(snap))

	p := s.Process()
	assert.Len(t, p.Shapes, shapesBefore)
	assert.Len(t, p.Links, linksBefore)
	assert.Len(t, s.Conditions(d.ID), 2)
	assert.Equal(t, process.ShapeKindSystemDecision, s.Graph().Node(d.ID).Kind())

	assert.Error(t, s.Restore([]byte("garbage")))
}

func TestSession_SetPersona(t *testing.T) {
	s := newTestSession(t)
	ut := shapeOfKind(t, s.Process(), process.ShapeKindUserTask)
	ref := process.ArtifactReference{ID: 55, Name: "Clerk", BaseItemTypePredef: process.ItemTypeActor}

	require.True(t, s.SetPersona(ut.ID, ref))
	assert.Equal(t, "Clerk", ut.PersonaReference.Name)

	next := s.Factory().CreateModelUserTaskShape(0, 7, -100, 0, 0)
	assert.Equal(t, int64(55), next.PersonaReference.ID)

	start := shapeOfKind(t, s.Process(), process.ShapeKindStart)
	assert.False(t, s.SetPersona(start.ID, ref))
	assert.False(t, s.SetPersona(12345, ref))
}

// memStore assigns ids 100, 101, ... to local shapes on save.
type memStore struct {
	process.Store
	next  int64
	fail  bool
	saved *process.Process
}

func (m *memStore) SaveProcess(_ context.Context, p *process.Process) (*process.Process, error) {
	if m.fail {
		return nil, errors.New("disk full")
	}
	ids := map[int64]int64{}
	for _, s := range p.LocalShapes() {
		ids[s.ID] = 100 + m.next
		m.next++
	}
	process.Remap(p, ids)
	p.ID = "saved"
	m.saved = p
	return p, nil
}

func TestSession_Save(t *testing.T) {
	s := newTestSession(t)
	withDecision(t, s)

	require.Error(t, s.Save(context.Background(), &memStore{fail: true}))
	assert.True(t, s.Dirty())

	store := &memStore{}
	require.NoError(t, s.Save(context.Background(), store))
	assert.False(t, s.Dirty())
	assert.Equal(t, "saved", s.Process().ID)
	assert.Empty(t, s.Process().LocalShapes())
	assert.NoError(t, process.Validate(s.Process()))
	for _, sh := range s.Process().Shapes {
		assert.NotNil(t, s.Graph().Node(sh.ID))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := newTestSession(t)
	r.Open(s)
	assert.Equal(t, 1, r.Len())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Do(s.ID, func(s *Session) error {
				_, err := s.AddShape(process.ShapeKindSystemTask, 0, 0)
				return err
			})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Process().Shapes, 25)

	err := r.Do("missing", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.True(t, r.Close(s.ID))
	assert.False(t, r.Close(s.ID))
	assert.Equal(t, 0, r.Len())
}
