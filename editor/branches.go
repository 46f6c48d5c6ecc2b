package editor

import (
	"fmt"

	"github.com/meikuraledutech/process"
)

// MinBranches is the number of branches a decision keeps at least.
const MinBranches = 2

// Horizontal and vertical spacing of shapes laid out by the session.
const (
	columnSpacing = 180
	rowSpacing    = 200
)

// AddDecisionBranch appends a branch to the decision. A user decision gets a
// user task followed by its system task, a system decision a single system
// task. The branch rejoins mergeNodeID, or the decision's current merge node
// when mergeNodeID is 0.
func (s *Session) AddDecisionBranch(decisionID int64, label string, mergeNodeID int64) bool {
	decision := s.graph.Node(decisionID)
	if decision == nil || !decision.Kind().IsDecision() {
		s.logger.Warn("Branch not added, not a decision.", "decision", decisionID)
		return false
	}
	if mergeNodeID == 0 {
		mergeNodeID = s.currentMergeNode(decisionID)
	}
	if mergeNodeID == 0 || s.proc.Shape(mergeNodeID) == nil || mergeNodeID == decisionID {
		s.logger.Warn("Branch not added, no merge node.", "decision", decisionID, "merge", mergeNodeID)
		return false
	}

	outgoing := decision.OutgoingLinks()
	order := 0.0
	if len(outgoing) > 0 {
		order = outgoing[len(outgoing)-1].OrderIndex + 1
	}

	x := decision.Shape.X() + columnSpacing
	y := decision.Shape.Y() + float64(len(outgoing))*rowSpacing
	parentID, projectID := decision.Shape.ParentID, decision.Shape.ProjectID

	var first, last *process.Shape
	switch decision.Kind() {
	case process.ShapeKindUserDecision:
		first = s.factory.CreateModelUserTaskShape(parentID, projectID, s.tempID(), x, y)
		s.proc.Shapes = append(s.proc.Shapes, first)
		last = s.factory.CreateModelSystemTaskShape(parentID, projectID, s.tempID(), x+columnSpacing, y)
		s.proc.Shapes = append(s.proc.Shapes, last)
		s.proc.Links = append(s.proc.Links, &process.Link{SourceID: first.ID, DestinationID: last.ID})
	default:
		first = s.factory.CreateModelSystemTaskShape(parentID, projectID, s.tempID(), x, y)
		s.proc.Shapes = append(s.proc.Shapes, first)
		last = first
	}

	s.proc.Links = append(s.proc.Links,
		&process.Link{SourceID: decisionID, DestinationID: first.ID, OrderIndex: order, Label: label},
		&process.Link{SourceID: last.ID, DestinationID: mergeNodeID},
	)
	s.proc.DecisionBranchDestinationLinks = append(s.proc.DecisionBranchDestinationLinks,
		&process.Link{SourceID: decisionID, DestinationID: mergeNodeID, OrderIndex: order})

	s.changed()
	s.logger.Debug("Branch added.", "decision", decisionID, "first", first.ID, "merge", mergeNodeID, "orderindex", order)
	return true
}

// DeleteDecisionBranch removes the branch starting with originalLink: its
// shapes up to the merge node, their links and the branch's destination
// link. The decision keeps at least MinBranches branches, and a branch
// another path flows into is left alone.
func (s *Session) DeleteDecisionBranch(originalLink *process.Link) bool {
	if originalLink == nil || !containsLink(s.proc.Links, originalLink) {
		return false
	}
	decisionID := originalLink.SourceID
	decision := s.graph.Node(decisionID)
	if decision == nil || !decision.Kind().IsDecision() {
		return false
	}
	if len(decision.OutgoingLinks()) <= MinBranches {
		s.logger.Warn("Branch not deleted, too few branches.", "decision", decisionID)
		return false
	}
	dest := s.proc.DestinationLink(decisionID, originalLink.OrderIndex)
	if dest == nil {
		s.logger.Warn("Branch not deleted, no destination link.", "decision", decisionID, "orderindex", originalLink.OrderIndex)
		return false
	}

	members, ok := s.branchMembers(originalLink, dest.DestinationID)
	if !ok {
		s.logger.Warn("Branch not deleted, shared with another path.", "decision", decisionID, "orderindex", originalLink.OrderIndex)
		return false
	}

	s.proc.RemoveLink(originalLink)
	for id := range members {
		s.proc.RemoveShape(id)
	}
	kept := s.proc.DecisionBranchDestinationLinks[:0]
	for _, l := range s.proc.DecisionBranchDestinationLinks {
		if l != dest && !members[l.SourceID] {
			kept = append(kept, l)
		}
	}
	s.proc.DecisionBranchDestinationLinks = kept

	s.changed()
	s.logger.Debug("Branch deleted.", "decision", decisionID, "orderindex", originalLink.OrderIndex, "shapes", len(members))
	return true
}

// InsertDecision replaces the link from sourceID to destinationID with a
// decision of kind followed by a merge node, and gives the decision its two
// initial branches. The merge node continues to the former destination.
func (s *Session) InsertDecision(kind process.ShapeKind, sourceID, destinationID int64) (*process.Shape, error) {
	if !kind.IsDecision() {
		return nil, fmt.Errorf("%w: %s", ErrNotADecision, kind)
	}
	var link *process.Link
	for _, l := range s.proc.Links {
		if l.SourceID == sourceID && l.DestinationID == destinationID {
			link = l
			break
		}
	}
	target := s.proc.Shape(destinationID)
	if link == nil || target == nil {
		return nil, fmt.Errorf("%w: %d -> %d", ErrLinkNotFound, sourceID, destinationID)
	}

	x, y := target.X(), target.Y()
	decision, err := s.factory.CreateShape(kind, target.ParentID, s.proc.ProjectID, s.tempID(), x, y)
	if err != nil {
		return nil, err
	}
	merge := s.factory.CreateModelMergeNodeShape(target.ParentID, s.proc.ProjectID, s.tempID(), x+3*columnSpacing, y)
	s.proc.Shapes = append(s.proc.Shapes, decision, merge)
	shiftRight(s.graph, destinationID, 4*columnSpacing)

	link.DestinationID = decision.ID
	s.proc.Links = append(s.proc.Links, &process.Link{SourceID: merge.ID, DestinationID: destinationID})
	s.graph.Refresh()

	for _, label := range []string{"", ""} {
		if !s.AddDecisionBranch(decision.ID, label, merge.ID) {
			return nil, fmt.Errorf("editor: branch of decision %d not added", decision.ID)
		}
	}
	s.logger.Debug("Decision inserted.", "decision", decision.ID, "merge", merge.ID, "kind", kind)
	return decision, nil
}

// currentMergeNode is the merge node of the decision's first branch, or 0.
func (s *Session) currentMergeNode(decisionID int64) int64 {
	decision := s.graph.Node(decisionID)
	for _, l := range decision.OutgoingLinks() {
		if dest := s.proc.DestinationLink(decisionID, l.OrderIndex); dest != nil {
			return dest.DestinationID
		}
	}
	return 0
}

// branchMembers collects the shapes between originalLink and the merge node.
// ok is false when a member is entered from outside the branch.
func (s *Session) branchMembers(originalLink *process.Link, mergeNodeID int64) (map[int64]bool, bool) {
	members := map[int64]bool{}
	first := originalLink.DestinationID
	if first == mergeNodeID {
		return members, true
	}
	members[first] = true
	for _, n := range s.graph.Reachable(first, func(n *process.Node) bool { return n.ID() == mergeNodeID }) {
		members[n.ID()] = true
	}

	for id := range members {
		for _, l := range s.graph.Node(id).IncomingLinks() {
			if l == originalLink || members[l.SourceID] {
				continue
			}
			return nil, false
		}
	}
	return members, true
}

// shiftRight moves the shape with id and everything downstream of it by dx.
func shiftRight(g *process.Graph, id int64, dx float64) {
	start := g.Node(id)
	if start == nil {
		return
	}
	nodes := append([]*process.Node{start}, g.Reachable(id, nil)...)
	for _, n := range nodes {
		n.Shape.SetProperty(process.KeyX, n.Shape.X()+dx)
	}
}

func containsLink(links []*process.Link, l *process.Link) bool {
	for _, cur := range links {
		if cur == l {
			return true
		}
	}
	return false
}
