package branch

import "github.com/meikuraledutech/process"

// FromDecision builds one Condition per outgoing link of the decision,
// in order index order. Shapes that are not decisions yield nil.
func FromDecision(g *process.Graph, decisionID int64) []*Condition {
	decision := g.Node(decisionID)
	if decision == nil || !decision.Kind().IsDecision() {
		return nil
	}

	p := g.Process()
	var out []*Condition
	for _, l := range decision.OutgoingLinks() {
		dest := p.DestinationLink(decisionID, l.OrderIndex)
		var end *process.Link
		if dest != nil && l.DestinationID != 0 {
			end = BranchEndLink(g, l, dest.DestinationID)
		}
		out = append(out, New(l, end, dest))
	}
	return out
}

// BranchEndLink finds the link by which the branch starting with
// originalLink enters mergeNodeID, or nil.
func BranchEndLink(g *process.Graph, originalLink *process.Link, mergeNodeID int64) *process.Link {
	if originalLink.DestinationID == mergeNodeID {
		return originalLink
	}
	merge := g.Node(mergeNodeID)
	if merge == nil {
		return nil
	}

	members := map[int64]bool{originalLink.DestinationID: true}
	for _, n := range g.Reachable(originalLink.DestinationID, func(n *process.Node) bool {
		return n.ID() == mergeNodeID
	}) {
		members[n.ID()] = true
	}

	for _, l := range merge.IncomingLinks() {
		if members[l.SourceID] {
			return l
		}
	}
	return nil
}
