// Package branch models one decision branch during an edit: its label, the
// merge node it rejoins and its position among the decision's branches.
//
// A Condition is built from the current links, edited, committed once with
// ApplyChanges and discarded. It holds no state across edit cycles.
package branch

import "github.com/meikuraledutech/process"

// Graph is the graph collaborator a Condition commits structural changes to.
type Graph interface {
	// AddDecisionBranch allocates the first node of a new branch of the
	// decision and wires its links. Reports whether the graph changed.
	AddDecisionBranch(decisionID int64, label string, mergeNodeID int64) bool
	// DeleteDecisionBranch removes the branch starting with originalLink.
	DeleteDecisionBranch(originalLink *process.Link) bool
}

// Action is what ApplyChanges will do with a Condition.
type Action int

const (
	ActionUpdate Action = iota
	ActionCreate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionDelete:
		return "delete"
	}
	return "update"
}

// Condition is one branch of a decision, aggregated over three links:
// the decision to the branch's first node, the branch's last node to the
// merge node, and the decision's destination link naming the merge node.
type Condition struct {
	OriginalLink          *process.Link
	BranchEndLink         *process.Link
	BranchDestinationLink *process.Link

	DecisionID  int64
	FirstNodeID int64
	MergeNodeID int64
	Label       string
	OrderIndex  float64

	// IsDeleted is set by the caller before ApplyChanges.
	IsDeleted bool
}

// New derives a Condition from its links. branchEndLink and
// branchDestinationLink may be nil for a branch that has no first node yet.
func New(originalLink, branchEndLink, branchDestinationLink *process.Link) *Condition {
	c := &Condition{
		OriginalLink:          originalLink,
		BranchEndLink:         branchEndLink,
		BranchDestinationLink: branchDestinationLink,
		DecisionID:            originalLink.SourceID,
		FirstNodeID:           originalLink.DestinationID,
		Label:                 originalLink.Label,
		OrderIndex:            originalLink.OrderIndex,
	}
	if !c.IsCreated() && branchDestinationLink != nil {
		c.MergeNodeID = branchDestinationLink.DestinationID
	}
	return c
}

// NewCreated returns a Condition for a branch the user is adding to a
// decision; it has no first node until ApplyChanges creates one.
func NewCreated(decisionID int64, label string, mergeNodeID int64) *Condition {
	c := New(&process.Link{SourceID: decisionID, Label: label}, nil, nil)
	c.MergeNodeID = mergeNodeID
	return c
}

// IsCreated reports whether the branch is new: not yet wired to a first node.
func (c *Condition) IsCreated() bool {
	return c.OriginalLink.DestinationID == 0
}

// Pending returns the action ApplyChanges will take.
func (c *Condition) Pending() Action {
	switch {
	case c.IsDeleted:
		return ActionDelete
	case c.IsCreated():
		return ActionCreate
	}
	return ActionUpdate
}

// MergeNodeLabel looks the merge node up among the valid candidates and
// returns its label. ok is false when the candidate is no longer present.
func (c *Condition) MergeNodeLabel(validMergeNodes []*process.Shape) (label string, ok bool) {
	for _, s := range validMergeNodes {
		if s != nil && s.ID == c.MergeNodeID {
			return s.Label(), true
		}
	}
	return "", false
}

// ApplyChanges commits the edit to g and reports whether anything changed.
// Deletion wins over creation, creation over update. The result of the
// collaborator is returned as is.
func (c *Condition) ApplyChanges(g Graph) bool {
	switch c.Pending() {
	case ActionDelete:
		if c.IsCreated() {
			return true
		}
		return g.DeleteDecisionBranch(c.OriginalLink)
	case ActionCreate:
		return g.AddDecisionBranch(c.DecisionID, c.Label, c.MergeNodeID)
	}

	changed := c.updateLabel()
	changed = c.updateMergeNode() || changed
	changed = c.updateOrderIndex() || changed
	return changed
}

func (c *Condition) updateLabel() bool {
	if c.OriginalLink.Label == c.Label {
		return false
	}
	c.OriginalLink.Label = c.Label
	return true
}

// updateMergeNode moves both the branch end link and the destination link,
// so they always agree on the merge node.
func (c *Condition) updateMergeNode() bool {
	if c.MergeNodeID == 0 || c.BranchEndLink == nil || c.BranchDestinationLink == nil {
		return false
	}
	if c.BranchDestinationLink.DestinationID == c.MergeNodeID {
		return false
	}
	c.BranchEndLink.DestinationID = c.MergeNodeID
	c.BranchDestinationLink.DestinationID = c.MergeNodeID
	return true
}

// updateOrderIndex keeps the original link and the destination link on the
// same order index; the pair is how a branch is identified.
func (c *Condition) updateOrderIndex() bool {
	if c.OriginalLink == nil || c.BranchDestinationLink == nil {
		return false
	}
	if c.OriginalLink.OrderIndex == c.OrderIndex {
		return false
	}
	c.OriginalLink.OrderIndex = c.OrderIndex
	c.BranchDestinationLink.OrderIndex = c.OrderIndex
	return true
}
