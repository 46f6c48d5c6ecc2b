package process

import "fmt"

// Validate checks the structural integrity of a process before it is
// persisted: every link resolves, shape ids are unique, order indices are
// unique per fan-out, every branch destination link belongs to a branch and
// the links form no cycle.
func Validate(p *Process) error {
	ids := make(map[int64]bool, len(p.Shapes))
	for _, s := range p.Shapes {
		if ids[s.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateShape, s.ID)
		}
		ids[s.ID] = true
	}

	type fanOut struct {
		source int64
		order  float64
	}
	seen := make(map[fanOut]bool, len(p.Links))
	for _, l := range p.Links {
		if !ids[l.SourceID] || !ids[l.DestinationID] {
			return fmt.Errorf("%w: %d -> %d", ErrDanglingLink, l.SourceID, l.DestinationID)
		}
		k := fanOut{l.SourceID, l.OrderIndex}
		if seen[k] {
			return fmt.Errorf("%w: source %d, order index %v", ErrDuplicateOrderIndex, l.SourceID, l.OrderIndex)
		}
		seen[k] = true
	}

	for _, d := range p.DecisionBranchDestinationLinks {
		if !ids[d.DestinationID] {
			return fmt.Errorf("%w: merge node %d", ErrDanglingLink, d.DestinationID)
		}
		if !seen[fanOut{d.SourceID, d.OrderIndex}] {
			return fmt.Errorf("%w: decision %d, order index %v", ErrUnpairedBranch, d.SourceID, d.OrderIndex)
		}
	}

	return validateAcyclic(p.Shapes, p.Links)
}

// validateAcyclic checks that the links don't form a cycle using DFS.
func validateAcyclic(shapes []*Shape, links []*Link) error {
	adj := make(map[int64][]int64)
	for _, l := range links {
		adj[l.SourceID] = append(adj[l.SourceID], l.DestinationID)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[int64]int, len(shapes))
	for _, s := range shapes {
		state[s.ID] = unvisited
	}

	var dfs func(id int64) bool
	dfs = func(id int64) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for _, s := range shapes {
		if state[s.ID] == unvisited && dfs(s.ID) {
			return ErrCycleDetected
		}
	}
	return nil
}
