package process

// Remap promotes temporary shape ids to the ids in ids (old -> new),
// rewriting every link and branch destination link that refers to them.
// Shapes missing from ids keep their id.
func Remap(p *Process, ids map[int64]int64) {
	if len(ids) == 0 {
		return
	}
	for _, s := range p.Shapes {
		if id, ok := ids[s.ID]; ok {
			s.ID = id
		}
	}
	for _, links := range [][]*Link{p.Links, p.DecisionBranchDestinationLinks} {
		for _, l := range links {
			if id, ok := ids[l.SourceID]; ok {
				l.SourceID = id
			}
			if id, ok := ids[l.DestinationID]; ok {
				l.DestinationID = id
			}
		}
	}
}

// LocalShapes returns the shapes that have not been persisted yet.
func (p *Process) LocalShapes() []*Shape {
	var out []*Shape
	for _, s := range p.Shapes {
		if s.IsLocal() {
			out = append(out, s)
		}
	}
	return out
}
