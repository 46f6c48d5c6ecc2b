package process

import (
	"cmp"
	"slices"
)

// Graph indexes a process by shape id so every traversal resolves a shape to
// one canonical Node, however many times it is looked up during an edit.
type Graph struct {
	proc  *Process
	nodes map[int64]*Node
	edges []*Edge
	out   map[int64][]*Edge
	in    map[int64][]*Edge
}

// Node is the canonical in-memory wrapper of a shape within a Graph.
type Node struct {
	Shape *Shape
	g     *Graph
}

// Edge is a link whose endpoints were both resolved to nodes.
type Edge struct {
	Link   *Link
	Source *Node
	Target *Node
}

// NewGraph builds the id index over p.
func NewGraph(p *Process) *Graph {
	g := &Graph{proc: p}
	g.Refresh()
	return g
}

// Refresh rebuilds the node and edge index after the process's shapes or
// links changed. Nodes of shapes that survive keep their identity.
func (g *Graph) Refresh() {
	prev := g.nodes
	g.nodes = make(map[int64]*Node, len(g.proc.Shapes))
	for _, s := range g.proc.Shapes {
		if n, ok := prev[s.ID]; ok && n.Shape == s {
			g.nodes[s.ID] = n
			continue
		}
		g.nodes[s.ID] = &Node{Shape: s, g: g}
	}

	g.edges = make([]*Edge, 0, len(g.proc.Links))
	g.out = make(map[int64][]*Edge)
	g.in = make(map[int64][]*Edge)
	for _, l := range sortedLinks(g.proc.Links, func(*Link) bool { return true }) {
		src, dst := g.nodes[l.SourceID], g.nodes[l.DestinationID]
		if src == nil || dst == nil {
			continue
		}
		e := &Edge{Link: l, Source: src, Target: dst}
		g.edges = append(g.edges, e)
		g.out[src.ID()] = append(g.out[src.ID()], e)
		g.in[dst.ID()] = append(g.in[dst.ID()], e)
	}
}

// Process returns the process the graph indexes.
func (g *Graph) Process() *Process { return g.proc }

// Node returns the canonical node for a shape id, or nil.
func (g *Graph) Node(id int64) *Node { return g.nodes[id] }

// Nodes returns all nodes in the process's shape order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.proc.Shapes))
	for _, s := range g.proc.Shapes {
		if n := g.nodes[s.ID]; n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Edges returns every resolved edge, ascending by order index.
func (g *Graph) Edges() []*Edge { return g.edges }

// Reachable walks forward from the node with id from (excluded) and returns
// every node visited in breadth-first order. Nodes for which stop returns
// true are neither returned nor walked through.
func (g *Graph) Reachable(from int64, stop func(*Node) bool) []*Node {
	start := g.Node(from)
	if start == nil {
		return nil
	}
	seen := map[int64]bool{from: true}
	queue := []*Node{start}
	var out []*Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range cur.NextNodes() {
			if seen[next.ID()] {
				continue
			}
			seen[next.ID()] = true
			if stop != nil && stop(next) {
				continue
			}
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

// ID is the model id of the wrapped shape.
func (n *Node) ID() int64 { return n.Shape.ID }

// Kind is the client type of the wrapped shape.
func (n *Node) Kind() ShapeKind { return n.Shape.Kind() }

// IncomingLinks returns every link of the process ending at this node,
// ascending by order index.
func (n *Node) IncomingLinks() []*Link {
	id := n.ID()
	return sortedLinks(n.g.proc.Links, func(l *Link) bool { return l.DestinationID == id })
}

// OutgoingLinks returns every link of the process starting at this node,
// ascending by order index.
func (n *Node) OutgoingLinks() []*Link {
	id := n.ID()
	return sortedLinks(n.g.proc.Links, func(l *Link) bool { return l.SourceID == id })
}

// Sources maps IncomingLinks to their source nodes, skipping unresolved ones.
func (n *Node) Sources() []*Node {
	var nodes []*Node
	for _, l := range n.IncomingLinks() {
		if src := n.g.Node(l.SourceID); src != nil {
			nodes = append(nodes, src)
		}
	}
	return nodes
}

// Targets maps OutgoingLinks to their destination nodes, skipping unresolved ones.
func (n *Node) Targets() []*Node {
	var nodes []*Node
	for _, l := range n.OutgoingLinks() {
		if dst := n.g.Node(l.DestinationID); dst != nil {
			nodes = append(nodes, dst)
		}
	}
	return nodes
}

// NextNodes walks the resolved edge index rather than the raw links.
// Endpoints are matched by model id.
func (n *Node) NextNodes() []*Node {
	var nodes []*Node
	for _, e := range n.g.out[n.ID()] {
		if e.Source.ID() == n.ID() {
			nodes = append(nodes, e.Target)
		}
	}
	return nodes
}

// PreviousNodes is the backward counterpart of NextNodes.
func (n *Node) PreviousNodes() []*Node {
	var nodes []*Node
	for _, e := range n.g.in[n.ID()] {
		if e.Target.ID() == n.ID() {
			nodes = append(nodes, e.Source)
		}
	}
	return nodes
}

// NextSystemTask returns the system task paired with a user task, or nil.
func (n *Node) NextSystemTask() *Node {
	if n.Kind() != ShapeKindUserTask {
		return nil
	}
	for _, next := range n.NextNodes() {
		if next.Kind() == ShapeKindSystemTask {
			return next
		}
	}
	return nil
}

// sortedLinks filters links and orders them by order index, keeping the
// collection order for equal indices.
func sortedLinks(links []*Link, keep func(*Link) bool) []*Link {
	var out []*Link
	for _, l := range links {
		if keep(l) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b *Link) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return out
}
