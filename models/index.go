package models

// Index is an id-addressed view over a forest. Parent links are resolved through it
// instead of being held as pointers on the nodes.
type Index struct {
	nodes map[string]*Node
}

// NewIndex indexes every node reachable from roots
func NewIndex(roots []*Node) *Index {
	idx := &Index{nodes: make(map[string]*Node)}
	for _, root := range roots {
		root.Walk(func(n *Node) bool {
			idx.nodes[n.ID] = n
			return true
		})
	}
	return idx
}

// Get returns the node with the given id
func (idx *Index) Get(id string) (*Node, bool) {
	n, ok := idx.nodes[id]
	return n, ok
}

// Parent resolves the parent of n, if the parent is part of the index
func (idx *Index) Parent(n *Node) (*Node, bool) {
	if n.ParentID == nil {
		return nil, false
	}
	return idx.Get(*n.ParentID)
}

// Len returns the number of indexed nodes
func (idx *Index) Len() int {
	return len(idx.nodes)
}
