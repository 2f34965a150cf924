package models

import "github.com/google/uuid"

// Collection is a named group of saved requests and folders
type Collection struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Nodes []*Node `json:"nodes"`
}

// NewCollection creates an empty collection with a generated id
func NewCollection(name string) *Collection {
	return &Collection{
		ID:    uuid.NewString(),
		Name:  name,
		Nodes: make([]*Node, 0),
	}
}

// AddNode attaches node as a root of the collection. The collection id is stamped on
// the node and all of its descendants.
func (c *Collection) AddNode(node *Node) {
	node.ParentID = nil
	node.Walk(func(n *Node) bool {
		id := c.ID
		n.CollectionID = &id
		return true
	})
	c.Nodes = append(c.Nodes, node)
}

// Index builds a lookup over every node of the collection
func (c *Collection) Index() *Index {
	return NewIndex(c.Nodes)
}
