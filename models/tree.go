package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which payload variant a node carries
type Kind string

const (
	KindFolder  Kind = "folder"
	KindRequest Kind = "request"
)

// Integrity errors are programming errors: they are raised before any mutation happens.
var (
	ErrIntegrity = errors.New("integrity violation")
	// ErrNotFolder is returned when a child is attached to a non-folder node
	ErrNotFolder = fmt.Errorf("%w: only folder nodes can have children", ErrIntegrity)
	// ErrNoPayload is returned for a node that carries neither a folder nor a request
	ErrNoPayload = fmt.Errorf("%w: node has no payload", ErrIntegrity)
	// ErrMissingID is returned for a node without an identifier
	ErrMissingID = fmt.Errorf("%w: node has no id", ErrIntegrity)
)

// Payload is the data carried by a tree node. It is implemented by *Folder and *Request only.
type Payload interface {
	Kind() Kind
	isPayload()
}

// Folder is the payload of a folder node
type Folder struct {
	Name string `json:"name"`
}

// Kind returns KindFolder
func (f *Folder) Kind() Kind { return KindFolder }

func (*Folder) isPayload() {}

// Node represents a single node in a collection tree: a folder or a saved request.
// Children is the owning edge; ParentID is a lookup key resolved through an Index.
type Node struct {
	ID           string
	ParentID     *string
	CollectionID *string
	Payload      Payload
	Children     []*Node
}

// NewFolderNode creates a folder node with a generated id
func NewFolderNode(name string) *Node {
	return &Node{
		ID:       uuid.NewString(),
		Payload:  &Folder{Name: name},
		Children: make([]*Node, 0),
	}
}

// NewRequestNode creates a request node with a generated id
func NewRequestNode(req *Request) *Node {
	return &Node{
		ID:       uuid.NewString(),
		Payload:  req,
		Children: make([]*Node, 0),
	}
}

// RestoreNode rebuilds a node from stored values, reusing the stored id.
// Exactly one of folder and request must be non-nil.
func RestoreNode(id string, collectionID, parentID *string, folder *Folder, request *Request) (*Node, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	node := &Node{
		ID:           id,
		ParentID:     parentID,
		CollectionID: collectionID,
		Children:     make([]*Node, 0),
	}
	switch {
	case folder != nil && request != nil:
		return nil, fmt.Errorf("%w: node %s has both folder and request payloads", ErrIntegrity, id)
	case folder != nil:
		node.Payload = folder
	case request != nil:
		request.Normalize()
		node.Payload = request
	default:
		return nil, fmt.Errorf("node %s: %w", id, ErrNoPayload)
	}
	return node, nil
}

// Folder returns the folder payload if the node is a folder
func (n *Node) Folder() (*Folder, bool) {
	f, ok := n.Payload.(*Folder)
	return f, ok && f != nil
}

// Request returns the request payload if the node is a request
func (n *Node) Request() (*Request, bool) {
	r, ok := n.Payload.(*Request)
	return r, ok && r != nil
}

// IsFolder reports whether the node carries a folder payload
func (n *Node) IsFolder() bool {
	_, ok := n.Folder()
	return ok
}

// Name returns the display name of the node's payload
func (n *Node) Name() string {
	if f, ok := n.Folder(); ok {
		return f.Name
	}
	if r, ok := n.Request(); ok {
		return r.Name
	}
	return ""
}

// Validate checks the structural invariants required before a node is persisted
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrMissingID
	}
	if _, ok := n.Folder(); ok {
		return nil
	}
	if _, ok := n.Request(); ok {
		return nil
	}
	return fmt.Errorf("node %s: %w", n.ID, ErrNoPayload)
}

// AddChild appends child to a folder node, pointing the child at this node and its collection
func (n *Node) AddChild(child *Node) error {
	if !n.IsFolder() {
		return fmt.Errorf("node %s: %w", n.ID, ErrNotFolder)
	}
	parentID := n.ID
	child.ParentID = &parentID
	child.CollectionID = copyID(n.CollectionID)
	n.Children = append(n.Children, child)
	return nil
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Clone copies the node's own fields and payload. Children are not copied.
func (n *Node) Clone() *Node {
	out := &Node{
		ID:           n.ID,
		ParentID:     copyID(n.ParentID),
		CollectionID: copyID(n.CollectionID),
		Children:     make([]*Node, 0),
	}
	if f, ok := n.Folder(); ok {
		folder := *f
		out.Payload = &folder
	} else if r, ok := n.Request(); ok {
		out.Payload = r.Clone()
	}
	return out
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
