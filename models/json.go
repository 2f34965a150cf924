package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// nodeJSON is the wire shape of a node: the payload is tagged by kind and
// exactly one of folder/request is present.
type nodeJSON struct {
	ID           string   `json:"id"`
	ParentID     *string  `json:"parent_id"`
	CollectionID *string  `json:"collection_id"`
	Kind         Kind     `json:"kind"`
	Folder       *Folder  `json:"folder,omitempty"`
	Request      *Request `json:"request,omitempty"`
	Children     []*Node  `json:"children"`
}

// MarshalJSON encodes the node and its subtree
func (n Node) MarshalJSON() ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	out := nodeJSON{
		ID:           n.ID,
		ParentID:     n.ParentID,
		CollectionID: n.CollectionID,
		Kind:         n.Payload.Kind(),
		Children:     n.Children,
	}
	if out.Children == nil {
		out.Children = []*Node{}
	}
	out.Folder, _ = n.Folder()
	out.Request, _ = n.Request()
	return json.Marshal(out)
}

// UnmarshalJSON decodes a node and its subtree, rejecting payload-less or doubly-typed nodes
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	restored, err := RestoreNode(in.ID, in.CollectionID, in.ParentID, in.Folder, in.Request)
	if err != nil {
		return err
	}
	if in.Kind != "" && in.Kind != restored.Payload.Kind() {
		return fmt.Errorf("%w: node %s kind %q does not match its payload", ErrIntegrity, in.ID, in.Kind)
	}
	if in.Children != nil {
		restored.Children = in.Children
	}
	*n = *restored
	return nil
}
