package repository

import (
	"fmt"

	"github.com/ammiranda/repose/models"
)

// BuildForest links a flat, unordered set of nodes into trees using their parent ids.
// Nodes whose parent id is empty or does not resolve within the set become roots.
// Roots and children keep the order in which they appear in nodes.
func BuildForest(nodes []*models.Node) ([]*models.Node, error) {
	// First pass: index every node before resolving any parent, since parents
	// may come after their children.
	nodeMap := make(map[string]*models.Node, len(nodes))
	for _, node := range nodes {
		if _, exists := nodeMap[node.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate node id %s", ErrCorrupt, node.ID)
		}
		nodeMap[node.ID] = node
	}

	// Second pass: attach children to their parents
	rootNodes := make([]*models.Node, 0)
	for _, node := range nodes {
		if node.ParentID == nil {
			rootNodes = append(rootNodes, node)
			continue
		}
		parent, exists := nodeMap[*node.ParentID]
		if !exists {
			rootNodes = append(rootNodes, node)
			continue
		}
		if parent == node {
			return nil, fmt.Errorf("%w: node %s is its own parent", ErrCorrupt, node.ID)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("%w: node %s has non-folder parent %s", ErrCorrupt, node.ID, parent.ID)
		}
		parent.Children = append(parent.Children, node)
	}

	// Nodes on a parent cycle are never reachable from a root
	reached := 0
	for _, root := range rootNodes {
		root.Walk(func(*models.Node) bool {
			reached++
			return reached <= len(nodes)
		})
	}
	if reached != len(nodes) {
		return nil, fmt.Errorf("%w: %d nodes are part of a parent cycle", ErrCorrupt, len(nodes)-reached)
	}

	return rootNodes, nil
}
