package repository

import (
	"fmt"

	"github.com/ammiranda/repose/models"
)

// attachRoots appends each root node to the collection it references
func attachRoots(collections []*models.Collection, roots []*models.Node) error {
	byID := make(map[string]*models.Collection, len(collections))
	for _, c := range collections {
		byID[c.ID] = c
	}
	for _, root := range roots {
		if root.CollectionID == nil {
			return fmt.Errorf("%w: root node %s has no collection", ErrCorrupt, root.ID)
		}
		collection, ok := byID[*root.CollectionID]
		if !ok {
			return fmt.Errorf("%w: node %s references unknown collection %s", ErrCorrupt, root.ID, *root.CollectionID)
		}
		collection.Nodes = append(collection.Nodes, root)
	}
	return nil
}

func validateCollection(c *models.Collection) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("%w: collection has no id", ErrInvalidInput)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: collection %s has no name", ErrInvalidInput, c.ID)
	}
	return nil
}
