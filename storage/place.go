package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ammiranda/repose/executor"
	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
)

var (
	// ErrParentNotFound is returned when a node names a parent that is not stored
	ErrParentNotFound = errors.New("parent node not found")
	// ErrCollectionNotFound is returned when a node names a collection that is not stored
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrInvalidMove is returned when a node would become its own ancestor
	ErrInvalidMove = errors.New("a node cannot be placed below itself")
)

// PutNode saves node after checking that the parent or collection it names is stored.
// A node with a parent joins the parent's collection. When an existing folder moves to
// another collection, or out of one, its stored descendants follow it. A folder that
// has children cannot be turned into a request. The checks and the saves run as one
// task, so no other operation can change the tree in between. The saved copy is returned.
func (s *Storage) PutNode(node *models.Node) *executor.Future[*models.Node] {
	snapshot := node.Clone()
	return executor.Submit(s.exec, func(ctx context.Context) (*models.Node, error) {
		idx, err := s.storedIndex(ctx)
		if err != nil {
			return nil, err
		}

		stored, exists := idx.Get(snapshot.ID)
		if exists && len(stored.Children) > 0 && !snapshot.IsFolder() {
			return nil, fmt.Errorf("node %s has children: %w", snapshot.ID, models.ErrNotFolder)
		}
		if err := s.place(ctx, idx, snapshot); err != nil {
			return nil, err
		}

		defer s.cache.Invalidate(ctx)
		if err := s.repo.Nodes().Save(ctx, snapshot); err != nil {
			return nil, err
		}
		if exists && !sameID(stored.CollectionID, snapshot.CollectionID) {
			if err := s.restampDescendants(ctx, stored, snapshot.CollectionID); err != nil {
				return nil, err
			}
		}
		return snapshot, nil
	})
}

// storedIndex indexes every stored node, attached or not
func (s *Storage) storedIndex(ctx context.Context) (*models.Index, error) {
	var roots []*models.Node
	for _, scope := range []repository.Scope{repository.ScopeAttached, repository.ScopeDetached} {
		forest, err := s.repo.Nodes().LoadAll(ctx, scope)
		if err != nil {
			return nil, err
		}
		roots = append(roots, forest...)
	}
	return models.NewIndex(roots), nil
}

func (s *Storage) place(ctx context.Context, idx *models.Index, node *models.Node) error {
	if node.ParentID != nil {
		return placeBelowParent(idx, node)
	}
	if node.CollectionID == nil {
		return nil
	}

	collections, err := s.repo.Collections().LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, collection := range collections {
		if collection.ID == *node.CollectionID {
			return nil
		}
	}
	return ErrCollectionNotFound
}

func placeBelowParent(idx *models.Index, node *models.Node) error {
	if *node.ParentID == node.ID {
		return ErrInvalidMove
	}

	parent, ok := idx.Get(*node.ParentID)
	if !ok {
		return ErrParentNotFound
	}
	// Placing a folder below one of its own descendants would create a cycle
	ancestor := parent
	for steps := 0; steps <= idx.Len(); steps++ {
		if ancestor.ID == node.ID {
			return ErrInvalidMove
		}
		next, ok := idx.Parent(ancestor)
		if !ok {
			break
		}
		ancestor = next
	}
	return parent.AddChild(node)
}

// restampDescendants saves every stored descendant of moved with collectionID.
// Saves that completed before a failure are kept.
func (s *Storage) restampDescendants(ctx context.Context, moved *models.Node, collectionID *string) error {
	var err error
	for _, child := range moved.Children {
		child.Walk(func(n *models.Node) bool {
			restamped := n.Clone()
			restamped.CollectionID = nil
			if collectionID != nil {
				id := *collectionID
				restamped.CollectionID = &id
			}
			err = s.repo.Nodes().Save(ctx, restamped)
			return err == nil
		})
		if err != nil {
			return fmt.Errorf("error moving descendants of %s: %w", moved.ID, err)
		}
	}
	return nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
