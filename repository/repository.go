package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ammiranda/repose/models"
)

// Scope selects which nodes a NodeStore load returns
type Scope int

const (
	// ScopeAttached selects nodes that belong to a collection
	ScopeAttached Scope = iota
	// ScopeDetached selects scratch nodes that are not attached to any collection
	ScopeDetached
)

func (s Scope) String() string {
	switch s {
	case ScopeAttached:
		return "attached"
	case ScopeDetached:
		return "detached"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope parses the textual form of a scope
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "attached":
		return ScopeAttached, nil
	case "detached":
		return ScopeDetached, nil
	default:
		return 0, fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, s)
	}
}

// NodeStore persists folder and request nodes and rebuilds their tree structure.
type NodeStore interface {
	// LoadAll reads every node in scope and returns the forest of root nodes,
	// each linked to its descendants.
	LoadAll(ctx context.Context, scope Scope) ([]*models.Node, error)

	// Save inserts or updates the row of a single node. Children are not saved.
	Save(ctx context.Context, node *models.Node) error
}

// CollectionStore persists collections and composes them with their root nodes.
type CollectionStore interface {
	// LoadAll reads every collection with its attached node forest.
	LoadAll(ctx context.Context) ([]*models.Collection, error)

	// Save inserts or updates the collection row. Nodes are not saved.
	Save(ctx context.Context, collection *models.Collection) error
}

// Repository is a storage engine holding both stores.
// Implementations are not safe for concurrent use; access is serialized by the caller.
type Repository interface {
	// Initialize opens the underlying storage and applies the schema.
	Initialize(ctx context.Context) error

	// Cleanup releases the underlying storage.
	Cleanup(ctx context.Context) error

	// Nodes returns the node store of the repository.
	Nodes() NodeStore

	// Collections returns the collection store of the repository.
	Collections() CollectionStore
}

// Common errors
var (
	// ErrCorrupt is returned when stored rows cannot be turned into a consistent tree
	ErrCorrupt = errors.New("corrupt storage")
	// ErrConflict is returned when a collection name is already taken by another collection
	ErrConflict = errors.New("already exists")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotInitialized is returned when a store is used before Initialize
	ErrNotInitialized = errors.New("repository not initialized")
)
