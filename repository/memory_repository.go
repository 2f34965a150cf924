package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/ammiranda/repose/models"
)

type collectionRow struct {
	ID   string
	Name string
}

// MemoryRepository implements Repository in memory. Rows are stored encoded,
// exactly as a SQL engine would hold them, and kept in insertion order.
type MemoryRepository struct {
	mu          sync.RWMutex
	nodes       []nodeRow
	nodeIndex   map[string]int
	collections []collectionRow
	collIndex   map[string]int
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodeIndex: make(map[string]int),
		collIndex: make(map[string]int),
	}
}

// Initialize performs any necessary setup
func (m *MemoryRepository) Initialize(ctx context.Context) error {
	return nil
}

// Cleanup drops every stored row
func (m *MemoryRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = nil
	m.nodeIndex = make(map[string]int)
	m.collections = nil
	m.collIndex = make(map[string]int)
	return nil
}

// Nodes returns the node store
func (m *MemoryRepository) Nodes() NodeStore {
	return memoryNodeStore{m}
}

// Collections returns the collection store
func (m *MemoryRepository) Collections() CollectionStore {
	return memoryCollectionStore{m}
}

// putRow upserts a raw row, keeping the original position of an existing id
func (m *MemoryRepository) putRow(row nodeRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.nodeIndex[row.ID]; ok {
		m.nodes[i] = row
		return
	}
	m.nodeIndex[row.ID] = len(m.nodes)
	m.nodes = append(m.nodes, row)
}

type memoryNodeStore struct {
	m *MemoryRepository
}

// LoadAll decodes the rows in scope and links them into a forest
func (s memoryNodeStore) LoadAll(ctx context.Context, scope Scope) ([]*models.Node, error) {
	if scope != ScopeAttached && scope != ScopeDetached {
		return nil, fmt.Errorf("%w: unknown scope %s", ErrInvalidInput, scope)
	}

	s.m.mu.RLock()
	rows := make([]nodeRow, 0, len(s.m.nodes))
	for _, row := range s.m.nodes {
		if row.CollectionID.Valid == (scope == ScopeAttached) {
			rows = append(rows, row)
		}
	}
	s.m.mu.RUnlock()

	nodes := make([]*models.Node, 0, len(rows))
	for _, row := range rows {
		node, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return BuildForest(nodes)
}

// Save upserts the node row
func (s memoryNodeStore) Save(ctx context.Context, node *models.Node) error {
	row, err := encodeNode(node)
	if err != nil {
		return err
	}
	s.m.putRow(row)
	return nil
}

type memoryCollectionStore struct {
	m *MemoryRepository
}

// LoadAll returns every collection with its root nodes attached
func (s memoryCollectionStore) LoadAll(ctx context.Context) ([]*models.Collection, error) {
	s.m.mu.RLock()
	collections := make([]*models.Collection, 0, len(s.m.collections))
	for _, row := range s.m.collections {
		collections = append(collections, &models.Collection{
			ID:    row.ID,
			Name:  row.Name,
			Nodes: make([]*models.Node, 0),
		})
	}
	s.m.mu.RUnlock()

	roots, err := memoryNodeStore{s.m}.LoadAll(ctx, ScopeAttached)
	if err != nil {
		return nil, err
	}
	if err := attachRoots(collections, roots); err != nil {
		return nil, err
	}
	return collections, nil
}

// Save upserts the collection, rejecting a name used by another collection
func (s memoryCollectionStore) Save(ctx context.Context, collection *models.Collection) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, row := range s.m.collections {
		if row.Name == collection.Name && row.ID != collection.ID {
			return fmt.Errorf("collection %q: %w", collection.Name, ErrConflict)
		}
	}
	row := collectionRow{ID: collection.ID, Name: collection.Name}
	if i, ok := s.m.collIndex[collection.ID]; ok {
		s.m.collections[i] = row
		return nil
	}
	s.m.collIndex[collection.ID] = len(s.m.collections)
	s.m.collections = append(s.m.collections, row)
	return nil
}
