package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/ammiranda/repose/models"
)

// dialect captures the differences between the SQL engines a SQLRepository can run on
type dialect struct {
	name string
	// orderColumn reflects insertion order and survives upserts
	orderColumn       string
	numberedParams    bool
	isUniqueViolation func(error) bool
}

// rebind rewrites ? placeholders into the dialect's placeholder style
func (d dialect) rebind(query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLRepository implements Repository on top of database/sql
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
	open    func(ctx context.Context) (*sql.DB, error)
}

func newSQLRepository(d dialect, open func(ctx context.Context) (*sql.DB, error)) *SQLRepository {
	return &SQLRepository{dialect: d, open: open}
}

// Initialize opens the database and applies the schema
func (r *SQLRepository) Initialize(ctx context.Context) error {
	if r.db != nil {
		return nil
	}
	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	r.db = db
	return nil
}

// Cleanup closes the database connection
func (r *SQLRepository) Cleanup(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// DB returns the underlying database handle, nil before Initialize
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

// Nodes returns the node store
func (r *SQLRepository) Nodes() NodeStore {
	return &sqlNodeStore{repo: r}
}

// Collections returns the collection store
func (r *SQLRepository) Collections() CollectionStore {
	return &sqlCollectionStore{repo: r, nodes: &sqlNodeStore{repo: r}}
}

func (r *SQLRepository) conn() (*sql.DB, error) {
	if r.db == nil {
		return nil, ErrNotInitialized
	}
	return r.db, nil
}

type sqlNodeStore struct {
	repo *SQLRepository
}

// LoadAll retrieves the nodes in scope and links them into a forest
func (s *sqlNodeStore) LoadAll(ctx context.Context, scope Scope) ([]*models.Node, error) {
	db, err := s.repo.conn()
	if err != nil {
		return nil, err
	}

	var filter string
	switch scope {
	case ScopeAttached:
		filter = "collection_id IS NOT NULL"
	case ScopeDetached:
		filter = "collection_id IS NULL"
	default:
		return nil, fmt.Errorf("%w: unknown scope %s", ErrInvalidInput, scope)
	}

	query := fmt.Sprintf(`
		SELECT id, collection_id, parent_id, folder_payload, request_payload
		FROM nodes
		WHERE %s
		ORDER BY %s
	`, filter, s.repo.dialect.orderColumn)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error getting nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(&row.ID, &row.CollectionID, &row.ParentID, &row.FolderPayload, &row.RequestPayload); err != nil {
			return nil, fmt.Errorf("error scanning node: %w", err)
		}
		node, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return BuildForest(nodes)
}

// Save upserts the node row
func (s *sqlNodeStore) Save(ctx context.Context, node *models.Node) error {
	row, err := encodeNode(node)
	if err != nil {
		return err
	}
	db, err := s.repo.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, s.repo.dialect.rebind(`
		INSERT INTO nodes (id, collection_id, parent_id, folder_payload, request_payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			collection_id = excluded.collection_id,
			parent_id = excluded.parent_id,
			folder_payload = excluded.folder_payload,
			request_payload = excluded.request_payload
	`), row.ID, row.CollectionID, row.ParentID, row.FolderPayload, row.RequestPayload)
	if err != nil {
		return fmt.Errorf("error saving node %s: %w", node.ID, err)
	}
	return nil
}

type sqlCollectionStore struct {
	repo  *SQLRepository
	nodes NodeStore
}

// LoadAll retrieves every collection with its root nodes attached
func (s *sqlCollectionStore) LoadAll(ctx context.Context) ([]*models.Collection, error) {
	db, err := s.repo.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, name FROM collections ORDER BY %s", s.repo.dialect.orderColumn,
	))
	if err != nil {
		return nil, fmt.Errorf("error getting collections: %w", err)
	}
	defer rows.Close()

	collections := make([]*models.Collection, 0)
	for rows.Next() {
		collection := &models.Collection{Nodes: make([]*models.Node, 0)}
		if err := rows.Scan(&collection.ID, &collection.Name); err != nil {
			return nil, fmt.Errorf("error scanning collection: %w", err)
		}
		collections = append(collections, collection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}
	// Release the connection before the node query runs
	rows.Close()

	roots, err := s.nodes.LoadAll(ctx, ScopeAttached)
	if err != nil {
		return nil, err
	}
	if err := attachRoots(collections, roots); err != nil {
		return nil, err
	}
	return collections, nil
}

// Save upserts the collection row
func (s *sqlCollectionStore) Save(ctx context.Context, collection *models.Collection) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	db, err := s.repo.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, s.repo.dialect.rebind(`
		INSERT INTO collections (id, name)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name
	`), collection.ID, collection.Name)
	if err != nil {
		if s.repo.dialect.isUniqueViolation(err) {
			return fmt.Errorf("collection %q: %w", collection.Name, ErrConflict)
		}
		return fmt.Errorf("error saving collection %s: %w", collection.ID, err)
	}
	return nil
}
