// Package storage is the asynchronous entry point to the request tree store.
//
// Every operation is queued on a single worker that owns the repository, and
// returns immediately with a future. Reads go through an optional cache that
// every save invalidates.
package storage

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ammiranda/repose/cache"
	"github.com/ammiranda/repose/config"
	"github.com/ammiranda/repose/executor"
	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
)

// Storage serializes access to a repository
type Storage struct {
	repo    repository.Repository
	cache   *cache.Cache
	log     *zap.Logger
	dataDir string
	exec    *executor.Executor
}

// Option configures a Storage
type Option func(*Storage)

// WithDataDir makes the first task create dir before the repository is initialized
func WithDataDir(dir string) Option {
	return func(s *Storage) { s.dataDir = dir }
}

// WithCache puts c in front of the load operations
func WithCache(c *cache.Cache) Option {
	return func(s *Storage) { s.cache = c }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Storage) { s.log = log }
}

// New starts the storage worker for repo. The repository is initialized lazily
// on the worker, before the first operation runs.
func New(repo repository.Repository, opts ...Option) *Storage {
	s := &Storage{repo: repo, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.exec = executor.New(
		executor.WithLogger(s.log.Named("executor")),
		executor.WithInit(s.initialize),
		executor.WithCleanup(s.repo.Cleanup),
	)
	return s
}

// Open builds the repository and cache selected by cfg and starts a Storage over them
func Open(ctx context.Context, cfg *config.StorageConfig, cfgProvider config.Provider, log *zap.Logger) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		repo repository.Repository
		opts = []Option{WithLogger(log)}
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		repo = repository.NewSQLiteRepository(cfg.DataDir)
		opts = append(opts, WithDataDir(cfg.DataDir))
	case config.DriverPostgres:
		pg, err := repository.NewPostgresRepository(ctx, cfgProvider)
		if err != nil {
			return nil, err
		}
		repo = pg
	case config.DriverMemory:
		repo = repository.NewMemoryRepository()
	}

	provider, err := cache.NewProvider(ctx, cfg, log.Named("cache"))
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithCache(cache.New(provider, log.Named("cache"))))

	log.Info("storage configured",
		zap.String("driver", cfg.Driver),
		zap.String("data_dir", cfg.DataDir),
		zap.String("cache", cfg.CacheBackend),
	)
	return New(repo, opts...), nil
}

func (s *Storage) initialize(ctx context.Context) error {
	if s.dataDir != "" {
		if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
			return fmt.Errorf("error creating data directory: %w", err)
		}
	}
	if err := s.repo.Initialize(ctx); err != nil {
		return fmt.Errorf("error initializing repository: %w", err)
	}
	s.log.Debug("storage initialized", zap.String("data_dir", s.dataDir))
	return nil
}

// Close waits for queued operations and releases the repository
func (s *Storage) Close() error {
	return s.exec.Close()
}

// LoadCollections loads every collection with its node forest
func (s *Storage) LoadCollections() *executor.Future[[]*models.Collection] {
	return executor.Submit(s.exec, func(ctx context.Context) ([]*models.Collection, error) {
		if collections, ok := s.cache.GetCollections(ctx); ok {
			return collections, nil
		}
		collections, err := s.repo.Collections().LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetCollections(ctx, collections)
		return collections, nil
	})
}

// LoadNodes loads the node forest of scope
func (s *Storage) LoadNodes(scope repository.Scope) *executor.Future[[]*models.Node] {
	return executor.Submit(s.exec, func(ctx context.Context) ([]*models.Node, error) {
		if nodes, ok := s.cache.GetNodes(ctx, scope); ok {
			return nodes, nil
		}
		nodes, err := s.repo.Nodes().LoadAll(ctx, scope)
		if err != nil {
			return nil, err
		}
		s.cache.SetNodes(ctx, scope, nodes)
		return nodes, nil
	})
}

// SaveCollection upserts the collection row. The collection is copied when submitted
// and its nodes are not saved.
func (s *Storage) SaveCollection(collection *models.Collection) *executor.Future[struct{}] {
	snapshot := &models.Collection{ID: collection.ID, Name: collection.Name}
	return executor.Submit(s.exec, func(ctx context.Context) (struct{}, error) {
		defer s.cache.Invalidate(ctx)
		return struct{}{}, s.repo.Collections().Save(ctx, snapshot)
	})
}

// SaveNode upserts a single node row. The node is copied when submitted and its
// children are not saved.
func (s *Storage) SaveNode(node *models.Node) *executor.Future[struct{}] {
	snapshot := node.Clone()
	return executor.Submit(s.exec, func(ctx context.Context) (struct{}, error) {
		defer s.cache.Invalidate(ctx)
		return struct{}{}, s.repo.Nodes().Save(ctx, snapshot)
	})
}

// SaveTree saves the collection row followed by every node of its forest, parents
// first. The saves are independent: a failure leaves the earlier ones in place.
func (s *Storage) SaveTree(collection *models.Collection) *executor.Future[int] {
	snapshot := &models.Collection{ID: collection.ID, Name: collection.Name}
	var nodes []*models.Node
	for _, root := range collection.Nodes {
		root.Walk(func(n *models.Node) bool {
			nodes = append(nodes, n.Clone())
			return true
		})
	}

	return executor.Submit(s.exec, func(ctx context.Context) (int, error) {
		defer s.cache.Invalidate(ctx)
		if err := s.repo.Collections().Save(ctx, snapshot); err != nil {
			return 0, err
		}
		for i, node := range nodes {
			if err := s.repo.Nodes().Save(ctx, node); err != nil {
				return i, err
			}
		}
		return len(nodes), nil
	})
}
