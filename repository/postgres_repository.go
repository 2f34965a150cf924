package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ammiranda/repose/config"
	"github.com/ammiranda/repose/migrations"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	*SQLRepository
	config *config.DatabaseConfig
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfgProvider config.Provider) (*PostgresRepository, error) {
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}
	return NewPostgresRepositoryWithConfig(cfg), nil
}

// NewPostgresRepositoryWithConfig creates a PostgreSQL repository from an already validated configuration
func NewPostgresRepositoryWithConfig(cfg *config.DatabaseConfig) *PostgresRepository {
	repo := &PostgresRepository{config: cfg}
	repo.SQLRepository = newSQLRepository(dialect{
		name:              migrations.Postgres,
		orderColumn:       "seq",
		numberedParams:    true,
		isUniqueViolation: isPgUniqueViolation,
	}, repo.open)
	return repo
}

func (r *PostgresRepository) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", r.config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// The migration driver pins one connection for its lifetime
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	if err := migrations.Run(db, migrations.Postgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return db, nil
}

// isPgUniqueViolation checks if error is a unique constraint violation
func isPgUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 23505 = unique_violation
		return pqErr.Code == "23505"
	}
	return false
}
