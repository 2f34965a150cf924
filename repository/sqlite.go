package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/ammiranda/repose/migrations"
)

// SQLiteFileName is the database file created inside the data directory
const SQLiteFileName = "storage.db"

// NewSQLiteRepository creates a repository backed by a SQLite file in dataDir.
// The directory must exist before Initialize is called.
func NewSQLiteRepository(dataDir string) *SQLiteRepository {
	dbPath := filepath.Join(dataDir, SQLiteFileName)
	repo := &SQLiteRepository{dbPath: dbPath}
	repo.SQLRepository = newSQLRepository(dialect{
		name:              migrations.SQLite,
		orderColumn:       "rowid",
		isUniqueViolation: isSQLiteUniqueViolation,
	}, repo.open)
	return repo
}

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	*SQLRepository
	dbPath string
}

// Path returns the database file path
func (r *SQLiteRepository) Path() string {
	return r.dbPath
}

func (r *SQLiteRepository) open(ctx context.Context) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=30000", r.dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single connection keeps every statement on the same sqlite handle
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if err := migrations.Run(db, migrations.SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}
	return db, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
