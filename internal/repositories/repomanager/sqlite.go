package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dataportal/internal/dbx"
	"github.com/dmitrijs2005/dataportal/internal/repositories/kv"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

// KV returns a kv.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) KV(db dbx.DBTX) kv.Repository {
	return kv.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "sqlite3", "sqlite")
}
