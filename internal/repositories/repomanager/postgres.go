package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dataportal/internal/dbx"
	"github.com/dmitrijs2005/dataportal/internal/repositories/kv"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// KV returns a kv.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) KV(db dbx.DBTX) kv.Repository {
	return kv.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "pgx", "postgres")
}
