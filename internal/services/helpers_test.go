package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/repositories/kv"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	db, m, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, m
}

func testConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.SessionSecret = "test-secret"
	c.SessionTTL = time.Hour
	return &c
}

type fixture struct {
	db         *sql.DB
	m          repomanager.RepositoryManager
	cfg        *config.Config
	accounts   *AccountService
	catalog    *CatalogService
	checkboxes *CheckboxService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, m := newTestDB(t)
	cfg := testConfig()

	f := &fixture{
		db:         db,
		m:          m,
		cfg:        cfg,
		accounts:   NewAccountService(db, m, cfg, logging.Nop()),
		catalog:    NewCatalogService(db, m, logging.Nop()),
		checkboxes: NewCheckboxService(db, m, logging.Nop()),
	}
	f.accounts.now = func() time.Time { return fixedNow }
	f.catalog.now = func() time.Time { return fixedNow }
	f.checkboxes.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) store() *kv.Store {
	return kv.NewStore(f.m.KV(f.db))
}
