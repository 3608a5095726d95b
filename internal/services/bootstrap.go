package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
)

// Stack is a portal assembled over an open store.
type Stack struct {
	DB       *sql.DB
	Accounts *AccountService
	Portal   *PortalService
}

// Open connects to the configured store, applies migrations, seeds the
// demo accounts when enabled and assembles the portal. Latency and the
// audit exporter follow cfg; opts are applied after them.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...PortalOption) (*Stack, error) {
	dsn, err := cfg.ResolveDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve dsn: %w", err)
	}

	db, m, err := repomanager.Open(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	accounts := NewAccountService(db, m, cfg, log)
	if cfg.SeedDemoAccounts {
		if err := accounts.SeedDemoAccounts(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed demo accounts: %w", err)
		}
	}
	catalog := NewCatalogService(db, m, log)
	checkboxes := NewCheckboxService(db, m, log)

	var base []PortalOption
	if cfg.SimulateLatency {
		base = append(base, WithLatency(DefaultLatency()))
	}
	if cfg.ExportEnabled() {
		base = append(base, WithExporter(NewAuditExporter(checkboxes, cfg, http.DefaultClient, log)))
	}

	return &Stack{
		DB:       db,
		Accounts: accounts,
		Portal:   NewPortal(accounts, catalog, checkboxes, log, append(base, opts...)...),
	}, nil
}

func (s *Stack) Close() error {
	return s.DB.Close()
}
