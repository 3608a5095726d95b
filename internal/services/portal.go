package services

import (
	"context"
	"math"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/metrics"
	"github.com/dmitrijs2005/dataportal/internal/models"
)

// Portal is the call surface shared by the terminal client and the gRPC
// gateway.
type Portal interface {
	Register(ctx context.Context, email, password string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	CurrentUser(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error

	UserItems(ctx context.Context, email string) ([]models.WorkItem, error)
	AllItems(ctx context.Context) ([]models.WorkItem, error)
	RunQuery(ctx context.Context, query, email string) ([]models.WorkItem, error)

	States(ctx context.Context, email string) (map[string]models.CheckboxState, error)
	SetState(ctx context.Context, email, itemID string, checked bool) (*models.CheckboxState, error)
	Logs(ctx context.Context, email string) ([]models.AuditLogEntry, error)
	AuditTrail(ctx context.Context, itemID string) ([]models.AuditLogEntry, error)
	History(ctx context.Context, email, itemID string) ([]models.AuditEvent, error)

	Dashboard(ctx context.Context, email string) (*models.Dashboard, error)
	ExportAudit(ctx context.Context, email string) (string, error)
}

// Operation names used for latency, logs and metrics.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpCurrentUser = "current_user"
	OpLogout      = "logout"
	OpUserItems   = "user_items"
	OpAllItems    = "all_items"
	OpRunQuery    = "run_query"
	OpStates      = "states"
	OpSetState    = "set_state"
	OpLogs        = "logs"
	OpAuditTrail  = "audit_trail"
	OpHistory     = "history"
	OpDashboard   = "dashboard"
	OpExportAudit = "export_audit"
)

// DefaultLatency returns the per-call delays of the demo backend.
func DefaultLatency() map[string]time.Duration {
	return map[string]time.Duration{
		OpRegister:    time.Second,
		OpLogin:       time.Second,
		OpCurrentUser: 300 * time.Millisecond,
		OpLogout:      500 * time.Millisecond,
		OpUserItems:   800 * time.Millisecond,
		OpAllItems:    500 * time.Millisecond,
		OpRunQuery:    800 * time.Millisecond,
		OpStates:      300 * time.Millisecond,
		OpSetState:    200 * time.Millisecond,
		OpLogs:        300 * time.Millisecond,
		OpAuditTrail:  300 * time.Millisecond,
		OpHistory:     300 * time.Millisecond,
	}
}

// PortalService implements Portal over the local services.
type PortalService struct {
	accounts   *AccountService
	catalog    *CatalogService
	checkboxes *CheckboxService
	exporter   *AuditExporter

	log     logging.Logger
	metrics metrics.Recorder
	latency map[string]time.Duration
}

// PortalOption customises a PortalService.
type PortalOption func(*PortalService)

// WithLatency delays each operation by latency[op] before it runs.
func WithLatency(latency map[string]time.Duration) PortalOption {
	return func(p *PortalService) { p.latency = latency }
}

func WithMetrics(r metrics.Recorder) PortalOption {
	return func(p *PortalService) { p.metrics = r }
}

// WithExporter enables ExportAudit.
func WithExporter(e *AuditExporter) PortalOption {
	return func(p *PortalService) { p.exporter = e }
}

func NewPortal(accounts *AccountService, catalog *CatalogService, checkboxes *CheckboxService, log logging.Logger, opts ...PortalOption) *PortalService {
	p := &PortalService{
		accounts:   accounts,
		catalog:    catalog,
		checkboxes: checkboxes,
		log:        log.With("module", "portal"),
		metrics:    metrics.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Accounts exposes the account service for token checks in the gateway.
func (p *PortalService) Accounts() *AccountService {
	return p.accounts
}

func (p *PortalService) delay(ctx context.Context, op string) error {
	d := p.latency[op]
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func call[T any](ctx context.Context, p *PortalService, op string, fn func(context.Context) (T, error), attrs ...any) (T, error) {
	start := time.Now()

	var result T
	err := p.delay(ctx, op)
	if err == nil {
		result, err = fn(ctx)
	}

	elapsed := time.Since(start)
	p.metrics.Observe(ctx, op, err == nil, elapsed)

	attrs = append(attrs, "op", op, "duration", elapsed)
	if err != nil {
		p.log.Warn(ctx, "call failed", append(attrs, "error", err)...)
		var zero T
		return zero, err
	}
	p.log.Debug(ctx, "call done", attrs...)
	return result, nil
}

func (p *PortalService) Register(ctx context.Context, email, password string) (*models.Session, error) {
	return call(ctx, p, OpRegister, func(ctx context.Context) (*models.Session, error) {
		return p.accounts.Register(ctx, email, password)
	}, "email", email)
}

func (p *PortalService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return call(ctx, p, OpLogin, func(ctx context.Context) (*models.Session, error) {
		return p.accounts.Login(ctx, email, password)
	}, "email", email)
}

func (p *PortalService) CurrentUser(ctx context.Context) (*models.Session, error) {
	return call(ctx, p, OpCurrentUser, p.accounts.CurrentUser)
}

func (p *PortalService) Logout(ctx context.Context) error {
	_, err := call(ctx, p, OpLogout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.accounts.Logout(ctx)
	})
	return err
}

func (p *PortalService) UserItems(ctx context.Context, email string) ([]models.WorkItem, error) {
	return call(ctx, p, OpUserItems, func(ctx context.Context) ([]models.WorkItem, error) {
		return p.catalog.UserItems(ctx, email)
	}, "email", email)
}

func (p *PortalService) AllItems(ctx context.Context) ([]models.WorkItem, error) {
	return call(ctx, p, OpAllItems, p.catalog.AllItems)
}

func (p *PortalService) RunQuery(ctx context.Context, query, email string) ([]models.WorkItem, error) {
	return call(ctx, p, OpRunQuery, func(ctx context.Context) ([]models.WorkItem, error) {
		return p.catalog.RunQuery(ctx, query, email)
	}, "email", email)
}

func (p *PortalService) States(ctx context.Context, email string) (map[string]models.CheckboxState, error) {
	return call(ctx, p, OpStates, func(ctx context.Context) (map[string]models.CheckboxState, error) {
		return p.checkboxes.States(ctx, email)
	}, "email", email)
}

func (p *PortalService) SetState(ctx context.Context, email, itemID string, checked bool) (*models.CheckboxState, error) {
	return call(ctx, p, OpSetState, func(ctx context.Context) (*models.CheckboxState, error) {
		return p.checkboxes.SetState(ctx, email, itemID, checked)
	}, "email", email, "item", itemID)
}

func (p *PortalService) Logs(ctx context.Context, email string) ([]models.AuditLogEntry, error) {
	return call(ctx, p, OpLogs, func(ctx context.Context) ([]models.AuditLogEntry, error) {
		return p.checkboxes.Logs(ctx, email)
	}, "email", email)
}

func (p *PortalService) AuditTrail(ctx context.Context, itemID string) ([]models.AuditLogEntry, error) {
	return call(ctx, p, OpAuditTrail, func(ctx context.Context) ([]models.AuditLogEntry, error) {
		return p.checkboxes.AuditTrail(ctx, itemID)
	}, "item", itemID)
}

func (p *PortalService) History(ctx context.Context, email, itemID string) ([]models.AuditEvent, error) {
	return call(ctx, p, OpHistory, func(ctx context.Context) ([]models.AuditEvent, error) {
		return p.checkboxes.History(ctx, email, itemID)
	}, "email", email, "item", itemID)
}

// Dashboard loads the items and states of email and summarises them.
func (p *PortalService) Dashboard(ctx context.Context, email string) (*models.Dashboard, error) {
	return call(ctx, p, OpDashboard, func(ctx context.Context) (*models.Dashboard, error) {
		items, err := p.catalog.UserItems(ctx, email)
		if err != nil {
			return nil, err
		}
		states, err := p.checkboxes.States(ctx, email)
		if err != nil {
			return nil, err
		}
		return &models.Dashboard{Items: items, States: states, Stats: ComputeStats(items, states)}, nil
	}, "email", email)
}

func (p *PortalService) ExportAudit(ctx context.Context, email string) (string, error) {
	return call(ctx, p, OpExportAudit, func(ctx context.Context) (string, error) {
		if p.exporter == nil {
			return "", common.ErrExportDisabled
		}
		return p.exporter.Export(ctx, email)
	}, "email", email)
}

// ComputeStats counts items, checked states and high-priority items. The
// completion rate is a rounded percentage, 0 without items.
func ComputeStats(items []models.WorkItem, states map[string]models.CheckboxState) models.DashboardStats {
	stats := models.DashboardStats{Total: len(items)}
	for _, st := range states {
		if st.Checked {
			stats.Completed++
		}
	}
	for _, it := range items {
		if it.Priority == models.PriorityHigh {
			stats.HighPriority++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) * 100 / float64(stats.Total)))
	}
	return stats
}
