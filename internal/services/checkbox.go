package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/dbx"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/repositories/kv"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// stateBook maps owner email -> item id -> state.
type stateBook map[string]map[string]models.CheckboxState

type auditKey struct {
	owner string
	item  string
}

// auditLog is the stored audit sequence plus a position index, so an upsert
// replaces the (owner, item) entry in place or appends a new one.
type auditLog struct {
	entries []models.AuditLogEntry
	index   map[auditKey]int
}

func newAuditLog(entries []models.AuditLogEntry) *auditLog {
	l := &auditLog{entries: entries, index: make(map[auditKey]int, len(entries))}
	for i, e := range entries {
		k := auditKey{owner: e.OwnerEmail, item: e.ItemID}
		if _, ok := l.index[k]; !ok {
			l.index[k] = i
		}
	}
	return l
}

// upsert reports whether an existing entry was replaced.
func (l *auditLog) upsert(e models.AuditLogEntry) bool {
	k := auditKey{owner: e.OwnerEmail, item: e.ItemID}
	if i, ok := l.index[k]; ok {
		l.entries[i] = e
		return true
	}
	l.index[k] = len(l.entries)
	l.entries = append(l.entries, e)
	return false
}

type CheckboxService struct {
	storage
	log   logging.Logger
	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

func NewCheckboxService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CheckboxService {
	return &CheckboxService{
		storage: storage{db: db, repomanager: m},
		log:     log.With("module", "checkbox"),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func loadStates(ctx context.Context, store *kv.Store) (stateBook, error) {
	states := stateBook{}
	if _, err := store.GetJSON(ctx, KeyCheckboxStates, &states); err != nil {
		return nil, err
	}
	if states == nil {
		states = stateBook{}
	}
	return states, nil
}

func loadLogs(ctx context.Context, store *kv.Store) ([]models.AuditLogEntry, error) {
	var logs []models.AuditLogEntry
	if _, err := store.GetJSON(ctx, KeyCheckboxLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func loadHistory(ctx context.Context, store *kv.Store) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if _, err := store.GetJSON(ctx, KeyCheckboxHistory, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// States returns the item id -> state map of email, empty when nothing was
// recorded.
func (s *CheckboxService) States(ctx context.Context, email string) (map[string]models.CheckboxState, error) {
	states, err := loadStates(ctx, s.store(s.db))
	if err != nil {
		return nil, err
	}

	own := make(map[string]models.CheckboxState, len(states[email]))
	for id, st := range states[email] {
		own[id] = st
	}
	return own, nil
}

// SetState records checked for (email, itemID). The state, the audit log
// upsert and the history event share one timestamp and are committed in a
// single transaction.
func (s *CheckboxService) SetState(ctx context.Context, email, itemID string, checked bool) (*models.CheckboxState, error) {
	if email == "" || itemID == "" {
		return nil, fmt.Errorf("%w: email and item id are required", common.ErrEmptyFields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	state := models.CheckboxState{ItemID: itemID, Checked: checked, LastUpdated: ts}
	replaced := false

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.store(tx)

		states, err := loadStates(ctx, store)
		if err != nil {
			return err
		}
		if states[email] == nil {
			states[email] = map[string]models.CheckboxState{}
		}
		states[email][itemID] = state
		if err := store.SetJSON(ctx, KeyCheckboxStates, states); err != nil {
			return err
		}

		entries, err := loadLogs(ctx, store)
		if err != nil {
			return err
		}
		audit := newAuditLog(entries)
		replaced = audit.upsert(models.AuditLogEntry{
			OwnerEmail: email,
			ItemID:     itemID,
			Checked:    checked,
			Timestamp:  ts,
		})
		if err := store.SetJSON(ctx, KeyCheckboxLogs, audit.entries); err != nil {
			return err
		}

		history, err := loadHistory(ctx, store)
		if err != nil {
			return err
		}
		history = append(history, models.AuditEvent{
			ID:         s.newID(),
			OwnerEmail: email,
			ItemID:     itemID,
			Checked:    checked,
			Timestamp:  ts,
		})
		return store.SetJSON(ctx, KeyCheckboxHistory, history)
	})
	if err != nil {
		err = asPersistence(err)
		s.log.Error(ctx, "set state failed", "email", email, "item", itemID, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "checkbox updated", "email", email, "item", itemID, "checked", checked, "replaced", replaced)
	return &state, nil
}

// Logs returns the audit log in stored order, restricted to email when it is
// not empty.
func (s *CheckboxService) Logs(ctx context.Context, email string) ([]models.AuditLogEntry, error) {
	entries, err := loadLogs(ctx, s.store(s.db))
	if err != nil {
		return nil, err
	}

	out := make([]models.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		if email == "" || e.OwnerEmail == email {
			out = append(out, e)
		}
	}
	return out, nil
}

// AuditTrail returns the audit entries of itemID across all owners.
func (s *CheckboxService) AuditTrail(ctx context.Context, itemID string) ([]models.AuditLogEntry, error) {
	entries, err := loadLogs(ctx, s.store(s.db))
	if err != nil {
		return nil, err
	}

	out := make([]models.AuditLogEntry, 0, 1)
	for _, e := range entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

// History returns every recorded change, oldest first, narrowed by the
// non-empty arguments.
func (s *CheckboxService) History(ctx context.Context, email, itemID string) ([]models.AuditEvent, error) {
	events, err := loadHistory(ctx, s.store(s.db))
	if err != nil {
		return nil, err
	}

	out := make([]models.AuditEvent, 0, len(events))
	for _, e := range events {
		if email != "" && e.OwnerEmail != email {
			continue
		}
		if itemID != "" && e.ItemID != itemID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
