package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/dbx"
	"github.com/dmitrijs2005/dataportal/internal/repositories/kv"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
)

// Keys of the persisted documents.
const (
	KeyUsers           = "data_portal_users"
	KeyCurrentUser     = "data_portal_current_user"
	KeyMockData        = "data_portal_mock_data"
	KeyCheckboxStates  = "data_portal_checkbox_states"
	KeyCheckboxLogs    = "data_portal_checkbox_logs"
	KeyCheckboxHistory = "data_portal_checkbox_history"
	KeySessionSecret   = "data_portal_session_secret"
)

type storage struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// store returns a kv.Store over db, which is either the pool or a
// transaction.
func (s storage) store(db dbx.DBTX) *kv.Store {
	return kv.NewStore(s.repomanager.KV(db))
}

// asPersistence tags err with common.ErrPersistence unless it already carries
// a sentinel of its own.
func asPersistence(err error) error {
	switch {
	case err == nil,
		errors.Is(err, common.ErrPersistence),
		errors.Is(err, common.ErrDuplicateAccount),
		errors.Is(err, common.ErrorInternal):
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrPersistence, err)
}
