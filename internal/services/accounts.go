package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/auth"
	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/cryptox"
	"github.com/dmitrijs2005/dataportal/internal/dbx"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/repositories/kv"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
)

// dummyHash is verified against when a login names an unknown account, so
// both failure paths cost one key derivation.
var dummyHash = cryptox.HashPassword([]byte("not-a-password"))

type AccountService struct {
	storage
	log        logging.Logger
	sessionTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	secretMu sync.Mutex
	secret   []byte
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AccountService {
	s := &AccountService{
		storage:    storage{db: db, repomanager: m},
		log:        log.With("module", "accounts"),
		sessionTTL: cfg.SessionTTL,
		now:        time.Now,
	}
	if cfg.SessionSecret != "" {
		s.secret = []byte(cfg.SessionSecret)
	}
	return s
}

// sessionSecret returns the signing key, creating and persisting a random
// one on first use when none was configured.
func (s *AccountService) sessionSecret(ctx context.Context) ([]byte, error) {
	s.secretMu.Lock()
	defer s.secretMu.Unlock()

	if s.secret != nil {
		return s.secret, nil
	}

	store := s.store(s.db)
	secret, ok, err := store.Get(ctx, KeySessionSecret)
	if err != nil {
		return nil, err
	}
	if !ok {
		secret, err = common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if err := store.Set(ctx, KeySessionSecret, secret); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "generated session secret")
	}

	s.secret = []byte(secret)
	return s.secret, nil
}

func loadCredentials(ctx context.Context, store *kv.Store) ([]models.Credential, error) {
	var creds []models.Credential
	if _, err := store.GetJSON(ctx, KeyUsers, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func findCredential(creds []models.Credential, email string) (models.Credential, bool) {
	for _, c := range creds {
		if c.Email == email {
			return c, true
		}
	}
	return models.Credential{}, false
}

func (s *AccountService) newSession(email string, secret []byte) (*models.Session, error) {
	token, expiresAt, err := auth.GenerateToken(email, secret, s.sessionTTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &models.Session{
		User:      models.User{Email: email},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Register creates the account and signs it in. The credential list and the
// session are written in one transaction.
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.Session, error) {
	secret, err := s.sessionSecret(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var session *models.Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.store(tx)

		creds, err := loadCredentials(ctx, store)
		if err != nil {
			return err
		}
		if _, exists := findCredential(creds, email); exists {
			return common.ErrDuplicateAccount
		}

		creds = append(creds, models.Credential{
			Email:        email,
			PasswordHash: cryptox.HashPassword([]byte(password)),
		})
		if err := store.SetJSON(ctx, KeyUsers, creds); err != nil {
			return err
		}

		session, err = s.newSession(email, secret)
		if err != nil {
			return err
		}
		return store.SetJSON(ctx, KeyCurrentUser, session)
	})
	if err != nil {
		return nil, asPersistence(err)
	}

	s.log.Info(ctx, "account registered", "email", email)
	return session, nil
}

// Login signs in an existing account. Unknown emails and wrong passwords
// both yield common.ErrInvalidCredentials and leave the session untouched.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	secret, err := s.sessionSecret(ctx)
	if err != nil {
		return nil, err
	}

	store := s.store(s.db)
	creds, err := loadCredentials(ctx, store)
	if err != nil {
		return nil, err
	}

	cred, found := findCredential(creds, email)
	hash := cred.PasswordHash
	if !found {
		hash = dummyHash
	}

	ok, err := cryptox.VerifyPassword(hash, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: credential for %s: %v", common.ErrPersistence, email, err)
	}
	if !found || !ok {
		s.log.Info(ctx, "login rejected", "email", email)
		return nil, common.ErrInvalidCredentials
	}

	session, err := s.newSession(email, secret)
	if err != nil {
		return nil, err
	}
	if err := store.SetJSON(ctx, KeyCurrentUser, session); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "logged in", "email", email)
	return session, nil
}

// CurrentUser returns the persisted session, or nil when there is none.
// Undecodable, forged or expired session data counts as no session.
func (s *AccountService) CurrentUser(ctx context.Context) (*models.Session, error) {
	var session models.Session
	ok, err := s.store(s.db).GetJSON(ctx, KeyCurrentUser, &session)
	if kv.IsMalformed(err) {
		s.log.Warn(ctx, "discarding session", "error", fmt.Errorf("%w: %v", common.ErrMalformedSession, err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if _, err := s.verify(ctx, &session); err != nil {
		if errors.Is(err, common.ErrPersistence) {
			return nil, err
		}
		s.log.Warn(ctx, "discarding session", "error", fmt.Errorf("%w: %v", common.ErrMalformedSession, err))
		return nil, nil
	}
	return &session, nil
}

func (s *AccountService) verify(ctx context.Context, session *models.Session) (string, error) {
	if session.Email == "" || session.Token == "" {
		return "", common.ErrInvalidToken
	}
	if !session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt) {
		return "", common.ErrTokenExpired
	}
	email, err := s.Authenticate(ctx, session.Token)
	if err != nil {
		return "", err
	}
	if email != session.Email {
		return "", common.ErrInvalidToken
	}
	return email, nil
}

// Authenticate validates a session token and returns its email.
func (s *AccountService) Authenticate(ctx context.Context, token string) (string, error) {
	secret, err := s.sessionSecret(ctx)
	if err != nil {
		return "", err
	}
	return auth.ParseTokenAt(token, secret, s.now())
}

// Logout clears the session. It succeeds when no session exists.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.store(s.db).Remove(ctx, KeyCurrentUser); err != nil {
		return err
	}
	s.log.Info(ctx, "logged out")
	return nil
}

// SeedDemoAccounts stores the demo accounts when the directory is empty.
func (s *AccountService) SeedDemoAccounts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.store(tx)

		creds, err := loadCredentials(ctx, store)
		if err != nil {
			return err
		}
		if len(creds) > 0 {
			return nil
		}

		for _, email := range common.DemoAccountEmails {
			creds = append(creds, models.Credential{
				Email:        email,
				PasswordHash: cryptox.HashPassword([]byte(common.DemoAccountPassword)),
			})
		}
		seeded = true
		return store.SetJSON(ctx, KeyUsers, creds)
	})
	if err != nil {
		return asPersistence(err)
	}

	if seeded {
		s.log.Info(ctx, "seeded demo accounts", "count", len(common.DemoAccountEmails))
	}
	return nil
}
