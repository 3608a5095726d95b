package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials(confirm bool) (email, password, confirmation string, err error) {
	email, err = getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", "", err
	}

	pw, err := getPassword(a.out, "Enter password")
	if err != nil {
		return "", "", "", err
	}
	defer common.WipeByteArray(pw)
	password = string(pw)

	if confirm {
		cpw, err := getPassword(a.out, "Confirm password")
		if err != nil {
			return "", "", "", err
		}
		defer common.WipeByteArray(cpw)
		confirmation = string(cpw)
	}
	return email, password, confirmation, nil
}

// Register prompts for an email and a confirmed password, validates them
// locally and creates the account. The new account is signed in.
func (a *App) Register(ctx context.Context) error {
	email, password, confirm, err := a.readCredentials(true)
	if err != nil {
		return err
	}
	if err := services.ValidateRegistration(email, password, confirm); err != nil {
		return err
	}

	session, err := a.portal.Register(ctx, email, password)
	if err != nil {
		return err
	}
	return a.startSession(ctx, session)
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, password, _, err := a.readCredentials(false)
	if err != nil {
		return err
	}
	if err := services.ValidateLogin(email, password); err != nil {
		return err
	}

	session, err := a.portal.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return a.startSession(ctx, session)
}

// Logout ends the session and drops the cached view.
func (a *App) Logout(ctx context.Context) error {
	if err := a.portal.Logout(ctx); err != nil {
		return err
	}
	a.clearSession()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	session, err := a.portal.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		a.clearSession()
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (session expires %s)\n", session.Email, session.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

// restoreSession picks up a session persisted by an earlier run.
func (a *App) restoreSession(ctx context.Context) error {
	session, err := a.portal.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return a.startSession(ctx, session)
}

func (a *App) startSession(ctx context.Context, session *models.Session) error {
	a.session = session
	a.filter = models.ItemFilter{}
	fmt.Fprintf(a.out, "Welcome, %s\n", session.Email)
	return a.reload(ctx)
}

func (a *App) clearSession() {
	a.session = nil
	a.items = nil
	a.states = nil
	a.filter = models.ItemFilter{}
}

// reload fetches the signed-in user's items and checkbox states.
func (a *App) reload(ctx context.Context) error {
	d, err := a.portal.Dashboard(ctx, a.session.Email)
	if err != nil {
		return err
	}
	a.items = d.Items
	a.states = d.States
	if a.states == nil {
		a.states = map[string]models.CheckboxState{}
	}
	return nil
}
