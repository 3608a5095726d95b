package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/dataportal/internal/client/client"
	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/services"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

type App struct {
	config *config.Config
	logger logging.Logger
	portal services.Portal
	closer io.Closer
	Mode   Mode

	session *models.Session
	items   []models.WorkItem
	states  map[string]models.CheckboxState
	filter  models.ItemFilter

	reader *bufio.Reader
	out    io.Writer
}

// NewApp connects to the gateway at c.ServerEndpointAddr, or opens the local
// store when no address is set.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, c.LogLevel, false)

	a := &App{
		config: c,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if c.ServerEndpointAddr != "" {
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr)
		if err != nil {
			return nil, err
		}
		a.portal, a.closer, a.Mode = gc, gc, ModeRemote
		return a, nil
	}

	stack, err := services.Open(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	a.portal, a.closer, a.Mode = stack.Portal, stack, ModeLocal
	return a, nil
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.closer != nil {
			_ = a.closer.Close()
		}
	}()

	fmt.Fprintf(a.out, "Data portal (%s mode), type 'help' for commands\n", a.Mode)
	if err := a.restoreSession(ctx); err != nil {
		a.notify(err)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.Email)
}

// notify prints err as a one-line message.
func (a *App) notify(err error) {
	fmt.Fprintf(a.out, "Error: %v\n", err)
}
