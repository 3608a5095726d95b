package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
	servergrpc "github.com/dmitrijs2005/dataportal/internal/server/grpc"
	"github.com/dmitrijs2005/dataportal/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func newBufClient(t *testing.T) *GRPCClient {
	t.Helper()
	return dialBuf(t, startBufServer(t))
}

func dialBuf(t *testing.T, lis *bufconn.Listener) *GRPCClient {
	t.Helper()
	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func startBufServer(t *testing.T) *bufconn.Listener {
	t.Helper()
	ctx := context.Background()

	db, m, err := repomanager.Open(ctx, repomanager.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var cfg config.Config
	cfg.LoadDefaults()
	cfg.SessionSecret = "test-secret"
	cfg.SessionTTL = time.Hour

	accounts := services.NewAccountService(db, m, &cfg, logging.Nop())
	require.NoError(t, accounts.SeedDemoAccounts(ctx))
	portal := services.NewPortal(
		accounts,
		services.NewCatalogService(db, m, logging.Nop()),
		services.NewCheckboxService(db, m, logging.Nop()),
		logging.Nop(),
	)

	lis := bufconn.Listen(1 << 20)
	srv := servergrpc.NewGRPCServer("bufnet", logging.Nop(), portal, accounts).NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis
}

func TestGRPCClient_Ping(t *testing.T) {
	c := newBufClient(t)
	require.NoError(t, c.Ping(context.Background()))
}

func TestGRPCClient_RequiresSession(t *testing.T) {
	c := newBufClient(t)

	_, err := c.UserItems(context.Background(), "john@company.com")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGRPCClient_LoginFlow(t *testing.T) {
	ctx := context.Background()
	c := newBufClient(t)

	_, err := c.Login(ctx, "john@company.com", "wrong-password")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, c.Token())

	session, err := c.Login(ctx, "john@company.com", common.DemoAccountPassword)
	require.NoError(t, err)
	assert.Equal(t, "john@company.com", session.Email)
	assert.Equal(t, session.Token, c.Token())

	items, err := c.UserItems(ctx, "john@company.com")
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "john_1", items[0].ID)

	state, err := c.SetState(ctx, "john@company.com", "john_2", true)
	require.NoError(t, err)
	assert.True(t, state.Checked)

	states, err := c.States(ctx, "john@company.com")
	require.NoError(t, err)
	assert.True(t, states["john_2"].Checked)

	logs, err := c.Logs(ctx, "john@company.com")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "john_2", logs[0].ItemID)

	events, err := c.History(ctx, "john@company.com", "john_2")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	d, err := c.Dashboard(ctx, "john@company.com")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Stats.Total)
	assert.Equal(t, 1, d.Stats.Completed)
	assert.Equal(t, 20, d.Stats.CompletionRate)

	current, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "john@company.com", current.Email)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())

	current, err = c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestGRPCClient_ForeignEmailDenied(t *testing.T) {
	ctx := context.Background()
	c := newBufClient(t)

	_, err := c.Login(ctx, "john@company.com", common.DemoAccountPassword)
	require.NoError(t, err)

	_, err = c.UserItems(ctx, "sarah@company.com")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = c.SetState(ctx, "sarah@company.com", "sarah_1", true)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGRPCClient_RegisterErrors(t *testing.T) {
	ctx := context.Background()
	c := newBufClient(t)

	_, err := c.Register(ctx, "john@company.com", "whatever1")
	require.ErrorIs(t, err, common.ErrDuplicateAccount)

	_, err = c.Register(ctx, "new@company.com", "123")
	require.ErrorIs(t, err, common.ErrPasswordTooShort)

	session, err := c.Register(ctx, "new@company.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "new@company.com", session.Email)

	items, err := c.UserItems(ctx, "new@company.com")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGRPCClient_ExportDisabled(t *testing.T) {
	ctx := context.Background()
	c := newBufClient(t)

	_, err := c.Login(ctx, "mike@company.com", common.DemoAccountPassword)
	require.NoError(t, err)

	_, err = c.ExportAudit(ctx, "mike@company.com")
	require.ErrorIs(t, err, common.ErrExportDisabled)
}

func TestGRPCClient_Unavailable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())

	c, err := NewGRPCClient("passthrough:///closed",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = c.Ping(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGRPCClient_SessionIsNotSharedBetweenClients(t *testing.T) {
	ctx := context.Background()
	lis := startBufServer(t)
	john := dialBuf(t, lis)
	other := dialBuf(t, lis)

	session, err := john.Login(ctx, "john@company.com", common.DemoAccountPassword)
	require.NoError(t, err)

	current, err := other.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Empty(t, other.Token())

	require.NoError(t, other.Logout(ctx))

	current, err = john.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "john@company.com", current.Email)
	assert.Equal(t, session.Token, current.Token)
}
