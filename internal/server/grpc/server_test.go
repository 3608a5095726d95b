package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/config"
	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/dataportal/internal/services"
	"github.com/dmitrijs2005/dataportal/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type harness struct {
	conn     *grpc.ClientConn
	accounts *services.AccountService
}

func newHarness(t *testing.T) *harness {
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

	s := NewGRPCServer("bufnet", logging.Nop(), portal, accounts)
	require.Equal(t, services.Portal(portal), s.Portal())

	lis := bufconn.Listen(1 << 20)
	srv := s.NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{conn: conn, accounts: accounts}
}

func (h *harness) call(ctx context.Context, method string, req, resp any) error {
	in, err := wire.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := h.conn.Invoke(ctx, wire.FullMethod(method), in, out); err != nil {
		return err
	}
	return wire.Decode(out, resp)
}

func (h *harness) login(t *testing.T, email string) context.Context {
	t.Helper()
	var resp wire.SessionResponse
	err := h.call(context.Background(), wire.MethodLogin,
		wire.CredentialsRequest{Email: email, Password: common.DemoAccountPassword}, &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	return metadata.AppendToOutgoingContext(context.Background(), common.SessionTokenHeaderName, resp.Session.Token)
}

func TestServiceDesc_CoversAllMethods(t *testing.T) {
	names := map[string]bool{}
	for _, m := range ServiceDesc.Methods {
		names[m.MethodName] = true
	}
	for _, m := range []string{
		wire.MethodPing, wire.MethodRegister, wire.MethodLogin, wire.MethodCurrentUser,
		wire.MethodLogout, wire.MethodUserItems, wire.MethodAllItems, wire.MethodRunQuery,
		wire.MethodStates, wire.MethodSetState, wire.MethodLogs, wire.MethodAuditTrail,
		wire.MethodHistory, wire.MethodDashboard, wire.MethodExportAudit,
	} {
		assert.True(t, names[m], m)
	}
	assert.Equal(t, wire.ServiceName, ServiceDesc.ServiceName)
}

func TestSessionInterceptor_PublicMethods(t *testing.T) {
	h := newHarness(t)

	var ping wire.PingResponse
	require.NoError(t, h.call(context.Background(), wire.MethodPing, wire.Empty{}, &ping))
	assert.Equal(t, "OK", ping.Status)

	var session wire.SessionResponse
	require.NoError(t, h.call(context.Background(), wire.MethodCurrentUser, wire.Empty{}, &session))
	assert.Nil(t, session.Session)
}

func TestSessionInterceptor_MissingToken(t *testing.T) {
	h := newHarness(t)

	var resp wire.ItemsResponse
	err := h.call(context.Background(), wire.MethodAllItems, wire.Empty{}, &resp)
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.ErrorIs(t, wire.FromStatus(err), common.ErrInvalidToken)
}

func TestSessionInterceptor_ForgedToken(t *testing.T) {
	h := newHarness(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.SessionTokenHeaderName, "not-a-token")

	var resp wire.ItemsResponse
	err := h.call(ctx, wire.MethodUserItems, wire.EmailRequest{Email: "john@company.com"}, &resp)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestSessionInterceptor_ForeignEmail(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, "john@company.com")

	var resp wire.StatesResponse
	err := h.call(ctx, wire.MethodStates, wire.EmailRequest{Email: "sarah@company.com"}, &resp)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.ErrorIs(t, wire.FromStatus(err), common.ErrorUnauthorized)
}

func TestHandlers_ValidateCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var resp wire.SessionResponse
	err := h.call(ctx, wire.MethodLogin, wire.CredentialsRequest{Email: "", Password: "x"}, &resp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.ErrorIs(t, wire.FromStatus(err), common.ErrEmptyFields)

	err = h.call(ctx, wire.MethodRegister, wire.CredentialsRequest{Email: "a@b.c", Password: "12345"}, &resp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.ErrorIs(t, wire.FromStatus(err), common.ErrPasswordTooShort)

	err = h.call(ctx, wire.MethodRegister, wire.CredentialsRequest{Email: "sarah@company.com", Password: "123456"}, &resp)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestHandlers_CatalogAndCheckboxes(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, "sarah@company.com")

	var all wire.ItemsResponse
	require.NoError(t, h.call(ctx, wire.MethodAllItems, wire.Empty{}, &all))
	assert.Len(t, all.Items, 15)

	var query wire.ItemsResponse
	require.NoError(t, h.call(ctx, wire.MethodRunQuery,
		wire.QueryRequest{Query: "SELECT * FROM items", Email: "sarah@company.com"}, &query))
	require.Len(t, query.Items, 5)
	for _, it := range query.Items {
		assert.Equal(t, "sarah@company.com", it.OwnerEmail)
	}

	var state wire.StateResponse
	require.NoError(t, h.call(ctx, wire.MethodSetState,
		wire.SetStateRequest{Email: "sarah@company.com", ItemID: "sarah_3", Checked: true}, &state))
	require.NotNil(t, state.State)
	assert.Equal(t, "sarah_3", state.State.ItemID)

	require.NoError(t, h.call(ctx, wire.MethodSetState,
		wire.SetStateRequest{Email: "sarah@company.com", ItemID: "sarah_3", Checked: false}, &state))

	var trail wire.LogsResponse
	require.NoError(t, h.call(ctx, wire.MethodAuditTrail, wire.ItemRequest{ItemID: "sarah_3"}, &trail))
	require.Len(t, trail.Logs, 1)
	assert.False(t, trail.Logs[0].Checked)

	var history wire.HistoryResponse
	require.NoError(t, h.call(ctx, wire.MethodHistory,
		wire.HistoryRequest{Email: "sarah@company.com", ItemID: "sarah_3"}, &history))
	assert.Len(t, history.Events, 2)

	var dash wire.DashboardResponse
	require.NoError(t, h.call(ctx, wire.MethodDashboard, wire.EmailRequest{Email: "sarah@company.com"}, &dash))
	require.NotNil(t, dash.Dashboard)
	assert.Equal(t, 0, dash.Dashboard.Stats.Completed)
}

func TestHandlers_EmailFromContext(t *testing.T) {
	_, ok := EmailFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), emailKey, "john@company.com")
	email, ok := EmailFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "john@company.com", email)
}

func TestHandlers_HistoryScopedToCaller(t *testing.T) {
	h := newHarness(t)

	sarah := h.login(t, "sarah@company.com")
	var state wire.StateResponse
	require.NoError(t, h.call(sarah, wire.MethodSetState,
		wire.SetStateRequest{Email: "sarah@company.com", ItemID: "sarah_1", Checked: true}, &state))

	john := h.login(t, "john@company.com")
	var history wire.HistoryResponse
	require.NoError(t, h.call(john, wire.MethodHistory, wire.HistoryRequest{}, &history))
	assert.Empty(t, history.Events)
}

func TestCurrentUser_NeverExposesToken(t *testing.T) {
	h := newHarness(t)
	john := h.login(t, "john@company.com")

	var anon wire.SessionResponse
	require.NoError(t, h.call(context.Background(), wire.MethodCurrentUser, wire.Empty{}, &anon))
	assert.Nil(t, anon.Session)

	forged := metadata.AppendToOutgoingContext(context.Background(), common.SessionTokenHeaderName, "not-a-token")
	var bad wire.SessionResponse
	require.NoError(t, h.call(forged, wire.MethodCurrentUser, wire.Empty{}, &bad))
	assert.Nil(t, bad.Session)

	var own wire.SessionResponse
	require.NoError(t, h.call(john, wire.MethodCurrentUser, wire.Empty{}, &own))
	require.NotNil(t, own.Session)
	assert.Equal(t, "john@company.com", own.Session.Email)
	assert.Empty(t, own.Session.Token)
}

func TestCurrentUser_OtherUsersSessionHidden(t *testing.T) {
	h := newHarness(t)
	sarah := h.login(t, "sarah@company.com")
	h.login(t, "john@company.com")

	var resp wire.SessionResponse
	require.NoError(t, h.call(sarah, wire.MethodCurrentUser, wire.Empty{}, &resp))
	assert.Nil(t, resp.Session)
}

func TestLogout_RequiresOwnSession(t *testing.T) {
	h := newHarness(t)
	sarah := h.login(t, "sarah@company.com")
	john := h.login(t, "john@company.com")

	var empty wire.Empty
	err := h.call(context.Background(), wire.MethodLogout, wire.Empty{}, &empty)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	require.NoError(t, h.call(sarah, wire.MethodLogout, wire.Empty{}, &empty))
	current, err := h.accounts.CurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "john@company.com", current.Email)

	require.NoError(t, h.call(john, wire.MethodLogout, wire.Empty{}, &empty))
	current, err = h.accounts.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestHandlers_LogsAndTrailScopedToCaller(t *testing.T) {
	h := newHarness(t)

	sarah := h.login(t, "sarah@company.com")
	var state wire.StateResponse
	require.NoError(t, h.call(sarah, wire.MethodSetState,
		wire.SetStateRequest{Email: "sarah@company.com", ItemID: "sarah_2", Checked: true}, &state))

	john := h.login(t, "john@company.com")

	var logs wire.LogsResponse
	require.NoError(t, h.call(john, wire.MethodLogs, wire.EmailRequest{}, &logs))
	assert.Empty(t, logs.Logs)

	var trail wire.LogsResponse
	require.NoError(t, h.call(john, wire.MethodAuditTrail, wire.ItemRequest{ItemID: "sarah_2"}, &trail))
	assert.Empty(t, trail.Logs)

	require.NoError(t, h.call(sarah, wire.MethodAuditTrail, wire.ItemRequest{ItemID: "sarah_2"}, &trail))
	require.Len(t, trail.Logs, 1)
	assert.Equal(t, "sarah@company.com", trail.Logs[0].OwnerEmail)
}
