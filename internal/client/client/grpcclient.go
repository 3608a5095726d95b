package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/services"
	"github.com/dmitrijs2005/dataportal/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ services.Portal = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu    sync.RWMutex
	token string
}

func withSessionToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.SessionTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) sessionTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := c.Token(); token != "" {
		ctx = withSessionToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient creates a client for endpointURL. Extra dial options are
// appended after the defaults (insecure transport, token interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.sessionTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Token returns the session token in use, "" when signed out.
func (c *GRPCClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *GRPCClient) setSession(s *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.token = ""
		return
	}
	c.token = s.Token
}

func mapError(err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.Unavailable {
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	}
	return wire.FromStatus(err)
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := wire.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, wire.FullMethod(method), in, out); err != nil {
		return mapError(err)
	}
	return wire.Decode(out, resp)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	var resp wire.PingResponse
	return c.invoke(ctx, wire.MethodPing, wire.Empty{}, &resp)
}

func (c *GRPCClient) Register(ctx context.Context, email, password string) (*models.Session, error) {
	var resp wire.SessionResponse
	if err := c.invoke(ctx, wire.MethodRegister, wire.CredentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.setSession(resp.Session)
	return resp.Session, nil
}

func (c *GRPCClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var resp wire.SessionResponse
	if err := c.invoke(ctx, wire.MethodLogin, wire.CredentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.setSession(resp.Session)
	return resp.Session, nil
}

// CurrentUser reports the session held by this client while the server
// still knows it. The server never returns tokens, so the one kept from
// Register or Login is filled in.
func (c *GRPCClient) CurrentUser(ctx context.Context) (*models.Session, error) {
	var resp wire.SessionResponse
	if err := c.invoke(ctx, wire.MethodCurrentUser, wire.Empty{}, &resp); err != nil {
		return nil, err
	}
	if resp.Session == nil {
		c.setSession(nil)
		return nil, nil
	}
	resp.Session.Token = c.Token()
	return resp.Session, nil
}

func (c *GRPCClient) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	var resp wire.Empty
	if err := c.invoke(ctx, wire.MethodLogout, wire.Empty{}, &resp); err != nil {
		return err
	}
	c.setSession(nil)
	return nil
}

func (c *GRPCClient) UserItems(ctx context.Context, email string) ([]models.WorkItem, error) {
	var resp wire.ItemsResponse
	if err := c.invoke(ctx, wire.MethodUserItems, wire.EmailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Items), nil
}

func (c *GRPCClient) AllItems(ctx context.Context) ([]models.WorkItem, error) {
	var resp wire.ItemsResponse
	if err := c.invoke(ctx, wire.MethodAllItems, wire.Empty{}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Items), nil
}

func (c *GRPCClient) RunQuery(ctx context.Context, query, email string) ([]models.WorkItem, error) {
	var resp wire.ItemsResponse
	if err := c.invoke(ctx, wire.MethodRunQuery, wire.QueryRequest{Query: query, Email: email}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Items), nil
}

func (c *GRPCClient) States(ctx context.Context, email string) (map[string]models.CheckboxState, error) {
	var resp wire.StatesResponse
	if err := c.invoke(ctx, wire.MethodStates, wire.EmailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	if resp.States == nil {
		resp.States = map[string]models.CheckboxState{}
	}
	return resp.States, nil
}

func (c *GRPCClient) SetState(ctx context.Context, email, itemID string, checked bool) (*models.CheckboxState, error) {
	var resp wire.StateResponse
	if err := c.invoke(ctx, wire.MethodSetState, wire.SetStateRequest{Email: email, ItemID: itemID, Checked: checked}, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *GRPCClient) Logs(ctx context.Context, email string) ([]models.AuditLogEntry, error) {
	var resp wire.LogsResponse
	if err := c.invoke(ctx, wire.MethodLogs, wire.EmailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Logs), nil
}

func (c *GRPCClient) AuditTrail(ctx context.Context, itemID string) ([]models.AuditLogEntry, error) {
	var resp wire.LogsResponse
	if err := c.invoke(ctx, wire.MethodAuditTrail, wire.ItemRequest{ItemID: itemID}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Logs), nil
}

func (c *GRPCClient) History(ctx context.Context, email, itemID string) ([]models.AuditEvent, error) {
	var resp wire.HistoryResponse
	if err := c.invoke(ctx, wire.MethodHistory, wire.HistoryRequest{Email: email, ItemID: itemID}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Events), nil
}

func (c *GRPCClient) Dashboard(ctx context.Context, email string) (*models.Dashboard, error) {
	var resp wire.DashboardResponse
	if err := c.invoke(ctx, wire.MethodDashboard, wire.EmailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return resp.Dashboard, nil
}

func (c *GRPCClient) ExportAudit(ctx context.Context, email string) (string, error) {
	var resp wire.ExportResponse
	if err := c.invoke(ctx, wire.MethodExportAudit, wire.EmailRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
