package grpc

import (
	"context"

	"github.com/dmitrijs2005/dataportal/internal/models"
	"github.com/dmitrijs2005/dataportal/internal/services"
	"github.com/dmitrijs2005/dataportal/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// PortalServer is the handler type of ServiceDesc.
type PortalServer interface {
	Portal() services.Portal
}

type methodFunc func(s *GRPCServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// unary adapts a typed handler to the Struct messages on the wire.
func unary[Req, Resp any](fn func(s *GRPCServer, ctx context.Context, req Req) (Resp, error)) methodFunc {
	return func(s *GRPCServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		var req Req
		if err := wire.Decode(in, &req); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		resp, err := fn(s, ctx, req)
		if err != nil {
			return nil, wire.ToStatus(err)
		}

		out, err := wire.Encode(resp)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return out, nil
	}
}

var methods = map[string]methodFunc{
	wire.MethodPing: unary(func(s *GRPCServer, ctx context.Context, _ wire.Empty) (wire.PingResponse, error) {
		return wire.PingResponse{Status: "OK"}, nil
	}),
	wire.MethodRegister: unary(func(s *GRPCServer, ctx context.Context, req wire.CredentialsRequest) (wire.SessionResponse, error) {
		if err := services.ValidateRegistration(req.Email, req.Password, req.Password); err != nil {
			return wire.SessionResponse{}, err
		}
		session, err := s.portal.Register(ctx, req.Email, req.Password)
		return wire.SessionResponse{Session: session}, err
	}),
	wire.MethodLogin: unary(func(s *GRPCServer, ctx context.Context, req wire.CredentialsRequest) (wire.SessionResponse, error) {
		if err := services.ValidateLogin(req.Email, req.Password); err != nil {
			return wire.SessionResponse{}, err
		}
		session, err := s.portal.Login(ctx, req.Email, req.Password)
		return wire.SessionResponse{Session: session}, err
	}),
	wire.MethodCurrentUser: unary(func(s *GRPCServer, ctx context.Context, _ wire.Empty) (wire.SessionResponse, error) {
		// only the caller's own session is reported, and never its token
		email, ok := EmailFromContext(ctx)
		if !ok {
			return wire.SessionResponse{}, nil
		}
		session, err := s.portal.CurrentUser(ctx)
		if err != nil || session == nil || session.Email != email {
			return wire.SessionResponse{}, err
		}
		session.Token = ""
		return wire.SessionResponse{Session: session}, nil
	}),
	wire.MethodLogout: unary(func(s *GRPCServer, ctx context.Context, _ wire.Empty) (wire.Empty, error) {
		email, _ := EmailFromContext(ctx)
		session, err := s.portal.CurrentUser(ctx)
		if err != nil {
			return wire.Empty{}, err
		}
		// another user's session is left alone
		if session == nil || session.Email != email {
			return wire.Empty{}, nil
		}
		return wire.Empty{}, s.portal.Logout(ctx)
	}),
	wire.MethodUserItems: unary(func(s *GRPCServer, ctx context.Context, req wire.EmailRequest) (wire.ItemsResponse, error) {
		items, err := s.portal.UserItems(ctx, req.Email)
		return wire.ItemsResponse{Items: items}, err
	}),
	wire.MethodAllItems: unary(func(s *GRPCServer, ctx context.Context, _ wire.Empty) (wire.ItemsResponse, error) {
		items, err := s.portal.AllItems(ctx)
		return wire.ItemsResponse{Items: items}, err
	}),
	wire.MethodRunQuery: unary(func(s *GRPCServer, ctx context.Context, req wire.QueryRequest) (wire.ItemsResponse, error) {
		items, err := s.portal.RunQuery(ctx, req.Query, req.Email)
		return wire.ItemsResponse{Items: items}, err
	}),
	wire.MethodStates: unary(func(s *GRPCServer, ctx context.Context, req wire.EmailRequest) (wire.StatesResponse, error) {
		states, err := s.portal.States(ctx, req.Email)
		return wire.StatesResponse{States: states}, err
	}),
	wire.MethodSetState: unary(func(s *GRPCServer, ctx context.Context, req wire.SetStateRequest) (wire.StateResponse, error) {
		state, err := s.portal.SetState(ctx, req.Email, req.ItemID, req.Checked)
		return wire.StateResponse{State: state}, err
	}),
	wire.MethodLogs: unary(func(s *GRPCServer, ctx context.Context, req wire.EmailRequest) (wire.LogsResponse, error) {
		if email, ok := EmailFromContext(ctx); ok && req.Email == "" {
			req.Email = email
		}
		logs, err := s.portal.Logs(ctx, req.Email)
		return wire.LogsResponse{Logs: logs}, err
	}),
	wire.MethodAuditTrail: unary(func(s *GRPCServer, ctx context.Context, req wire.ItemRequest) (wire.LogsResponse, error) {
		logs, err := s.portal.AuditTrail(ctx, req.ItemID)
		if err != nil {
			return wire.LogsResponse{}, err
		}
		email, _ := EmailFromContext(ctx)
		own := make([]models.AuditLogEntry, 0, len(logs))
		for _, e := range logs {
			if e.OwnerEmail == email {
				own = append(own, e)
			}
		}
		return wire.LogsResponse{Logs: own}, nil
	}),
	wire.MethodHistory: unary(func(s *GRPCServer, ctx context.Context, req wire.HistoryRequest) (wire.HistoryResponse, error) {
		// remote callers only see their own history
		if email, ok := EmailFromContext(ctx); ok && req.Email == "" {
			req.Email = email
		}
		events, err := s.portal.History(ctx, req.Email, req.ItemID)
		return wire.HistoryResponse{Events: events}, err
	}),
	wire.MethodDashboard: unary(func(s *GRPCServer, ctx context.Context, req wire.EmailRequest) (wire.DashboardResponse, error) {
		d, err := s.portal.Dashboard(ctx, req.Email)
		return wire.DashboardResponse{Dashboard: d}, err
	}),
	wire.MethodExportAudit: unary(func(s *GRPCServer, ctx context.Context, req wire.EmailRequest) (wire.ExportResponse, error) {
		key, err := s.portal.ExportAudit(ctx, req.Email)
		return wire.ExportResponse{Key: key}, err
	}),
}

func methodDesc(name string, fn methodFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*GRPCServer)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

func buildServiceDesc() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: wire.ServiceName,
		HandlerType: (*PortalServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "dataportal/v1/portal",
	}
	for name, fn := range methods {
		desc.Methods = append(desc.Methods, methodDesc(name, fn))
	}
	return desc
}

// ServiceDesc describes dataportal.v1.Portal.
var ServiceDesc = buildServiceDesc()
