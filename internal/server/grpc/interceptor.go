package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/dmitrijs2005/dataportal/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type ctxKey string

const emailKey ctxKey = "email"

// publicMethods are callable without a session token.
var publicMethods = map[string]bool{
	wire.FullMethod(wire.MethodPing):     true,
	wire.FullMethod(wire.MethodRegister): true,
	wire.FullMethod(wire.MethodLogin):    true,
}

// optionalAuthMethods accept anonymous callers but resolve a token when one
// is sent.
var optionalAuthMethods = map[string]bool{
	wire.FullMethod(wire.MethodCurrentUser): true,
}

// EmailFromContext returns the email of the authenticated caller.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.SessionTokenHeaderName); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token := tokenFromMetadata(ctx)
	optional := optionalAuthMethods[info.FullMethod]
	if token == "" {
		if optional {
			return handler(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error()+": missing token")
	}

	email, err := s.tokens.Authenticate(ctx, token)
	if err != nil {
		if optional {
			return handler(ctx, req)
		}
		return nil, wire.ToStatus(err)
	}

	// a caller may only act on its own email
	if in, ok := req.(*structpb.Struct); ok {
		if v, ok := in.GetFields()["email"]; ok && v.GetStringValue() != "" && v.GetStringValue() != email {
			return nil, wire.ToStatus(common.ErrorUnauthorized)
		}
	}

	return handler(context.WithValue(ctx, emailKey, email), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "rpc failed", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
		return resp, err
	}
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "duration", time.Since(start))
	return resp, nil
}
