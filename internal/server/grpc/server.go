// Package grpc exposes the portal over gRPC using the contract in
// internal/wire.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/dataportal/internal/logging"
	"github.com/dmitrijs2005/dataportal/internal/services"
	"google.golang.org/grpc"
)

// TokenVerifier resolves a session token to the email it was issued for.
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type GRPCServer struct {
	address string
	portal  services.Portal
	tokens  TokenVerifier
	logger  logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, portal services.Portal, tokens TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		portal:  portal,
		tokens:  tokens,
	}
}

// Portal returns the service behind the gateway.
func (s *GRPCServer) Portal() services.Portal {
	return s.portal
}

// NewServer builds a grpc.Server with the interceptors installed and the
// portal service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.sessionInterceptor))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

// Run serves on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
