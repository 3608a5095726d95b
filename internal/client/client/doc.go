// Package client is the remote implementation of services.Portal.
//
// GRPCClient talks to the portal gateway over gRPC. It remembers the session
// token returned by Register and Login, attaches it to every
// call through a unary interceptor, and maps gRPC status codes back to the
// sentinel errors in internal/common. Transport failures are reported as
// ErrUnavailable.
//
// GRPCClient is safe for concurrent use.
package client
