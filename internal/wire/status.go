package wire

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type sentinel struct {
	err  error
	code codes.Code
}

// sentinels is ordered: the first match wins when an error wraps several.
var sentinels = []sentinel{
	{common.ErrDuplicateAccount, codes.AlreadyExists},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrorUnauthorized, codes.PermissionDenied},
	{common.ErrEmptyFields, codes.InvalidArgument},
	{common.ErrPasswordTooShort, codes.InvalidArgument},
	{common.ErrPasswordMismatch, codes.InvalidArgument},
	{common.ErrExportDisabled, codes.FailedPrecondition},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrPersistence, codes.Internal},
	{common.ErrorInternal, codes.Internal},
}

// ToStatus converts a service error into a gRPC status whose message is the
// sentinel text, so FromStatus can restore it on the client.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return status.Error(s.code, s.err.Error())
		}
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

// FromStatus restores the sentinel carried by a gRPC error. Errors without a
// known sentinel are returned wrapped with common.ErrorInternal, except for
// transport failures, which are returned unchanged.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	for _, s := range sentinels {
		if msg == s.err.Error() || strings.HasPrefix(msg, s.err.Error()+":") {
			return s.err
		}
	}
	switch st.Code() {
	case codes.Canceled:
		return fmt.Errorf("%w: %s", context.Canceled, msg)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", context.DeadlineExceeded, msg)
	case codes.Unavailable:
		return err
	}
	return fmt.Errorf("%w: %s", common.ErrorInternal, msg)
}
