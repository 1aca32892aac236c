package rpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"medo/internal/flow"
	"medo/internal/gateway/repository/session"
)

// toConnectError maps domain failures onto connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, session.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrInvalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	if kind, ok := flow.KindOf(err); ok {
		ce := connect.NewError(codeForKind(kind), err)
		ce.Meta().Set("Medo-Error-Kind", string(kind))
		return ce
	}
	return connect.NewError(connect.CodeInternal, err)
}

func codeForKind(kind flow.ErrorKind) connect.Code {
	switch kind {
	case flow.KindInvalidInput:
		return connect.CodeInvalidArgument
	case flow.KindModelCallFailed:
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

// wireCode is the lowercase code name used in websocket error frames.
func wireCode(err error) string {
	return connect.CodeOf(toConnectError(err)).String()
}
