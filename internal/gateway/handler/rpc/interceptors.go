package rpc

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"go.uber.org/zap"
)

// TimeoutInterceptor bounds every unary call. Zero disables it.
func TimeoutInterceptor(d time.Duration) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if d <= 0 {
				return next(ctx, req)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}

// LoggingInterceptor logs one line per call with its procedure, latency and
// resulting code.
func LoggingInterceptor(log *zap.Logger) connect.UnaryInterceptorFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("rpc")
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			fields := []zap.Field{
				zap.String("procedure", req.Spec().Procedure),
				zap.Duration("latency", time.Since(start)),
			}
			if err != nil {
				fields = append(fields,
					zap.String("code", connect.CodeOf(err).String()),
					zap.String("kind", errorKind(err)),
					zap.Error(err),
				)
				log.Warn("rpc failed", fields...)
				return res, err
			}
			log.Info("rpc", fields...)
			return res, nil
		}
	}
}

func errorKind(err error) string {
	var ce *connect.Error
	if errors.As(err, &ce) {
		if k := ce.Meta().Get("Medo-Error-Kind"); k != "" {
			return k
		}
	}
	return ""
}
