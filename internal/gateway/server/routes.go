package server

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"go.uber.org/zap"

	"medo/internal/gateway/handler"
	"medo/internal/gateway/handler/rpc"
	"medo/internal/gateway/middleware"
)

func NewMux(
	flowHandler *rpc.FlowHandler,
	sessionHandler *rpc.SessionHandler,
	assistantSocket *rpc.AssistantSocket,
	health handler.HealthHandler,
	log *zap.Logger,
	opts ...connect.HandlerOption,
) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	// RPC Handlers
	flowHandler.Register(mux, opts...)
	sessionHandler.Register(mux, opts...)

	// Streaming & Probes
	mux.Handle("/ws/assistant", assistantSocket)
	mux.Handle("/healthz", health)

	// Middleware
	recoverMW := middleware.Recover(func(v any) {
		log.Error("handler panic", zap.String("panic", fmt.Sprint(v)))
	})
	return recoverMW(middleware.CORS(mux))
}
