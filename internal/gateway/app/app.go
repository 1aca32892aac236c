package app

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"go.uber.org/zap"

	"medo/internal/flow"
	"medo/internal/gateway/config"
	"medo/internal/gateway/handler"
	"medo/internal/gateway/handler/rpc"
	"medo/internal/gateway/server"
	"medo/internal/llm"
)

type App struct {
	server   *server.Server
	registry *llm.Registry
	stores   *gatewayStores
	log      *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Dependencies
	reg, err := NewRegistry(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build model clients: %w", err)
	}
	svc, err := flow.NewServiceFromRegistry(reg, flow.WithLogger(log))
	if err != nil {
		_ = reg.Close()
		return nil, err
	}
	stores, err := initStores(ctx, cfg, log)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}

	flowHandler := rpc.NewFlowHandler(svc, stores.artifacts, stores.sessions, log)
	sessionHandler := rpc.NewSessionHandler(stores.sessions)
	assistantSocket := rpc.NewAssistantSocket(svc, stores.sessions, cfg.FlowTimeout, log)
	health := handler.HealthHandler{Name: "medo-gateway", Provider: cfg.LLMProvider}

	// Routing & Server
	mux := server.NewMux(flowHandler, sessionHandler, assistantSocket, health, log,
		connect.WithInterceptors(
			rpc.LoggingInterceptor(log),
			rpc.TimeoutInterceptor(cfg.FlowTimeout),
		),
	)
	srv := server.New(cfg.Port, mux, log)

	return &App{
		server:   srv,
		registry: reg,
		stores:   stores,
		log:      log,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.stores.Close(); cerr != nil {
		a.log.Warn("closing stores failed", zap.Error(cerr))
	}
	if cerr := a.registry.Close(); cerr != nil {
		a.log.Warn("closing model clients failed", zap.Error(cerr))
	}
	return err
}
