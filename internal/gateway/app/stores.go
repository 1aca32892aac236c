package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	sessioncache "medo/internal/cache/session"
	"medo/internal/gateway/config"
	"medo/internal/gateway/repository/artifact"
	"medo/internal/gateway/repository/session"
)

type gatewayStores struct {
	sessions  session.Store
	artifacts artifact.Store
	closers   []io.Closer
}

func (s *gatewayStores) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func initStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gatewayStores, error) {
	stores := &gatewayStores{}

	origin, err := openSessionStore(ctx, cfg, stores)
	if err != nil {
		return nil, err
	}
	stores.sessions = sessioncache.NewCachedStore(origin, sessioncache.CacheConfig{
		DocMaxEntries:  cfg.SessionCacheSize,
		ListMaxEntries: cfg.SessionCacheSize / 4,
	})
	log.Info("session store ready", zap.String("backend", cfg.SessionBackend), zap.Int("cache_size", cfg.SessionCacheSize))

	artifacts, err := chooseArtifactStore(cfg, log)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.artifacts = artifacts
	return stores, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, stores *gatewayStores) (session.Store, error) {
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "file":
		return session.NewFileStore(cfg.SessionFile), nil
	case "postgres":
		s, err := session.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open session db: %w", err)
		}
		stores.closers = append(stores.closers, s)
		return s, nil
	case "sqlite":
		s, err := session.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session db: %w", err)
		}
		stores.closers = append(stores.closers, s)
		return s, nil
	case "redis":
		s, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open session redis: %w", err)
		}
		stores.closers = append(stores.closers, s)
		return s, nil
	}
	return nil, fmt.Errorf("unsupported session backend %q", cfg.SessionBackend)
}

func chooseArtifactStore(cfg *config.Config, log *zap.Logger) (artifact.Store, error) {
	a := cfg.Artifact()
	if !a.CanUseS3() {
		log.Info("artifact store: in-memory (s3 config incomplete)")
		return artifact.NewMemoryStore(), nil
	}
	s3, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  a.Endpoint,
		Region:    a.Region,
		AccessKey: a.AccessKey,
		SecretKey: a.SecretKey,
		Bucket:    a.Bucket,
		UseSSL:    a.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
	}
	log.Info("artifact store: s3", zap.String("bucket", a.Bucket), zap.String("endpoint", a.Endpoint))
	return s3, nil
}
