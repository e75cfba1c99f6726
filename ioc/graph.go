package ioc

import (
	"context"

	"podsync/internal/app"
	"podsync/internal/loader"
	"podsync/internal/store"
	"podsync/internal/topology"
	"podsync/internal/vmhost"

	"go.uber.org/zap"
)

// InitGraph 构建 neo4j 写入器，未配置 uri 时返回 nil。
func InitGraph(ctx context.Context, cfg app.Config, logger *zap.Logger) (*loader.Graph, func(), error) {
	if !cfg.GraphEnabled() {
		logger.Info("neo4j uri not configured, topology projection disabled")
		return nil, func() {}, nil
	}
	client, err := loader.NewClient(ctx, loader.Config{
		URI:                  cfg.Neo4j.URI,
		Username:             cfg.Neo4j.Username,
		Password:             cfg.Neo4j.Password,
		Database:             cfg.Neo4j.Database,
		MaxConnectionPool:    cfg.Neo4j.MaxConnectionPool,
		ConnectionTimeoutSec: cfg.Neo4j.ConnectTimeoutSecond,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = client.Close(context.Background()) }
	return loader.NewGraph(client, cfg.Sync.BatchSize), cleanup, nil
}

// InitGraphAdmin 把可能为 nil 的 *loader.Graph 转成接口，避免带类型的 nil。
func InitGraphAdmin(g *loader.Graph) app.GraphAdmin {
	if g == nil {
		return nil
	}
	return g
}

// InitPublisher 构建同步后的图投影。
func InitPublisher(s store.Store, g *loader.Graph, logger *zap.Logger) vmhost.Publisher {
	if g == nil {
		return nil
	}
	return topology.NewProjector(s, g, logger)
}
