package ioc

import (
	"podsync/internal/agent"
	"podsync/internal/app"
	"podsync/internal/discovery"
	"podsync/internal/store"
	"podsync/internal/vmhost"

	"go.uber.org/zap"
)

// InitAgentConnector 构建访问机架 agent 的 HTTP 连接器。
func InitAgentConnector(cfg app.Config) *agent.Connector {
	return agent.NewConnector(agent.Config{
		Tokens:         agent.NewTokens(cfg.Sync.AgentToken, cfg.Sync.AgentTokens),
		AuthHeaderName: cfg.Sync.AuthHeader,
		Timeout:        cfg.Sync.AgentTimeout(),
		RetryAttempts:  cfg.Sync.Retry.Attempts,
		RetryBackoff:   cfg.Sync.Retry.Backoff(),
	})
}

func InitDiscoverer(conn *agent.Connector, cfg app.Config, logger *zap.Logger) *discovery.Discoverer {
	return discovery.NewDiscoverer(conn, cfg.Sync.ParallelWorkers, logger)
}

func InitAgentResolver(s store.Store, logger *zap.Logger) vmhost.AgentResolver {
	return vmhost.NewSubnetResolver(s, logger)
}

func InitSyncer(s store.Store, resolver vmhost.AgentResolver, d *discovery.Discoverer, publisher vmhost.Publisher, logger *zap.Logger) *vmhost.Syncer {
	return vmhost.NewSyncer(s, resolver, d, publisher, logger)
}

// InitAppService 构建 VM 宿主机同步服务。
func InitAppService(cfg app.Config, s store.Store, syncer *vmhost.Syncer, graph app.GraphAdmin, logger *zap.Logger) (*app.Service, error) {
	return app.NewService(cfg, s, syncer, graph, logger)
}
