package app

import (
	"context"
	"fmt"

	"podsync/internal/store"

	"go.uber.org/zap"
)

// ValidateFlow 做一致性检查：空集群、宿主机引用的集群是否存在、图与关系库的数量是否一致。
type ValidateFlow struct {
	Store  store.Store
	Graph  GraphAdmin
	Logger *zap.Logger
}

func (f *ValidateFlow) Run(ctx context.Context) error {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clusters, err := f.Store.Cluster().List(ctx)
	if err != nil {
		return err
	}
	hosts, err := f.Store.Host().List(ctx, nil)
	if err != nil {
		return err
	}

	members := make(map[string]int, len(clusters))
	for _, h := range hosts {
		if h.ClusterID != nil {
			members[h.ClusterID.String()]++
		}
	}
	known := make(map[string]bool, len(clusters))
	for _, c := range clusters {
		known[c.ID.String()] = true
		if members[c.ID.String()] == 0 {
			logger.Warn("cluster has no member hosts", zap.String("cluster", c.Name), zap.String("project", c.Project))
		}
	}
	for id := range members {
		if !known[id] {
			return fmt.Errorf("宿主机引用了不存在的集群 %s", id)
		}
	}

	if f.Graph == nil {
		logger.Info("neo4j 未配置，跳过图一致性检查")
		return nil
	}
	graphHosts, err := f.Graph.CountHosts(ctx)
	if err != nil {
		return fmt.Errorf("读取图中宿主机数量失败: %w", err)
	}
	if graphHosts != int64(len(hosts)) {
		return fmt.Errorf("%w: store=%d graph=%d", ErrGraphMismatch, len(hosts), graphHosts)
	}
	logger.Info("校验通过", zap.Int("hosts", len(hosts)), zap.Int("clusters", len(clusters)))
	return nil
}
