package topology

import (
	"context"
	"fmt"
	"time"

	"podsync/internal/domain"
	"podsync/internal/store"
	"podsync/internal/store/model"

	"go.uber.org/zap"
)

var timeNow = time.Now

// Graph 是投影写入图数据库需要的能力，由 loader.Graph 实现。
type Graph interface {
	UpsertNodes(ctx context.Context, rows []domain.NodeRow) error
	UpsertRels(ctx context.Context, rows []domain.RelRow) error
	FixEdges(ctx context.Context, runID string) error
	Prune(ctx context.Context, scope, runID string) error
}

// Projector 在同步提交后把宿主机所在范围整体重写到图中。
type Projector struct {
	store  store.Store
	graph  Graph
	logger *zap.Logger
}

func NewProjector(s store.Store, g Graph, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{store: s, graph: g, logger: logger}
}

// Publish 集群成员按整个集群投影，独立宿主机只投影自身。
func (p *Projector) Publish(ctx context.Context, host *model.Host) error {
	snap, err := p.snapshot(ctx, host)
	if err != nil {
		return err
	}
	nodes, rels := BuildRows(*snap)

	if err := p.graph.UpsertNodes(ctx, nodes); err != nil {
		return err
	}
	if err := p.graph.UpsertRels(ctx, rels); err != nil {
		return err
	}
	if err := p.graph.FixEdges(ctx, snap.RunID); err != nil {
		return err
	}
	if err := p.graph.Prune(ctx, snap.Scope, snap.RunID); err != nil {
		return fmt.Errorf("清理过期节点失败 scope=%s: %w", snap.Scope, err)
	}
	p.logger.Debug("topology projected",
		zap.String("scope", snap.Scope),
		zap.String("run_id", snap.RunID),
		zap.Int("nodes", len(nodes)),
		zap.Int("rels", len(rels)))
	return nil
}

func (p *Projector) snapshot(ctx context.Context, host *model.Host) (*Snapshot, error) {
	agents, err := p.store.Agent().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取 agent 列表失败: %w", err)
	}
	snap := &Snapshot{
		RunID:  timeNow().UTC().Format("20060102T150405.000000000Z"),
		Agents: agents,
	}
	if host.ClusterID == nil {
		snap.Scope = domain.HostScope(host.ID)
		snap.Hosts = []model.Host{*host}
		return snap, nil
	}

	cluster, err := p.store.Cluster().Get(ctx, *host.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("读取集群 %s 失败: %w", host.ClusterID, err)
	}
	members, err := p.store.Host().List(ctx, store.NewHostQueryFilter().ByClusterID(cluster.ID))
	if err != nil {
		return nil, fmt.Errorf("读取集群成员失败: %w", err)
	}
	snap.Scope = domain.ClusterScope(cluster.ID)
	snap.Cluster = cluster
	snap.Hosts = members
	return snap, nil
}
