package app

import (
	"context"
	"fmt"
	"time"

	"podsync/internal/store"
	"podsync/internal/store/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncAllFlow 刷新全部宿主机：独立宿主机逐台同步，集群只同步一个成员。
type SyncAllFlow struct {
	Store  store.Store
	Syncer HostSyncer
	Logger *zap.Logger
}

// SyncReport 汇总一次全量刷新的结果。
type SyncReport struct {
	Synced []uuid.UUID
	Failed map[uuid.UUID]error
}

func (r *SyncReport) Total() int {
	return len(r.Synced) + len(r.Failed)
}

func (f *SyncAllFlow) Run(ctx context.Context, actor string) (*SyncReport, error) {
	if f == nil || f.Store == nil || f.Syncer == nil {
		return nil, fmt.Errorf("sync flow 依赖未注入完整")
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hosts, err := f.Store.Host().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("读取宿主机列表失败: %w", err)
	}
	targets := refreshTargets(hosts)
	logger.Info("加载宿主机", zap.Int("hosts", len(hosts)), zap.Int("targets", len(targets)))

	report := &SyncReport{Failed: make(map[uuid.UUID]error)}
	start := time.Now()
	for i := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		host := targets[i]
		if _, err := f.Syncer.Sync(ctx, &host, actor); err != nil {
			report.Failed[host.ID] = err
			logger.Warn("refresh host failed", zap.String("host_id", host.ID.String()), zap.String("name", host.Name), zap.Error(err))
			continue
		}
		report.Synced = append(report.Synced, host.ID)
	}
	logger.Info("全量刷新完成",
		zap.Int("synced", len(report.Synced)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", time.Since(start)))
	return report, nil
}

// refreshTargets 集群成员中只保留第一个，一次发现会带回整个集群。
func refreshTargets(hosts []model.Host) []model.Host {
	seen := make(map[uuid.UUID]bool)
	res := make([]model.Host, 0, len(hosts))
	for _, h := range hosts {
		if h.ClusterID != nil {
			if seen[*h.ClusterID] {
				continue
			}
			seen[*h.ClusterID] = true
		}
		res = append(res, h)
	}
	return res
}
