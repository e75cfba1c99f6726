package vmhost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podsync/internal/discovery"
	"podsync/internal/metrics"
	"podsync/internal/store"
	"podsync/internal/store/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher 在同步事务提交后接收更新后的宿主机。
type Publisher interface {
	Publish(ctx context.Context, host *model.Host) error
}

// SyncResult 是 SyncAsync 的返回值。
type SyncResult struct {
	Host *model.Host
	Err  error
}

// Syncer 负责一次完整的宿主机同步：解析 agent、并发发现、事务内对账。
type Syncer struct {
	store      store.Store
	resolver   AgentResolver
	discoverer *discovery.Discoverer
	reconciler *Reconciler
	publisher  Publisher
	logger     *zap.Logger
}

// NewSyncer publisher 可以为 nil。
func NewSyncer(s store.Store, resolver AgentResolver, discoverer *discovery.Discoverer, publisher Publisher, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		store:      s,
		resolver:   resolver,
		discoverer: discoverer,
		reconciler: NewReconciler(s, logger),
		publisher:  publisher,
		logger:     logger,
	}
}

// Sync 同步目标宿主机并返回更新后的实体。
func (s *Syncer) Sync(ctx context.Context, target *model.Host, actor string) (host *model.Host, err error) {
	start := time.Now()
	defer func() {
		metrics.SyncDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.SyncErrors.Inc()
			s.logger.Warn("同步宿主机失败", zap.String("host_id", target.ID.String()), zap.String("actor", actor), zap.Error(err))
		}
	}()

	agents, err := s.resolver.ResolveAgents(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("解析 agent 失败: %w", err)
	}
	if len(agents) == 0 {
		return nil, NewErrDiscoveryExhausted(ErrNoAgents)
	}

	outcome, err := s.discoverer.Discover(ctx, targetOf(target), agents)
	if err != nil {
		return nil, err
	}
	for id := range outcome.Failures {
		metrics.AgentFailures.WithLabelValues(id).Inc()
	}
	if len(outcome.Successes) == 0 {
		return nil, NewErrDiscoveryExhausted(outcome.FirstError())
	}

	host, err = s.reconcile(ctx, outcome, target.ID, actor)
	if err != nil {
		return nil, err
	}

	s.logger.Info("同步宿主机完成",
		zap.String("host_id", host.ID.String()),
		zap.String("name", host.Name),
		zap.Int("agents", len(outcome.Agents)),
		zap.Int("failed", len(outcome.Failures)),
		zap.Duration("duration", time.Since(start)))

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, host); perr != nil {
			s.logger.Warn("发布拓扑失败", zap.String("host_id", host.ID.String()), zap.Error(perr))
		}
	}
	return host, nil
}

// SyncAsync 在独立 goroutine 中执行 Sync，结果写入返回的 channel 后关闭。
func (s *Syncer) SyncAsync(ctx context.Context, target *model.Host, actor string) <-chan SyncResult {
	ch := make(chan SyncResult, 1)
	go func() {
		defer close(ch)
		host, err := s.Sync(ctx, target, actor)
		ch <- SyncResult{Host: host, Err: err}
	}()
	return ch
}

// reconcile 在事务中对账，遇到唯一键冲突时用新事务重试一次。
func (s *Syncer) reconcile(ctx context.Context, outcome *discovery.Outcome, targetID uuid.UUID, actor string) (*model.Host, error) {
	result := outcome.Primary()
	for attempt := 1; ; attempt++ {
		host, err := s.reconcileOnce(ctx, result, outcome, targetID, actor)
		if err == nil {
			return host, nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return nil, err
		}
		if attempt >= 2 {
			return nil, NewErrDiscoveryExhausted(fmt.Errorf("reconciliation conflict persisted after retry: %w", err))
		}
		metrics.ReconcileConflicts.Inc()
		s.logger.Info("对账遇到唯一键冲突，重试", zap.String("host_id", targetID.String()), zap.Error(err))
	}
}

func (s *Syncer) reconcileOnce(ctx context.Context, result *discovery.Result, outcome *discovery.Outcome, targetID uuid.UUID, actor string) (*model.Host, error) {
	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}
	host, err := s.reconciler.Reconcile(txCtx, result, outcome, targetID, actor)
	if err != nil {
		if _, rerr := store.Rollback(txCtx); rerr != nil {
			s.logger.Warn("回滚事务失败", zap.Error(rerr))
		}
		return nil, err
	}
	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}
	return host, nil
}

func targetOf(host *model.Host) discovery.Target {
	return discovery.Target{
		HostID:          host.ID,
		Name:            host.Name,
		PodType:         host.PodType,
		PowerAddress:    host.PowerAddress,
		PowerParameters: host.PowerParameters,
		Project:         host.Project,
	}
}
