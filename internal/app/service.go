package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"podsync/internal/resources"
	"podsync/internal/store"
	"podsync/internal/store/model"
	"podsync/internal/vmhost"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HostSyncer 由 vmhost.Syncer 实现。
type HostSyncer interface {
	Sync(ctx context.Context, target *model.Host, actor string) (*model.Host, error)
}

// GraphAdmin 是图数据库的管理能力，未配置 neo4j 时为 nil。
type GraphAdmin interface {
	EnsureSchema(ctx context.Context) error
	CountHosts(ctx context.Context) (int64, error)
}

// Service 负责装配各个 Flow 并提供统一入口。
type Service struct {
	cfg        Config
	store      store.Store
	syncer     HostSyncer
	aggregator *resources.Aggregator
	logger     *zap.Logger

	InitFlow     *InitFlow
	SyncAllFlow  *SyncAllFlow
	ValidateFlow *ValidateFlow
}

// NewService 根据配置构建 Service，graph 可以为 nil。
func NewService(cfg Config, s store.Store, syncer HostSyncer, graph GraphAdmin, logger *zap.Logger) (*Service, error) {
	if s == nil || syncer == nil {
		return nil, fmt.Errorf("必须提供 store 与 syncer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:          cfg,
		store:        s,
		syncer:       syncer,
		aggregator:   resources.NewAggregator(logger),
		logger:       logger,
		InitFlow:     &InitFlow{Store: s, Graph: graph, Logger: logger},
		SyncAllFlow:  &SyncAllFlow{Store: s, Syncer: syncer, Logger: logger},
		ValidateFlow: &ValidateFlow{Store: s, Graph: graph, Logger: logger},
	}, nil
}

// Close 释放资源。
func (s *Service) Close(context.Context) error {
	_ = s.logger.Sync()
	return s.store.Close()
}

func (s *Service) Init(ctx context.Context) error {
	if s.InitFlow == nil {
		return fmt.Errorf("未初始化 init flow")
	}
	return s.InitFlow.Run(ctx)
}

// SyncAll 刷新全部宿主机，供定时任务调用。
func (s *Service) SyncAll(ctx context.Context) error {
	if s.SyncAllFlow == nil {
		return fmt.Errorf("未初始化 sync flow")
	}
	report, err := s.SyncAllFlow.Run(ctx, "scheduler")
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d/%d 台宿主机同步失败", len(report.Failed), report.Total())
	}
	return nil
}

func (s *Service) Validate(ctx context.Context) error {
	if s.ValidateFlow == nil {
		return fmt.Errorf("未初始化 validate flow")
	}
	return s.ValidateFlow.Run(ctx)
}

// CreateHost 登记新的宿主机并立即做首次同步，首次同步失败则撤销登记。
func (s *Service) CreateHost(ctx context.Context, host *model.Host, actor string) (*model.Host, error) {
	if err := validateHost(host); err != nil {
		return nil, err
	}
	registered, err := s.store.Host().List(ctx, store.NewHostQueryFilter().ByPowerAddress(host.PowerAddress))
	if err != nil {
		return nil, err
	}
	if len(registered) > 0 {
		return nil, fmt.Errorf("power address %s 已被宿主机 %s 使用: %w", host.PowerAddress, registered[0].ID, store.ErrDuplicateKey)
	}
	if err := s.store.Host().Create(ctx, host); err != nil {
		return nil, fmt.Errorf("创建宿主机失败: %w", err)
	}
	synced, err := s.syncer.Sync(ctx, host, actor)
	if err != nil {
		if derr := s.store.Host().Delete(ctx, host.ID); derr != nil && !errors.Is(derr, store.ErrRecordNotFound) {
			s.logger.Error("remove host after failed initial sync", zap.String("host_id", host.ID.String()), zap.Error(derr))
		}
		return nil, err
	}
	return synced, nil
}

func validateHost(host *model.Host) error {
	if host == nil {
		return NewErrInvalidArgument("host is required")
	}
	host.PodType = strings.TrimSpace(host.PodType)
	host.PowerAddress = strings.TrimSpace(host.PowerAddress)
	if host.PodType == "" {
		return NewErrInvalidArgument("pod type is required")
	}
	if host.PowerAddress == "" {
		return NewErrInvalidArgument("power address is required")
	}
	return nil
}

// RefreshHost 对已登记的宿主机做一次同步。
func (s *Service) RefreshHost(ctx context.Context, id uuid.UUID, actor string) (*model.Host, error) {
	host, err := s.GetHost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.syncer.Sync(ctx, host, actor)
}

func (s *Service) GetHost(ctx context.Context, id uuid.UUID) (*model.Host, error) {
	host, err := s.store.Host().Get(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, vmhost.NewErrHostNotFound(id)
	}
	return host, err
}

// ClusterView 是集群及其成员。
type ClusterView struct {
	*model.VMCluster
	Hosts []model.Host `json:"hosts"`
}

func (s *Service) GetCluster(ctx context.Context, id uuid.UUID) (*ClusterView, error) {
	cluster, err := s.store.Cluster().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	hosts, err := s.store.Host().List(ctx, store.NewHostQueryFilter().ByClusterID(id))
	if err != nil {
		return nil, err
	}
	return &ClusterView{VMCluster: cluster, Hosts: hosts}, nil
}

// HostResources 集群成员按整个集群汇总，独立宿主机只汇总自身。
func (s *Service) HostResources(ctx context.Context, id uuid.UUID) (resources.Summary, error) {
	host, err := s.GetHost(ctx, id)
	if err != nil {
		return resources.Summary{}, err
	}
	if host.ClusterID != nil {
		return s.ClusterResources(ctx, *host.ClusterID)
	}
	return s.aggregator.Aggregate([]model.Host{*host}), nil
}

func (s *Service) ClusterResources(ctx context.Context, id uuid.UUID) (resources.Summary, error) {
	view, err := s.GetCluster(ctx, id)
	if err != nil {
		return resources.Summary{}, err
	}
	return s.aggregator.Aggregate(view.Hosts), nil
}

func (s *Service) RegisterAgent(ctx context.Context, agent *model.Agent) error {
	agent.ID = strings.TrimSpace(agent.ID)
	if agent.ID == "" || strings.TrimSpace(agent.URL) == "" {
		return NewErrInvalidArgument("agent id and url are required")
	}
	return s.store.Agent().Upsert(ctx, agent)
}

func (s *Service) ListAgents(ctx context.Context) ([]model.Agent, error) {
	return s.store.Agent().List(ctx)
}
