package vmhost

import (
	"context"
	"net/netip"

	"podsync/internal/store"
	"podsync/internal/store/model"

	"go.uber.org/zap"
)

// AgentResolver 返回能访问宿主机的 agent 集合。
type AgentResolver interface {
	ResolveAgents(ctx context.Context, host *model.Host) ([]model.Agent, error)
}

// SubnetResolver 选出子网覆盖宿主机 IP 的 agent；未配置子网的 agent 总会被选中。
type SubnetResolver struct {
	store  store.Store
	logger *zap.Logger
}

func NewSubnetResolver(s store.Store, logger *zap.Logger) *SubnetResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubnetResolver{store: s, logger: logger}
}

func (r *SubnetResolver) ResolveAgents(ctx context.Context, host *model.Host) ([]model.Agent, error) {
	all, err := r.store.Agent().List(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := netip.ParseAddr(host.IPAddress)
	if err != nil {
		// 宿主机 IP 未知时无法按子网过滤
		return all, nil
	}
	res := make([]model.Agent, 0, len(all))
	for _, a := range all {
		if reaches(a, addr, r.logger) {
			res = append(res, a)
		}
	}
	return res, nil
}

func reaches(a model.Agent, addr netip.Addr, logger *zap.Logger) bool {
	if len(a.Subnets) == 0 {
		return true
	}
	for _, cidr := range a.Subnets {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Warn("ignore invalid agent subnet", zap.String("agent", a.ID), zap.String("subnet", cidr))
			continue
		}
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
