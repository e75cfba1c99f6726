package job

import (
	"context"

	"podsync/internal/metrics"
	"podsync/internal/store/model"

	"go.uber.org/zap"
)

// AgentLister 列出已登记的 agent。
type AgentLister interface {
	List(ctx context.Context) ([]model.Agent, error)
}

// Pinger 由 agent.Session 实现。
type Pinger interface {
	Ping(ctx context.Context, a model.Agent) error
	Close() error
}

// AgentProbe 逐个探测 agent 并更新 podsync_agent_up。
type AgentProbe struct {
	agents     AgentLister
	newSession func() Pinger
	logger     *zap.Logger
}

func NewAgentProbe(agents AgentLister, newSession func() Pinger, logger *zap.Logger) *AgentProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentProbe{agents: agents, newSession: newSession, logger: logger}
}

// Run 探测失败只记日志，只有读取 agent 列表失败才返回错误。
func (p *AgentProbe) Run(ctx context.Context) error {
	agents, err := p.agents.List(ctx)
	if err != nil {
		return err
	}
	sess := p.newSession()
	defer sess.Close()

	down := 0
	for _, a := range agents {
		if err := sess.Ping(ctx, a); err != nil {
			down++
			metrics.AgentUp.WithLabelValues(a.ID).Set(0)
			p.logger.Warn("agent unreachable", zap.String("agent", a.ID), zap.String("url", a.URL), zap.Error(err))
			continue
		}
		metrics.AgentUp.WithLabelValues(a.ID).Set(1)
	}
	p.logger.Info("agent probe finished", zap.Int("agents", len(agents)), zap.Int("down", down))
	return nil
}
