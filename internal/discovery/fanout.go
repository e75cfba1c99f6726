package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"podsync/internal/store/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Caller 是一次同步内使用的发现会话，用完即关闭。
type Caller interface {
	Discover(ctx context.Context, agent model.Agent, target Target) (*Result, error)
	Close() error
}

// Connector 为每次同步创建新的 Caller。
type Connector interface {
	Connect(ctx context.Context) (Caller, error)
}

// Outcome 是一次扇出的全部结果，agent 顺序与调用时一致。
type Outcome struct {
	Agents    []string
	Successes map[string]*Result
	Failures  map[string]error
}

// Routes 返回每个 agent 是否可达。
func (o *Outcome) Routes() map[string]bool {
	routes := make(map[string]bool, len(o.Agents))
	for _, id := range o.Agents {
		_, ok := o.Successes[id]
		routes[id] = ok
	}
	return routes
}

// FirstError 按 agent 顺序返回第一个失败。
func (o *Outcome) FirstError() error {
	for _, id := range o.Agents {
		if err, ok := o.Failures[id]; ok {
			return err
		}
	}
	return nil
}

// Primary 按 agent 顺序返回第一个成功结果。
func (o *Outcome) Primary() *Result {
	for _, id := range o.Agents {
		if res, ok := o.Successes[id]; ok {
			return res
		}
	}
	return nil
}

// Discoverer 向所有 agent 并发发起发现，等待全部返回。
type Discoverer struct {
	connector Connector
	workers   int
	logger    *zap.Logger
}

// NewDiscoverer workers <= 0 表示不限制并发。
func NewDiscoverer(connector Connector, workers int, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{connector: connector, workers: workers, logger: logger}
}

// Discover 单个 agent 失败不会取消其他调用，返回的 error 仅表示无法建立会话。
func (d *Discoverer) Discover(ctx context.Context, target Target, agents []model.Agent) (*Outcome, error) {
	caller, err := d.connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建发现会话失败: %w", err)
	}
	defer func() {
		if cerr := caller.Close(); cerr != nil {
			d.logger.Warn("close discovery session failed", zap.Error(cerr))
		}
	}()

	outcome := &Outcome{
		Agents:    make([]string, 0, len(agents)),
		Successes: make(map[string]*Result),
		Failures:  make(map[string]error),
	}
	for _, a := range agents {
		outcome.Agents = append(outcome.Agents, a.ID)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if d.workers > 0 {
		g.SetLimit(d.workers)
	}
	for _, a := range agents {
		g.Go(func() error {
			start := time.Now()
			res, err := caller.Discover(ctx, a, target)
			if err == nil && res.Empty() {
				err = ErrEmptyResult
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome.Failures[a.ID] = &AgentError{AgentID: a.ID, Err: err}
				d.logger.Warn("agent discovery failed",
					zap.String("agent", a.ID), zap.String("pod", target.Name), zap.Duration("duration", time.Since(start)), zap.Error(err))
				return nil
			}
			outcome.Successes[a.ID] = res
			d.logger.Debug("agent discovery succeeded",
				zap.String("agent", a.ID), zap.String("pod", target.Name), zap.Duration("duration", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()
	return outcome, nil
}
