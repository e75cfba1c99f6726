package job

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 负责基于 cron 表达式执行一个后台任务，上一次未结束时跳过本次调度。
type Scheduler struct {
	name     string
	cronExpr string
	logger   *zap.Logger
	cron     *cron.Cron
	run      func(context.Context) error
	parent   context.Context
	mu       sync.Mutex
	running  bool
}

// NewScheduler spec 为空时使用 defaultSpec。
func NewScheduler(name, spec, defaultSpec string, run func(context.Context) error, logger *zap.Logger) *Scheduler {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = defaultSpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{name: name, cronExpr: spec, logger: logger.With(zap.String("job", name)), run: run}
}

// Start 启动调度器，返回用于停止任务的函数。
func (s *Scheduler) Start(parent context.Context) context.CancelFunc {
	if s == nil {
		return func() {}
	}
	s.parent = parent
	c := cron.New()
	id, err := c.AddFunc(s.cronExpr, s.runOnce)
	if err != nil {
		s.logger.Error("failed to register cron job", zap.String("cron", s.cronExpr), zap.Error(err))
		return func() {}
	}
	s.cron = c
	c.Start()
	s.logger.Info("job scheduler started", zap.String("cron", s.cronExpr), zap.Time("next", c.Entry(id).Next))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ctx := s.cron.Stop()
			<-ctx.Done()
			s.logger.Info("job scheduler stopped")
		})
	}

	go func() {
		<-parent.Done()
		stop()
	}()

	return stop
}

func (s *Scheduler) runOnce() {
	if s.run == nil {
		s.logger.Warn("job function not configured")
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skip current schedule")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runCtx := context.Background()
	if s.parent != nil {
		if s.parent.Err() != nil {
			s.logger.Info("scheduler context cancelled, skip run")
			return
		}
		runCtx = s.parent
	}
	start := time.Now()
	err := s.run(runCtx)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("scheduled run failed", zap.Duration("duration", elapsed), zap.Error(err))
		return
	}
	s.logger.Info("scheduled run completed", zap.Duration("duration", elapsed))
}
