package ioc

import (
	"podsync/internal/agent"
	"podsync/internal/app"
	"podsync/internal/job"
	"podsync/internal/store"

	"go.uber.org/zap"
)

// InitJobs 构建全量刷新与 agent 探测两个定时任务。
func InitJobs(cfg app.Config, svc *app.Service, s store.Store, conn *agent.Connector, logger *zap.Logger) []*job.Scheduler {
	probe := job.NewAgentProbe(s.Agent(), func() job.Pinger { return conn.NewSession() }, logger)
	return []*job.Scheduler{
		job.NewScheduler("sync-all", cfg.Sync.JobCron, "@every 30m", svc.SyncAll, logger),
		job.NewScheduler("agent-probe", cfg.Sync.ProbeCron, "@every 1m", probe.Run, logger),
	}
}
