package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "podsync_sync_duration_seconds",
		Help:    "单次宿主机同步耗时",
		Buckets: prometheus.DefBuckets,
	})

	SyncErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "podsync_sync_errors_total",
		Help: "同步失败次数",
	})

	AgentFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podsync_agent_failures_total",
		Help: "agent 发现失败次数",
	}, []string{"agent"})

	ReconcileConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "podsync_reconcile_conflicts_total",
		Help: "对账时遇到唯一键冲突并重试的次数",
	})

	AgentUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "podsync_agent_up",
		Help: "agent 健康探测结果，1 表示可达",
	}, []string{"agent"})
)

// MustRegister 注册指标，可在 main 中调用。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(SyncDuration, SyncErrors, AgentFailures, ReconcileConflicts, AgentUp)
}
