package ioc

import (
	"podsync/internal/app"
	"podsync/internal/metrics"
	"podsync/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// InitRegistry 注册进程指标与同步指标。
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)
	return reg
}

// InitHostHandler 构建 VM 宿主机 HTTP 处理器。
func InitHostHandler(svc *app.Service, logger *zap.Logger) *router.HostHandler {
	return router.NewHostHandler(svc, logger)
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(hostHandler *router.HostHandler, reg *prometheus.Registry) *gin.Engine {
	return router.NewEngine(hostHandler, reg)
}
