package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngine 构建 region 的 gin 引擎并注册所有模块路由。
func NewEngine(hostHandler *HostHandler, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api/v1")
	hostHandler.RegisterRoutes(api)

	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return engine
}

// NewAgentEngine 构建机架 agent 的 gin 引擎。
func NewAgentEngine(agentHandler *AgentHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", agentHandler.handleHealth)
	api := engine.Group("/api/v1", agentHandler.authenticate)
	agentHandler.RegisterRoutes(api)
	return engine
}
