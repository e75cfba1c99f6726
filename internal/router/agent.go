package router

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"podsync/internal/agent"
	"podsync/internal/discovery"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Discoverer 由 driver.Registry 实现。
type Discoverer interface {
	Types() []string
	Discover(ctx context.Context, target discovery.Target) (*discovery.Result, error)
}

// AgentHandler 是机架 agent 对 region 暴露的发现接口。
type AgentHandler struct {
	drivers    Discoverer
	token      string
	authHeader string
	logger     *zap.Logger
}

// NewAgentHandler token 为空时不校验请求头。
func NewAgentHandler(drivers Discoverer, token, authHeader string, logger *zap.Logger) *AgentHandler {
	if authHeader == "" {
		authHeader = "Authorization"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{drivers: drivers, token: token, authHeader: authHeader, logger: logger}
}

func (h *AgentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/discover", h.handleDiscover)
}

func (h *AgentHandler) authenticate(c *gin.Context) {
	if h.token == "" {
		c.Next()
		return
	}
	got := strings.TrimPrefix(c.GetHeader(h.authHeader), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, agent.ErrorResponse{Error: "unauthorized"})
		return
	}
	c.Next()
}

func (h *AgentHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pod_types": h.drivers.Types()})
}

func (h *AgentHandler) handleDiscover(c *gin.Context) {
	var target discovery.Target
	if err := c.ShouldBindJSON(&target); err != nil {
		c.JSON(http.StatusBadRequest, agent.ErrorResponse{Error: "invalid request payload"})
		return
	}
	result, err := h.drivers.Discover(c.Request.Context(), target)
	if err != nil {
		h.logger.Warn("discovery failed",
			zap.String("pod_type", target.PodType),
			zap.String("power_address", target.PowerAddress),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, agent.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
