package router

import (
	"net/http"
	"strings"

	"podsync/internal/app"
	"podsync/internal/store/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	actorHeader  = "X-Actor"
	defaultActor = "api"
)

// HostHandler 负责 VM 宿主机、集群和 agent 登记相关的 HTTP 请求。
type HostHandler struct {
	svc    *app.Service
	logger *zap.Logger
}

func NewHostHandler(svc *app.Service, logger *zap.Logger) *HostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostHandler{svc: svc, logger: logger}
}

func (h *HostHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/agents", h.handleRegisterAgent)
	rg.GET("/agents", h.handleListAgents)

	hosts := rg.Group("/hosts")
	hosts.POST("", h.handleCreateHost)
	hosts.GET("/:id", h.handleGetHost)
	hosts.POST("/:id/refresh", h.handleRefreshHost)
	hosts.GET("/:id/resources", h.handleHostResources)

	clusters := rg.Group("/clusters")
	clusters.GET("/:id", h.handleGetCluster)
	clusters.GET("/:id/resources", h.handleClusterResources)
}

type createHostRequest struct {
	Name            string            `json:"name"`
	PodType         string            `json:"pod_type"`
	PowerAddress    string            `json:"power_address"`
	PowerParameters map[string]string `json:"power_parameters"`
	Zone            string            `json:"zone"`
	Pool            string            `json:"pool"`
	Project         string            `json:"project"`
}

type agentRequest struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Subnets []string `json:"subnets"`
}

func actorOf(c *gin.Context) string {
	if actor := strings.TrimSpace(c.GetHeader(actorHeader)); actor != "" {
		return actor
	}
	return defaultActor
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *HostHandler) handleRegisterAgent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	a := &model.Agent{ID: req.ID, Name: req.Name, URL: req.URL, Subnets: req.Subnets}
	if err := h.svc.RegisterAgent(c.Request.Context(), a); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *HostHandler) handleListAgents(c *gin.Context) {
	agents, err := h.svc.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (h *HostHandler) handleCreateHost(c *gin.Context) {
	var req createHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	host := &model.Host{
		Name:            req.Name,
		PodType:         req.PodType,
		PowerAddress:    req.PowerAddress,
		PowerParameters: req.PowerParameters,
		Zone:            req.Zone,
		Pool:            req.Pool,
		Project:         req.Project,
	}
	synced, err := h.svc.CreateHost(c.Request.Context(), host, actorOf(c))
	if err != nil {
		h.logger.Warn("create host failed", zap.String("power_address", req.PowerAddress), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, synced)
}

func (h *HostHandler) handleGetHost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	host, err := h.svc.GetHost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, host)
}

func (h *HostHandler) handleRefreshHost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	host, err := h.svc.RefreshHost(c.Request.Context(), id, actorOf(c))
	if err != nil {
		h.logger.Warn("refresh host failed", zap.String("host_id", id.String()), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, host)
}

func (h *HostHandler) handleHostResources(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	summary, err := h.svc.HostResources(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *HostHandler) handleGetCluster(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.svc.GetCluster(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *HostHandler) handleClusterResources(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	summary, err := h.svc.ClusterResources(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
