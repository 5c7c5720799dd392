package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/auth"
	"github.com/travelfair/service-promo/internal/middleware"
	"github.com/travelfair/service-promo/internal/response"
)

// AgentHandler handles HTTP requests for travel agent operations.
type AgentHandler struct {
	service *application.AgentService
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(service *application.AgentService) *AgentHandler {
	return &AgentHandler{service: service}
}

// RegisterRoutes registers all travel agent routes on the given router group.
func (h *AgentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	agents := r.Group("/agents")
	agents.Use(middleware.AuthMiddleware(jwtManager))
	{
		agents.POST("", middleware.RequireRole(auth.RoleAdmin), h.CreateAgent)
		agents.GET("", middleware.RequireRole(auth.RoleAdmin), h.ListAgents)
		agents.GET("/:id", h.GetAgent)
		agents.PUT("/:id", middleware.RequireRole(auth.RoleAdmin), h.UpdateAgent)
	}
}

// CreateAgent handles POST /api/v1/agents
func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req application.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreateAgent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// UpdateAgent handles PUT /api/v1/agents/:id
func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agent ID")
		return
	}

	var req application.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.UpdateAgent(c.Request.Context(), agentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetAgent handles GET /api/v1/agents/:id
func (h *AgentHandler) GetAgent(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agent ID")
		return
	}

	// Agent-role callers may only read their own agency.
	if scope := agentScope(c); scope != nil && *scope != agentID {
		response.Error(c, notFoundAgent(agentID))
		return
	}

	dto, err := h.service.GetAgent(c.Request.Context(), agentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListAgents handles GET /api/v1/agents
func (h *AgentHandler) ListAgents(c *gin.Context) {
	dtos, err := h.service.ListAgents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}
