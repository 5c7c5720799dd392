package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/auth"
	"github.com/travelfair/service-promo/internal/middleware"
	"github.com/travelfair/service-promo/internal/response"
)

// EventHandler handles HTTP requests for travel fair event operations.
type EventHandler struct {
	service *application.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service *application.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterRoutes registers all event routes on the given router group.
func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	events := r.Group("/events")
	events.Use(middleware.AuthMiddleware(jwtManager))
	{
		events.POST("", middleware.RequireRole(auth.RoleAdmin), h.CreateEvent)
		events.GET("", h.ListEvents)
		events.GET("/:id", h.GetEvent)
		events.PUT("/:id", middleware.RequireRole(auth.RoleAdmin), h.UpdateEvent)
	}
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req application.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// UpdateEvent handles PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event ID")
		return
	}

	var req application.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.UpdateEvent(c.Request.Context(), eventID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetEvent handles GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event ID")
		return
	}

	dto, err := h.service.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	dtos, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}
