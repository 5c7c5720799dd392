package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/auth"
	"github.com/travelfair/service-promo/internal/middleware"
	"github.com/travelfair/service-promo/internal/response"
)

// PromoHandler handles HTTP requests for promotion operations.
type PromoHandler struct {
	service *application.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(service *application.PromoService) *PromoHandler {
	return &PromoHandler{service: service}
}

// RegisterRoutes registers all promotion routes on the given router group.
func (h *PromoHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	promos := r.Group("/promos")
	promos.Use(middleware.AuthMiddleware(jwtManager))
	{
		promos.POST("", middleware.RequireRole(auth.RoleAdmin), h.CreatePromo)
		promos.GET("", middleware.RequireRole(auth.RoleAdmin), h.ListPromos)
		promos.GET("/active", h.ListActivePromos)
		promos.GET("/:id", h.GetPromo)
		promos.PUT("/:id", middleware.RequireRole(auth.RoleAdmin), h.UpdatePromo)
		promos.GET("/:id/cashback-preview", h.PreviewCashback)
		promos.GET("/:id/remaining", h.RemainingQuota)
	}
}

// CreatePromo handles POST /api/v1/promos
func (h *PromoHandler) CreatePromo(c *gin.Context) {
	var req application.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreatePromo(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// UpdatePromo handles PUT /api/v1/promos/:id
func (h *PromoHandler) UpdatePromo(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promo ID")
		return
	}

	var req application.UpdatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.UpdatePromo(c.Request.Context(), promoID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetPromo handles GET /api/v1/promos/:id
func (h *PromoHandler) GetPromo(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promo ID")
		return
	}

	dto, err := h.service.GetPromo(c.Request.Context(), promoID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListPromos handles GET /api/v1/promos
func (h *PromoHandler) ListPromos(c *gin.Context) {
	dtos, err := h.service.ListPromos(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// ListActivePromos handles GET /api/v1/promos/active
func (h *PromoHandler) ListActivePromos(c *gin.Context) {
	if v := c.Query("event_id"); v != "" {
		eventID, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid event ID")
			return
		}
		dtos, err := h.service.ListPromosByEvent(c.Request.Context(), eventID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, dtos)
		return
	}

	dtos, err := h.service.ListActivePromos(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// RemainingQuota handles GET /api/v1/promos/:id/remaining
func (h *PromoHandler) RemainingQuota(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promo ID")
		return
	}

	agentID := agentScope(c)
	if agentID == nil {
		if v := c.Query("agent_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.BadRequest(c, "invalid agent ID")
				return
			}
			agentID = &id
		}
	}

	dto, err := h.service.RemainingQuota(c.Request.Context(), promoID, agentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// PreviewCashback handles GET /api/v1/promos/:id/cashback-preview
func (h *PromoHandler) PreviewCashback(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promo ID")
		return
	}
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount <= 0 {
		response.BadRequest(c, "amount must be a positive integer")
		return
	}

	dto, err := h.service.PreviewCashback(c.Request.Context(), promoID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
