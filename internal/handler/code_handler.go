package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/auth"
	"github.com/travelfair/service-promo/internal/middleware"
	"github.com/travelfair/service-promo/internal/response"
)

// CodeHandler handles HTTP requests for guaranteed code operations.
type CodeHandler struct {
	service *application.CodeService
}

// NewCodeHandler creates a new CodeHandler.
func NewCodeHandler(service *application.CodeService) *CodeHandler {
	return &CodeHandler{service: service}
}

// RegisterRoutes registers all guaranteed code routes on the given router group.
func (h *CodeHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	codes := r.Group("/codes")
	codes.Use(middleware.AuthMiddleware(jwtManager))
	{
		codes.POST("", middleware.RequireRole(auth.RoleAdmin), h.CreateCodes)
		codes.PUT("/:id", middleware.RequireRole(auth.RoleAdmin), h.UpdateCode)
		codes.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), h.DeleteCode)
		codes.GET("/promo/:promoId", middleware.RequireRole(auth.RoleAdmin), h.ListCodesByPromo)
		codes.POST("/validate", h.ValidateCode)
	}
}

// CreateCodes handles POST /api/v1/codes
func (h *CodeHandler) CreateCodes(c *gin.Context) {
	var req application.CreateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dtos, err := h.service.CreateCodes(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dtos)
}

// UpdateCode handles PUT /api/v1/codes/:id
func (h *CodeHandler) UpdateCode(c *gin.Context) {
	codeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid code ID")
		return
	}

	var req application.UpdateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.UpdateCode(c.Request.Context(), codeID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// DeleteCode handles DELETE /api/v1/codes/:id
func (h *CodeHandler) DeleteCode(c *gin.Context) {
	codeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid code ID")
		return
	}

	if err := h.service.DeleteCode(c.Request.Context(), codeID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCodesByPromo handles GET /api/v1/codes/promo/:promoId
func (h *CodeHandler) ListCodesByPromo(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("promoId"))
	if err != nil {
		response.BadRequest(c, "invalid promo ID")
		return
	}

	dtos, err := h.service.ListCodesByPromo(c.Request.Context(), promoID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// validateCodeRequest is the body for the terminal's live code check.
type validateCodeRequest struct {
	PromoID uuid.UUID `json:"promo_id" binding:"required"`
	Code    string    `json:"code" binding:"required"`
}

// ValidateCode handles POST /api/v1/codes/validate
func (h *CodeHandler) ValidateCode(c *gin.Context) {
	var req validateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ValidateCode(c.Request.Context(), req.PromoID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
