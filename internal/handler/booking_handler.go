package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/auth"
	"github.com/travelfair/service-promo/internal/middleware"
	"github.com/travelfair/service-promo/internal/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", middleware.RequireRole(auth.RoleAgentStaff, auth.RoleAgentAdmin), h.SubmitBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/stats", h.GetStats)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/void", middleware.RequireRole(auth.RoleAdmin, auth.RoleAgentAdmin), h.VoidBooking)
	}
}

// SubmitBooking handles POST /api/v1/bookings
func (h *BookingHandler) SubmitBooking(c *gin.Context) {
	operatorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "caller is not attached to a travel agent"})
		return
	}

	var req application.SubmitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.SubmitBooking(c.Request.Context(), agentID, operatorID, middleware.GetUserName(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// VoidBooking handles POST /api/v1/bookings/:id/void
func (h *BookingHandler) VoidBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dto, err := h.service.VoidBooking(c.Request.Context(), bookingID, userID, agentScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.service.GetBooking(c.Request.Context(), bookingID, agentScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dtos, total, err := h.service.ListBookings(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, total, q.Page, q.Limit)
}

// GetStats handles GET /api/v1/bookings/stats
func (h *BookingHandler) GetStats(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// agentScope returns the agency a non-administrator caller is restricted to.
// Administrators see everything and get no scope.
func agentScope(c *gin.Context) *uuid.UUID {
	if middleware.GetUserRole(c) == auth.RoleAdmin {
		return nil
	}
	if id, ok := middleware.GetAgentID(c); ok {
		return &id
	}
	// An agent-role caller without an agency matches nothing.
	nothing := uuid.Nil
	return &nothing
}

// listQuery assembles the list filter from query parameters, applying the
// caller's agency scope on top of any explicit filter.
func listQuery(c *gin.Context) (application.ListBookingsQuery, error) {
	var q application.ListBookingsQuery

	if v := c.Query("promo_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return q, err
		}
		q.PromoID = &id
	}
	if v := c.Query("agent_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return q, err
		}
		q.AgentID = &id
	}
	if scope := agentScope(c); scope != nil {
		q.AgentID = scope
	}
	if v := c.Query("status"); v != "" {
		q.Status = &v
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, err
		}
		q.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, err
		}
		// Inclusive end date.
		end := t.Add(24*time.Hour - time.Nanosecond)
		q.DateTo = &end
	}

	var pageErr error
	q.Page, pageErr = intQuery(c, "page", 1)
	if pageErr != nil {
		return q, pageErr
	}
	q.Limit, pageErr = intQuery(c, "limit", 20)
	if pageErr != nil {
		return q, pageErr
	}
	return q, nil
}
