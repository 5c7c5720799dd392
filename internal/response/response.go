package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/travelfair/service-promo/internal/domain"
)

// Envelope is the uniform JSON body for successful responses.
type Envelope struct {
	Data interface{} `json:"data"`
}

// PageMeta describes a paginated collection.
type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// PaginatedEnvelope wraps a page of results.
type PaginatedEnvelope struct {
	Data interface{} `json:"data"`
	Meta PageMeta    `json:"meta"`
}

// errorBody is the uniform JSON body for failures.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Success writes a 200 with the envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// Created writes a 201 with the envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Data: data})
}

// Paginated writes a 200 with page metadata.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, PaginatedEnvelope{
		Data: data,
		Meta: PageMeta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: message})
}

// Error maps a domain error to an HTTP response. Unknown errors surface as
// opaque 500s so internals never leak to the terminal.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		c.JSON(statusFor(de), errorBody{Error: de.Message, Code: de.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func statusFor(de *domain.DomainError) int {
	switch {
	case errors.Is(de.Err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(de.Err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(de.Err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(de.Err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(de.Err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
