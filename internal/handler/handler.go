package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelfair/service-promo/internal/domain"
)

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return n, nil
}

// notFoundAgent hides agencies outside the caller's scope.
func notFoundAgent(id uuid.UUID) error {
	return domain.NewNotFoundError("Agent", id.String())
}
