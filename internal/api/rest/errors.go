package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-ticket-market/internal/api/shared/errors"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, errors.NewBadRequestError(message, details...))
}

// respondUnauthorized responds with an unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, errors.NewUnauthorizedError(message))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errors.NewValidationError(message))
}

// respondMarketError maps a market error to its status; internal errors are logged
func respondMarketError(c *gin.Context, err error, message string) {
	status, apiErr := errors.FromMarketError(err)
	if domain.KindOf(err) == domain.KindInternal {
		logger.ErrorCtx(c.Request.Context(), fmt.Errorf("%s: %w", message, err))
	}
	c.JSON(status, apiErr)
}
