package middleware

import (
	"nearbuy-chat/internal/transport/httpdto"
	nearbuy_errors "nearbuy-chat/pkg/errors"
	"nearbuy-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors attached to the gin context into the shared
// response envelope with the taxonomy's status and code.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}
		c.JSON(nearbuy_errors.HTTPStatus(err), httpdto.NewErrorResponse(nearbuy_errors.Message(err), nearbuy_errors.Code(err)))
	}
}
