package middlewares

import (
	"net/http"

	"MediCore/apperrors"
	"MediCore/logging"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

// RespondJSON writes data inside a successful envelope.
func RespondJSON[T any](c *gin.Context, status int, data T) {
	c.JSON(status, models.ApiResponse[T]{Success: true, Data: data})
}

// RespondMessage writes a successful envelope that only carries a message.
func RespondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, models.ApiResponse[any]{Success: true, Message: message})
}

// RespondError maps err to its status code and a client-safe message.
// Server side failures are logged with their cause.
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.JSON(status, models.ApiResponse[any]{Success: false, Error: apperrors.PublicMessage(err)})
}

// AbortWithError stops the chain with an error envelope.
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ApiResponse[any]{Success: false, Error: message})
}
