package handlers

import (
	"MediCore/apperrors"
	"MediCore/middlewares"
	"MediCore/models"
	"MediCore/services"

	"github.com/gin-gonic/gin"
)

// actorFrom builds the caller identity stored by the token middleware.
func actorFrom(c *gin.Context) (services.Actor, error) {
	ctx := c.Request.Context()
	userID, err := middlewares.ExtractUserIDFromContext(ctx)
	if err != nil {
		return services.Actor{}, apperrors.NewUnauthorizedError("authentication required")
	}
	role, err := middlewares.ExtractUserRoleFromContext(ctx)
	if err != nil {
		return services.Actor{}, apperrors.NewUnauthorizedError("authentication required")
	}
	return services.Actor{UserID: userID, Role: role}, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.NewValidationError("invalid request body", err)
	}
	return nil
}

func pageFrom(c *gin.Context) (models.PageRequest, error) {
	var page models.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.NewValidationError("invalid pagination", err)
	}
	return page.Normalize(), nil
}
