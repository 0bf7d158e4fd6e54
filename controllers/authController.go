package controllers

import (
	"MediCore/handlers"
	"MediCore/middlewares"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Handler   *handlers.AuthHandler
	tokenAuth gin.HandlerFunc
}

// NewAuthController creates a new AuthController with the given AuthHandler
// and the middleware that authenticates protected routes.
func NewAuthController(authHandler *handlers.AuthHandler, tokenAuth gin.HandlerFunc) *AuthController {
	return &AuthController{
		Handler:   authHandler,
		tokenAuth: tokenAuth,
	}
}

// RegisterRoutes initializes all authentication routes on the router
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	public := router.Group("/auth")
	{
		public.POST("/register", ac.Handler.Register)
		public.POST("/login", ac.Handler.Login)
		public.POST("/refresh-token", ac.Handler.RefreshToken)
		public.POST("/password-reset/request", ac.Handler.RequestPasswordReset)
		public.POST("/password-reset/confirm", ac.Handler.ConfirmPasswordReset)
	}

	authGroup := router.Group("/auth", ac.tokenAuth)
	{
		authGroup.POST("/logoff", ac.Handler.Logoff)
		authGroup.GET("/user/profile", ac.Handler.GetProfile)
		authGroup.PUT("/user/profile", ac.Handler.UpdateProfile)
		authGroup.GET("/user/permissions", ac.Handler.GetPermissions)
		authGroup.POST("/change-password", ac.Handler.ChangePassword)
	}

	adminGroup := router.Group("/auth/admin", ac.tokenAuth, middlewares.RoleAuthMiddleware(models.RoleAdmin))
	{
		adminGroup.GET("/users", ac.Handler.ListUsers)
		adminGroup.POST("/users", ac.Handler.CreateUser)
	}
}
