package middlewares

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"MediCore/models"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

const AccessTokenHeader = "X-Access-Token"

type contextKey string

const (
	userIDKey   contextKey = "userID"
	userRoleKey contextKey = "userRole"
)

// TokenAuthMiddleware validates the access token and adds the user details to
// the request context. The token is read from the X-Access-Token header, the
// accessToken query parameter or the accessToken cookie, in that order.
func TokenAuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	if tokens == nil {
		panic("middlewares: TokenAuthMiddleware requires a token manager")
	}
	return func(c *gin.Context) {
		token := accessTokenFrom(c)
		if token == "" {
			AbortWithError(c, http.StatusUnauthorized, "Missing access token")
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), claims.UserID, models.RoleName(claims.Role)))
		c.Next()
	}
}

func accessTokenFrom(c *gin.Context) string {
	if token := c.GetHeader(AccessTokenHeader); token != "" {
		return token
	}
	if token := c.Query(utils.AccessTokenCookie); token != "" {
		return token
	}
	if token, err := c.Cookie(utils.AccessTokenCookie); err == nil {
		return token
	}
	return ""
}

// RoleAuthMiddleware restricts access to users holding one of the roles.
func RoleAuthMiddleware(roles ...models.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := ExtractUserRoleFromContext(c.Request.Context())
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "User role not found in context")
			return
		}

		if !slices.Contains(roles, role) {
			AbortWithError(c, http.StatusForbidden, "Forbidden: insufficient privileges")
			return
		}

		c.Next()
	}
}

// WithIdentity stores the authenticated user in ctx.
func WithIdentity(ctx context.Context, userID string, role models.RoleName) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

// ExtractUserIDFromContext retrieves the userID from the context.
func ExtractUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}

// ExtractUserRoleFromContext retrieves the user role from the context.
func ExtractUserRoleFromContext(ctx context.Context) (models.RoleName, error) {
	role, ok := ctx.Value(userRoleKey).(models.RoleName)
	if !ok || role == "" {
		return "", errors.New("user role not found in context")
	}
	return role, nil
}
