package utils

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

func SetAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	setCookie(c, AccessTokenCookie, accessToken, AccessTokenExpiry)
	setCookie(c, RefreshTokenCookie, refreshToken, RefreshTokenExpiry)
}

func setCookie(c *gin.Context, name, value string, expiry time.Duration) {
	secure := gin.Mode() != gin.DebugMode
	c.SetCookie(name, value, int(expiry.Seconds()), "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context) {
	clearCookie(c, AccessTokenCookie)
	clearCookie(c, RefreshTokenCookie)
}

func clearCookie(c *gin.Context, name string) {
	secure := gin.Mode() != gin.DebugMode
	c.SetCookie(name, "", -1, "/", "", secure, true)
}
