package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/roomchat/pkg/auth"
)

const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	TokenKey     = "token"
)

// AuthMiddleware проверяет JWT токен
func AuthMiddleware(jwtManager *auth.JWTManager, revocations auth.Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		authenticate(c, token, jwtManager, revocations)
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: браузер не может
// передать заголовок при upgrade, поэтому токен можно передать в ?token=
func WSAuthMiddleware(jwtManager *auth.JWTManager, revocations auth.Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		authenticate(c, token, jwtManager, revocations)
	}
}

func authenticate(c *gin.Context, token string, jwtManager *auth.JWTManager, revocations auth.Revocations) {
	revoked, err := revocations.IsRevoked(c.Request.Context(), token)
	if err != nil || revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is revoked"})
		return
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.Set(UserIDKey, claims.Subject)
	c.Set(UserEmailKey, claims.Email)
	c.Set(TokenKey, token)
	c.Next()
}
