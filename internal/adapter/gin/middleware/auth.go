package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"book-review-service/internal/adapter/gin/response"
	"book-review-service/internal/domain/user"
	"book-review-service/pkg/logger"
)

// Authenticator resolves a session token to a caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.Identity, error)
}

// Auth rejects requests without a valid session. The token is read from an
// "Authorization: Bearer" header, falling back to the session cookie.
func Auth(auth Authenticator, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)

		identity, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Debug("request rejected by auth gate",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.Error(c, log, err)
			return
		}

		SetIdentity(c, identity)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), identity.ID))
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}

	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
