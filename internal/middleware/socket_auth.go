package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/models"
	"github.com/noah-isme/courses-api/pkg/logger"
)

// ContextSocketUserKey stores the identity resolved by SocketAuth. It is
// absent for anonymous connections.
const ContextSocketUserKey = "socketUser"

// Identifier resolves an access token to an active user.
type Identifier interface {
	Identify(ctx context.Context, tokenString string) (*models.User, error)
}

// SocketAuth resolves the connecting user before a socket upgrade. The token
// comes from the Authorization header or the token query parameter. Any
// failure leaves the connection anonymous rather than rejecting it.
func SocketAuth(identifier Identifier, timeout time.Duration, log *zap.Logger) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := socketToken(c)
		if token == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		user, err := identifier.Identify(ctx, token)
		cancel()
		if err != nil {
			log.Debug("socket connection left anonymous", zap.Error(err))
			c.Next()
			return
		}

		c.Set(ContextSocketUserKey, user)
		c.Set(logger.UserIDKey, user.ID)
		c.Next()
	}
}

// SocketUser returns the identity resolved by SocketAuth.
func SocketUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextSocketUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func socketToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := bearerToken(header); ok {
			return token
		}
	}
	return strings.TrimSpace(c.Query("token"))
}
