package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/trustmod/registry/internal/apierr"
	"github.com/trustmod/registry/internal/history"
	"github.com/trustmod/registry/internal/logging"
)

const actorKey = "actor"

// TokenAuth verifies the X-Authorization token issued by the auth
// collaborator and attaches the acting user for history attribution.
func TokenAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Authorization")
		if raw == "" {
			c.String(http.StatusBadRequest, "Missing authentication token")
			c.Abort()
			return
		}
		if lower := strings.ToLower(raw); strings.HasPrefix(lower, "bearer ") {
			raw = strings.TrimSpace(raw[len("bearer "):])
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			logging.Log.Infow("rejected authentication token", "error", err)
			status, msg := apierr.StatusOf(apierr.InvalidToken())
			c.String(status, msg)
			c.Abort()
			return
		}

		actor := history.Actor{}
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if name, ok := claims["name"].(string); ok {
				actor.Name = name
			}
			if admin, ok := claims["isAdmin"].(bool); ok {
				actor.IsAdmin = admin
			}
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) history.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(history.Actor); ok {
			return actor
		}
	}
	return history.Actor{}
}
