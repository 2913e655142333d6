package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Umar7799/task4safety/internal/config"
	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type StatusReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// RequireActive re-reads the caller's current status from the store.
// A token stays cryptographically valid for its whole hour, so this is
// the only thing stopping an account that was blocked (or deleted) after
// login from continuing to act.
func (m *AuthMiddleware) RequireActive(store StatusReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserIDFromContext(c)

		if !ok || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "no_token",
					"message": "Missing identity context",
				},
			})
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		u, err := store.GetByID(cctx, id)

		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				// account deleted since the token was issued
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": gin.H{
						"code":    "account_gone",
						"message": "Account no longer exists",
					},
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not verify account status",
				},
			})
			return
		}

		if u.IsBlocked() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "account_blocked",
					"message": "Your account is blocked",
				},
			})
			return
		}

		c.Next()
	}
}
