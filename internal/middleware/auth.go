package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledata-dev/ledata/internal/auth"
	"github.com/ledata-dev/ledata/internal/types"
	"gorm.io/gorm"
)

// AuthMiddleware resolves the bearer token against the user store and places
// the full user record in the request context. Expired tokens are cleared
// server-side as a side effect of the check.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := auth.BearerToken(ctx.GetHeader("Authorization"))

		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication token required"})
			return
		}

		user, err := auth.ResolveSession(db, token)

		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case errors.Is(err, auth.ErrInvalidToken):
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			default:
				log.Printf("Failed to resolve session: %v", err)
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}
