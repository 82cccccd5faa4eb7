package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID  = "userID"
	ctxManager = "manager"
)

// Claims is the token payload the host platform signs for API calls. Subject
// is the acting user's id; Manager unlocks hidden recordings and reports.
type Claims struct {
	jwt.RegisteredClaims
	Manager bool `json:"manager"`
}

// AuthMiddleware validates the bearer token and stores the acting user on the
// request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject"})
			return
		}

		ctx.Set(ctxUserID, userID)
		ctx.Set(ctxManager, claims.Manager)
		ctx.Next()
	}
}

// RequireManager rejects non-manager callers.
func RequireManager() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !ctx.GetBool(ctxManager) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "manager role required"})
			return
		}
		ctx.Next()
	}
}

func actingUser(ctx *gin.Context) int64 {
	return ctx.GetInt64(ctxUserID)
}

func isManager(ctx *gin.Context) bool {
	return ctx.GetBool(ctxManager)
}
