// Package handler exposes the HTTP API: session snapshots, placement,
// account reads and the operator surface.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"quickbet-platform/internal/config"
)

const ctxUserID = "user_id"

// Claims is the token payload issued by the external identity system.
// This service only validates; it never issues tokens.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseToken validates a bearer token and returns its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}

// AuthMiddleware resolves the caller to a user id from the Authorization
// header and stores it on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1], cfg.Auth.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

// AdminMiddleware gates operator endpoints on the configured admin ids.
// Must run after AuthMiddleware.
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(ctxUserID)
		if !cfg.IsAdmin(userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "operator access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
