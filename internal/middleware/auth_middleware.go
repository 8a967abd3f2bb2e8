package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// CachedUserData is the per-user payload kept in redis between requests.
type CachedUserData struct {
	UserID uint        `json:"user_id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// AuthMiddleware authenticates the request: JWT from cookie or bearer header,
// user data from cache or database. It attaches {user_id, userName, userEmail,
// role} to the gin context for handlers and the Authorize gate.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abortAuth(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				abortAuth(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})
		if err != nil || !token.Valid {
			abortAuth(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortAuth(c, "Invalid token claims")
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			abortAuth(c, "Invalid user ID in token")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := fmt.Sprintf("user:%d:data", userID)
		if config.RDB != nil {
			cached, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var userData CachedUserData
				if json.Unmarshal([]byte(cached), &userData) == nil {
					setContextAndProceed(c, &userData)
					return
				}
				slog.Warn("Failed to unmarshal cached user data", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("Redis GET failed", "error", err, "user_id", userID)
			}
		}

		var dbUser models.User
		if err := config.DB.First(&dbUser, userID).Error; err != nil {
			abortAuth(c, "User from token not found")
			return
		}
		if dbUser.IsActive != nil && !*dbUser.IsActive {
			abortAuth(c, "Account is deactivated")
			return
		}

		userData := CachedUserData{
			UserID: dbUser.ID,
			Name:   dbUser.Name,
			Email:  dbUser.Email,
			Role:   dbUser.Role,
		}

		if config.RDB != nil {
			if jsonData, err := json.Marshal(userData); err == nil {
				if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, 10*time.Minute).Err(); err != nil {
					slog.Error("Failed to cache user data", "error", err, "user_id", userID)
				}
			}
		}

		setContextAndProceed(c, &userData)
	}
}

func setContextAndProceed(c *gin.Context, userData *CachedUserData) {
	c.Set("user_id", userData.UserID)
	c.Set("userName", userData.Name)
	c.Set("userEmail", userData.Email)
	c.Set("role", userData.Role)
	c.Next()
}

func abortAuth(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": message})
	c.Abort()
}

// CurrentRole returns the authenticated actor's role from the context.
func CurrentRole(c *gin.Context) models.Role {
	if v, ok := c.Get("role"); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}

// CurrentUserID returns the authenticated actor's id from the context.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
