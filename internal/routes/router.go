package routes

import (
	"edupoint-crm/internal/handlers"
	"edupoint-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the full route tree: the public login endpoint plus the
// authenticated API group.
func SetupRoutes(r *gin.Engine) {
	r.POST("/auth/login", handlers.LoginHandler)

	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
