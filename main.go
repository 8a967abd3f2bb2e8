package main

import (
	"log/slog"
	"os"

	"edupoint-crm/config"
	"edupoint-crm/internal/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	config.ConnectDB()
	if err := config.AutoMigrate(config.DB); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	config.ConnectRedis()

	r := gin.Default()
	routes.SetupRoutes(r)

	addr := ":" + config.App.Port
	slog.Info("Starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
