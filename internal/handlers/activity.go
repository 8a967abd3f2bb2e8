package handlers

import (
	"log/slog"
	"net/http"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
)

// LogActivity appends a row to the activity feed after a successful state
// change. Fire-and-forget: a failed write is logged and swallowed, it never
// fails the operation that triggered it.
func LogActivity(c *gin.Context, action, entityType, entityName, details string) {
	role := ""
	if v, ok := c.Get("role"); ok {
		if r, ok := v.(models.Role); ok {
			role = string(r)
		}
	}
	entry := models.ActivityLog{
		UserID:     c.GetUint("user_id"),
		UserName:   c.GetString("userName"),
		UserEmail:  c.GetString("userEmail"),
		UserRole:   role,
		Action:     action,
		EntityType: entityType,
		EntityName: entityName,
		Details:    details,
	}
	if err := config.DB.Create(&entry).Error; err != nil {
		slog.Warn("Failed to write activity log", "action", action, "entity", entityType, "error", err)
	}
}

// ListActivitiesHandler returns the newest activity rows, paginated.
func ListActivitiesHandler(c *gin.Context) {
	var rows []models.ActivityLog
	var totalRows int64

	query := config.DB.Model(&models.ActivityLog{})
	query.Count(&totalRows)

	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&rows).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch activities")
		return
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(c, rows, totalRows))
}
