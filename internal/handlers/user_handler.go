package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ListUsersHandler returns users, optionally filtered by role so the
// marketing assign dialog can fetch just the Admission members.
func ListUsersHandler(c *gin.Context) {
	query := config.DB.Order("id ASC")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
		return
	}

	var totalRows int64
	config.DB.Model(&models.User{}).Count(&totalRows)
	if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(c, users, totalRows))
}

type userInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func validRole(r models.Role) bool {
	switch r {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleITAdmin,
		models.RoleDigitalMarketing, models.RoleAdmission,
		models.RoleAccountant, models.RoleCoordinator:
		return true
	}
	return false
}

// CreateUserHandler registers a staff account.
func CreateUserHandler(c *gin.Context) {
	var input userInput
	if err := c.ShouldBindJSON(&input); err != nil ||
		input.Name == "" || input.Email == "" || input.Password == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "name, email and password required")
		return
	}
	if !validRole(input.Role) {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Unknown role %q", input.Role))
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var existing int64
	config.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing)
	if existing > 0 {
		fail(c, http.StatusConflict, "DUPLICATE", "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to hash password")
		return
	}

	user := models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create user")
		return
	}

	LogActivity(c, "CREATE", "User", user.Name,
		fmt.Sprintf("Created user %s (%s)", user.Email, user.Role))
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateUserHandler edits a staff account; password and role changes take
// effect on the next auth-cache refresh.
func UpdateUserHandler(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	var input userInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Role != "" {
		if !validRole(input.Role) {
			fail(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Unknown role %q", input.Role))
			return
		}
		user.Role = input.Role
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to hash password")
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := config.DB.Save(&user).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update user")
		return
	}
	invalidateUserCache(user.ID)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeactivateUserHandler disables a login without deleting history rows that
// reference the user.
func DeactivateUserHandler(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	inactive := false
	user.IsActive = &inactive
	if err := config.DB.Save(&user).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to deactivate user")
		return
	}
	invalidateUserCache(user.ID)

	LogActivity(c, "UPDATE", "User", user.Name,
		fmt.Sprintf("Deactivated user %s", user.Email))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// invalidateUserCache drops the redis-cached auth data so a role change or
// deactivation is picked up before the TTL expires.
func invalidateUserCache(userID uint) {
	if config.RDB == nil {
		return
	}
	config.RDB.Del(config.Ctx, fmt.Sprintf("user:%d:data", userID))
}
