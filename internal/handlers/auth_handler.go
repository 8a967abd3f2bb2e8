package handlers

import (
	"net/http"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler checks credentials and issues a signed JWT. The token carries
// only the user id; role and profile data are resolved per-request by the
// auth middleware so role changes take effect without re-login.
func LoginHandler(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password required")
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
		return
	}
	if user.IsActive != nil && !*user.IsActive {
		fail(c, http.StatusForbidden, "FORBIDDEN", "Account is deactivated")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
		return
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.JwtKey)
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to sign token")
		return
	}

	c.SetCookie("auth_token", signed, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
