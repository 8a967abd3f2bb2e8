package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
)

// ListCoursesHandler returns the course catalog.
func ListCoursesHandler(c *gin.Context) {
	query := config.DB.Order("name ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

type courseInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Duration    string  `json:"duration"`
	RegularFee  float64 `json:"regularFee"`
	DiscountFee float64 `json:"discountFee"`
	Teacher     string  `json:"teacher"`
	Details     string  `json:"details"`
	Status      string  `json:"status"`
}

// CreateCourseHandler adds a course to the catalog. Course names must be
// unique case-insensitively since they validate lead intake and drive
// identifier category keys.
func CreateCourseHandler(c *gin.Context) {
	var input courseInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "name required")
		return
	}

	var existing int64
	config.DB.Model(&models.Course{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(input.Name))).
		Count(&existing)
	if existing > 0 {
		fail(c, http.StatusConflict, "DUPLICATE", "Course with this name already exists")
		return
	}

	var count int64
	config.DB.Model(&models.Course{}).Count(&count)
	course := models.Course{
		CourseID:    fmt.Sprintf("CRS-%d-%03d", time.Now().Year(), count+1),
		Name:        strings.TrimSpace(input.Name),
		Category:    input.Category,
		Duration:    input.Duration,
		RegularFee:  input.RegularFee,
		DiscountFee: input.DiscountFee,
		Teacher:     input.Teacher,
		Details:     input.Details,
	}
	if input.Status != "" {
		course.Status = input.Status
	}
	if err := config.DB.Create(&course).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create course")
		return
	}

	LogActivity(c, "CREATE", "Course", course.Name,
		fmt.Sprintf("Created course %s (%s)", course.Name, course.CourseID))
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// UpdateCourseHandler edits course details.
func UpdateCourseHandler(c *gin.Context) {
	var course models.Course
	if err := config.DB.First(&course, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Course not found")
		return
	}

	var input courseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.Name != "" {
		course.Name = strings.TrimSpace(input.Name)
	}
	if input.Category != "" {
		course.Category = input.Category
	}
	if input.Duration != "" {
		course.Duration = input.Duration
	}
	if input.RegularFee > 0 {
		course.RegularFee = input.RegularFee
	}
	if input.DiscountFee > 0 {
		course.DiscountFee = input.DiscountFee
	}
	if input.Teacher != "" {
		course.Teacher = input.Teacher
	}
	if input.Details != "" {
		course.Details = input.Details
	}
	if input.Status != "" {
		course.Status = input.Status
	}

	if err := config.DB.Save(&course).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update course")
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}
