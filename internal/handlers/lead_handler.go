package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/internal/middleware"
	"edupoint-crm/internal/sequence"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type leadInput struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	InterestedCourse string `json:"interestedCourse"`
	Source           string `json:"source"`
}

// dedupeWindow is how far back the duplicate phone/email guard looks.
const dedupeWindow = 180 * 24 * time.Hour

func findDuplicateLead(phone, email string) (*models.Lead, error) {
	if phone == "" && email == "" {
		return nil, nil
	}
	since := time.Now().Add(-dedupeWindow)
	query := config.DB.Where("created_at >= ?", since)
	switch {
	case phone != "" && email != "":
		query = query.Where("phone = ? OR email = ?", phone, email)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		query = query.Where("email = ?", email)
	}
	var dup models.Lead
	err := query.First(&dup).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dup, nil
}

func courseExists(name string) (bool, error) {
	var count int64
	err := config.DB.Model(&models.Course{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count > 0, err
}

// CreateLeadHandler registers a single lead: course check, 180-day duplicate
// guard, sequencer-issued lead id, initial status Assigned.
func CreateLeadHandler(c *gin.Context) {
	var input leadInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Name required")
		return
	}

	if input.InterestedCourse != "" {
		ok, err := courseExists(input.InterestedCourse)
		if err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to validate course")
			return
		}
		if !ok {
			fail(c, http.StatusBadRequest, "INVALID_COURSE", fmt.Sprintf("Course %q does not exist", input.InterestedCourse))
			return
		}
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	dup, err := findDuplicateLead(input.Phone, input.Email)
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Duplicate check failed")
		return
	}
	if dup != nil {
		fail(c, http.StatusConflict, "DUPLICATE", "Duplicate phone/email in recent leads")
		return
	}

	actorID := middleware.CurrentUserID(c)
	source := input.Source
	if source == "" {
		source = "Manually Generated Lead"
	}

	lead := models.Lead{
		LeadID:           sequence.NextLeadID(config.DB, input.InterestedCourse),
		EntryDate:        time.Now(),
		Name:             input.Name,
		Phone:            input.Phone,
		Email:            input.Email,
		InterestedCourse: input.InterestedCourse,
		Source:           source,
		Status:           models.LeadAssigned,
		AssignedByID:     &actorID,
	}
	if err := config.DB.Create(&lead).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create lead")
		return
	}

	LogActivity(c, "CREATE", "Lead", lead.Name, fmt.Sprintf("Created lead: %s (%s)", lead.Name, lead.LeadID))
	c.JSON(http.StatusCreated, gin.H{"lead": lead})
}

type bulkUploadInput struct {
	CSV string `json:"csv"`
}

// BulkUploadLeadsHandler ingests leads from a CSV string with headers
// Name,Phone,Email,InterestedCourse,Source. Parsing is happy-path only;
// invalid rows are skipped and reported, never fatal.
func BulkUploadLeadsHandler(c *gin.Context) {
	var input bulkUploadInput
	if err := c.ShouldBindJSON(&input); err != nil || input.CSV == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "csv string required")
		return
	}

	lines := strings.FieldsFunc(input.CSV, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) <= 1 {
		fail(c, http.StatusBadRequest, "NO_ROWS", "No data rows")
		return
	}

	header := strings.Split(lines[0], ",")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	idx := map[string]int{"Name": -1, "Phone": -1, "Email": -1, "InterestedCourse": -1, "Source": -1}
	for i, h := range header {
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	for _, v := range idx {
		if v < 0 {
			fail(c, http.StatusBadRequest, "HEADER_MISSING", "Headers must be Name,Phone,Email,InterestedCourse,Source")
			return
		}
	}

	var validNames []string
	config.DB.Model(&models.Course{}).Pluck("name", &validNames)
	validCourses := make(map[string]bool, len(validNames))
	for _, n := range validNames {
		validCourses[strings.ToLower(strings.TrimSpace(n))] = true
	}

	actorID := middleware.CurrentUserID(c)
	created, skipped := 0, 0
	var errs []string

	field := func(parts []string, name string) string {
		if idx[name] < len(parts) {
			return strings.TrimSpace(parts[idx[name]])
		}
		return ""
	}

	for i := 1; i < len(lines); i++ {
		parts := strings.Split(lines[i], ",")
		if strings.TrimSpace(strings.Join(parts, "")) == "" {
			continue
		}

		name := field(parts, "Name")
		phone := field(parts, "Phone")
		email := strings.ToLower(field(parts, "Email"))
		course := field(parts, "InterestedCourse")
		source := field(parts, "Source")
		if source == "" {
			source = "Others"
		}

		if name == "" {
			skipped++
			errs = append(errs, fmt.Sprintf("Row %d: Name is required", i+1))
			continue
		}
		if course != "" && !validCourses[strings.ToLower(course)] {
			skipped++
			errs = append(errs, fmt.Sprintf("Row %d: Course %q does not exist", i+1, course))
			continue
		}
		dup, err := findDuplicateLead(phone, email)
		if err != nil || dup != nil {
			skipped++
			errs = append(errs, fmt.Sprintf("Row %d: Duplicate phone/email", i+1))
			continue
		}

		lead := models.Lead{
			LeadID:           sequence.NextLeadID(config.DB, course),
			EntryDate:        time.Now(),
			Name:             name,
			Phone:            phone,
			Email:            email,
			InterestedCourse: course,
			Source:           source,
			Status:           models.LeadAssigned,
			AssignedByID:     &actorID,
		}
		if err := config.DB.Create(&lead).Error; err != nil {
			skipped++
			errs = append(errs, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		created++
	}

	if len(errs) > 10 {
		errs = errs[:10]
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "created": created, "skipped": skipped, "errors": errs})
}

// ListLeadsHandler returns leads, optionally filtered by status.
func ListLeadsHandler(c *gin.Context) {
	query := config.DB.
		Preload("AssignedTo").
		Preload("AssignedBy").
		Preload("FollowUps.By").
		Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch leads")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

type assignInput struct {
	AssignedTo uint `json:"assignedTo"`
}

// AssignLeadHandler hands a lead to an Admission member and stamps assignedAt.
func AssignLeadHandler(c *gin.Context) {
	var input assignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "assignedTo required")
		return
	}

	var lead models.Lead
	if err := config.DB.First(&lead, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	var assignee models.User
	if err := config.DB.First(&assignee, input.AssignedTo).Error; err != nil || assignee.Role != models.RoleAdmission {
		fail(c, http.StatusBadRequest, "INVALID_ASSIGNEE", "Assignee must be Admission member")
		return
	}

	now := time.Now()
	lead.AssignedToID = &assignee.ID
	lead.Status = models.LeadAssigned
	lead.AssignedAt = &now
	if err := config.DB.Save(&lead).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to assign lead")
		return
	}

	config.DB.Preload("AssignedTo").Preload("AssignedBy").Preload("FollowUps.By").First(&lead, lead.ID)
	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

type bulkAssignInput struct {
	LeadIDs    []uint `json:"leadIds"`
	AssignedTo uint   `json:"assignedTo"`
}

// BulkAssignHandler assigns many leads to one Admission member in a single
// update.
func BulkAssignHandler(c *gin.Context) {
	var input bulkAssignInput
	if err := c.ShouldBindJSON(&input); err != nil || len(input.LeadIDs) == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "leadIds array required")
		return
	}
	if input.AssignedTo == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "assignedTo required")
		return
	}

	var assignee models.User
	if err := config.DB.First(&assignee, input.AssignedTo).Error; err != nil || assignee.Role != models.RoleAdmission {
		fail(c, http.StatusBadRequest, "INVALID_ASSIGNEE", "Assignee must be Admission member")
		return
	}

	res := config.DB.Model(&models.Lead{}).
		Where("id IN ?", input.LeadIDs).
		Updates(map[string]interface{}{
			"assigned_to_id": assignee.ID,
			"status":         models.LeadAssigned,
			"assigned_at":    time.Now(),
		})
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to assign leads")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"assigned": res.RowsAffected,
		"message":  fmt.Sprintf("%d lead(s) assigned successfully", res.RowsAffected),
	})
}

// TodayAssignmentsHandler groups today's assigned leads by admission member
// and course for the marketing daily report.
func TodayAssignmentsHandler(c *gin.Context) {
	today := startOfToday()
	tomorrow := today.Add(24 * time.Hour)

	var leads []models.Lead
	err := config.DB.
		Preload("AssignedTo").
		Where("assigned_at >= ? AND assigned_at < ? AND assigned_to_id IS NOT NULL", today, tomorrow).
		Find(&leads).Error
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch assignments")
		return
	}

	grouped := map[string]map[string]int{}
	for _, lead := range leads {
		member := "Unknown"
		if lead.AssignedTo != nil {
			member = lead.AssignedTo.Name
		}
		course := lead.InterestedCourse
		if course == "" {
			course = "No Course Specified"
		}
		if grouped[member] == nil {
			grouped[member] = map[string]int{}
		}
		grouped[member][course]++
	}

	c.JSON(http.StatusOK, gin.H{"grouped": grouped, "total": len(leads)})
}

// LeadHistoryHandler returns one lead with its full follow-up log. Admission
// members may only view leads assigned to them; marketing and elevated roles
// may view any.
func LeadHistoryHandler(c *gin.Context) {
	var lead models.Lead
	err := config.DB.
		Preload("AssignedTo").
		Preload("AssignedBy").
		Preload("AdmittedToCourse").
		Preload("AdmittedToBatch").
		Preload("FollowUps.By").
		First(&lead, c.Param("id")).Error
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	role := middleware.CurrentRole(c)
	actorID := middleware.CurrentUserID(c)
	switch {
	case role == models.RoleAdmission:
		if lead.AssignedToID == nil || *lead.AssignedToID != actorID {
			fail(c, http.StatusForbidden, "FORBIDDEN", "Cannot view history for unassigned lead")
			return
		}
	case role.Elevated(), role == models.RoleDigitalMarketing, role == models.RoleCoordinator:
		// full access
	default:
		fail(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// UpdateLeadHandler edits contact fields of a lead the actor created.
func UpdateLeadHandler(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	actorID := middleware.CurrentUserID(c)
	if lead.AssignedByID == nil || *lead.AssignedByID != actorID {
		fail(c, http.StatusForbidden, "FORBIDDEN", "Can only update leads you created")
		return
	}

	var input leadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if input.Name != "" {
		lead.Name = input.Name
	}
	lead.Phone = input.Phone
	lead.Email = strings.ToLower(strings.TrimSpace(input.Email))
	lead.InterestedCourse = input.InterestedCourse
	if input.Source != "" {
		lead.Source = input.Source
	}

	if err := config.DB.Save(&lead).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update lead")
		return
	}

	LogActivity(c, "UPDATE", "Lead", lead.Name, fmt.Sprintf("Updated lead: %s (%s)", lead.Name, lead.LeadID))
	config.DB.Preload("AssignedTo").Preload("AssignedBy").First(&lead, lead.ID)
	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// DeleteLeadHandler removes a lead the actor created.
func DeleteLeadHandler(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	actorID := middleware.CurrentUserID(c)
	if lead.AssignedByID == nil || *lead.AssignedByID != actorID {
		fail(c, http.StatusForbidden, "FORBIDDEN", "Can only delete leads you created")
		return
	}

	if err := config.DB.Delete(&lead).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete lead")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Lead deleted successfully"})
}
