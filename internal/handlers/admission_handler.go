package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/internal/middleware"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// transitionTable lists the legal forward moves of the lead pipeline.
// Admitted and Not Admitted are terminal; nothing re-enters Assigned.
var transitionTable = map[models.LeadStatus][]models.LeadStatus{
	models.LeadAssigned:   {models.LeadCounseling},
	models.LeadCounseling: {models.LeadAdmitted, models.LeadInFollowUp, models.LeadNotAdmitted},
	models.LeadInFollowUp: {models.LeadAdmitted, models.LeadNotAdmitted},
}

func transitionAllowed(from, to models.LeadStatus) bool {
	for _, t := range transitionTable[from] {
		if t == to {
			return true
		}
	}
	return false
}

func isValidStatus(s models.LeadStatus) bool {
	switch s {
	case models.LeadAssigned, models.LeadCounseling, models.LeadInFollowUp,
		models.LeadAdmitted, models.LeadNotAdmitted:
		return true
	}
	return false
}

// AdmissionLeadsHandler lists pipeline leads. Admission members see only
// their own assignments; elevated roles see everything.
func AdmissionLeadsHandler(c *gin.Context) {
	query := config.DB.
		Preload("AssignedTo").
		Preload("AssignedBy").
		Preload("AdmittedToCourse").
		Preload("AdmittedToBatch").
		Preload("FollowUps.By").
		Order("created_at DESC")

	if middleware.CurrentRole(c) == models.RoleAdmission {
		query = query.Where("assigned_to_id = ?", middleware.CurrentUserID(c))
	}
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

type transitionInput struct {
	Status           models.LeadStatus `json:"status"`
	Note             string            `json:"note"`
	NextFollowUpDate string            `json:"nextFollowUpDate"`
	CourseID         *uint             `json:"courseId"`
	BatchID          *uint             `json:"batchId"`
}

// TransitionLeadHandler moves a lead through the pipeline. Side effects per
// target state: Counseling restamps counselingAt; In Follow Up appends a
// follow-up entry; Admitted stamps admittedAt once and enrolls the lead in
// the supplied batch; Not Admitted appends a tagged reason note. Re-submitting
// In Follow Up with a note while already in that state records another
// follow-up without a state change.
func TransitionLeadHandler(c *gin.Context) {
	var input transitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if !isValidStatus(input.Status) {
		fail(c, http.StatusBadRequest, "INVALID_STATUS", fmt.Sprintf("Unknown status %q", input.Status))
		return
	}

	var lead models.Lead
	if err := config.DB.First(&lead, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	role := middleware.CurrentRole(c)
	actorID := middleware.CurrentUserID(c)
	if role == models.RoleAdmission {
		if lead.AssignedToID == nil || *lead.AssignedToID != actorID {
			fail(c, http.StatusForbidden, "FORBIDDEN", "Lead is not assigned to you")
			return
		}
	} else if !role.Elevated() {
		fail(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
		return
	}

	followUpRepeat := lead.Status == models.LeadInFollowUp &&
		input.Status == models.LeadInFollowUp &&
		strings.TrimSpace(input.Note) != ""
	if !followUpRepeat && !transitionAllowed(lead.Status, input.Status) {
		fail(c, http.StatusBadRequest, "BAD_TRANSITION",
			fmt.Sprintf("Cannot move lead from %q to %q", lead.Status, input.Status))
		return
	}

	now := time.Now()
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		switch input.Status {
		case models.LeadCounseling:
			lead.CounselingAt = &now

		case models.LeadInFollowUp:
			if err := tx.Create(&models.FollowUp{
				LeadID: lead.ID,
				Note:   input.Note,
				At:     now,
				ByID:   &actorID,
			}).Error; err != nil {
				return err
			}
			if next, err := parseDatePtr(input.NextFollowUpDate); err == nil && next != nil {
				lead.NextFollowUpDate = next
			}

		case models.LeadAdmitted:
			if lead.AdmittedAt == nil {
				lead.AdmittedAt = &now
			}
			if input.CourseID != nil {
				var course models.Course
				if err := tx.First(&course, *input.CourseID).Error; err != nil {
					return fmt.Errorf("course: %w", gorm.ErrRecordNotFound)
				}
				lead.AdmittedToCourseID = input.CourseID
			}
			if input.BatchID != nil {
				var batch models.Batch
				if err := tx.First(&batch, *input.BatchID).Error; err != nil {
					return fmt.Errorf("batch: %w", gorm.ErrRecordNotFound)
				}
				lead.AdmittedToBatchID = input.BatchID
				var existing int64
				tx.Model(&models.BatchStudent{}).
					Where("batch_id = ? AND lead_id = ?", batch.ID, lead.ID).
					Count(&existing)
				if existing == 0 {
					if err := tx.Create(&models.BatchStudent{
						BatchID:    batch.ID,
						LeadID:     lead.ID,
						AdmittedAt: now,
					}).Error; err != nil {
						return err
					}
				}
			}

		case models.LeadNotAdmitted:
			note := input.Note
			if note == "" {
				note = "No reason given"
			}
			if err := tx.Create(&models.FollowUp{
				LeadID: lead.ID,
				Note:   "Not admitted: " + note,
				At:     now,
				ByID:   &actorID,
			}).Error; err != nil {
				return err
			}
		}

		lead.Status = input.Status
		return tx.Save(&lead).Error
	})
	if err != nil {
		if strings.Contains(err.Error(), gorm.ErrRecordNotFound.Error()) {
			fail(c, http.StatusNotFound, "NOT_FOUND", "Referenced course or batch not found")
			return
		}
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update lead status")
		return
	}

	LogActivity(c, "UPDATE", "Lead", lead.Name,
		fmt.Sprintf("Lead %s moved to %s", lead.LeadID, input.Status))
	config.DB.Preload("AssignedTo").Preload("AdmittedToCourse").Preload("AdmittedToBatch").
		Preload("FollowUps.By").First(&lead, lead.ID)
	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// UndoAdmissionHandler reverses an admission as one transaction: remove the
// lead from its batch roster, reject every non-Rejected fee for the lead with
// an audit note, and put the lead back in In Follow Up with the admission
// markers cleared.
func UndoAdmissionHandler(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}
	if lead.Status != models.LeadAdmitted {
		fail(c, http.StatusBadRequest, "INVALID_STATE", "Lead is not admitted")
		return
	}

	actorName := c.GetString("userName")
	now := time.Now()
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if lead.AdmittedToBatchID != nil {
			if err := tx.Where("batch_id = ? AND lead_id = ?", *lead.AdmittedToBatchID, lead.ID).
				Delete(&models.BatchStudent{}).Error; err != nil {
				return err
			}
		}

		var fees []models.AdmissionFee
		if err := tx.Where("lead_id = ? AND status <> ?", lead.ID, models.StatusRejected).
			Find(&fees).Error; err != nil {
			return err
		}
		for i := range fees {
			note := fmt.Sprintf("[CANCELLED by %s on %s] Admission undone",
				actorName, now.Format("2006-01-02"))
			if fees[i].Note != "" {
				note = fees[i].Note + "\n" + note
			}
			fees[i].Note = note
			fees[i].Status = models.StatusRejected
			if err := tx.Save(&fees[i]).Error; err != nil {
				return err
			}
		}

		lead.Status = models.LeadInFollowUp
		lead.AdmittedAt = nil
		lead.AdmittedToCourseID = nil
		lead.AdmittedToBatchID = nil
		return tx.Select("status", "admitted_at", "admitted_to_course_id", "admitted_to_batch_id").
			Save(&lead).Error
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to undo admission")
		return
	}

	LogActivity(c, "UPDATE", "Lead", lead.Name,
		fmt.Sprintf("Admission undone for lead %s", lead.LeadID))
	config.DB.Preload("FollowUps.By").First(&lead, lead.ID)
	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

type submitFeeInput struct {
	LeadID          uint    `json:"leadId"`
	CourseID        *uint   `json:"courseId"`
	CourseName      string  `json:"courseName"`
	TotalAmount     float64 `json:"totalAmount"`
	Amount          float64 `json:"amount"`
	Method          string  `json:"method"`
	PaymentDate     string  `json:"paymentDate"`
	NextPaymentDate string  `json:"nextPaymentDate"`
	Note            string  `json:"note"`
}

// SubmitFeeHandler records a collected admission fee as a Pending entry
// awaiting accountant approval. Only the lead's assignee may submit, and an
// already-admitted lead is refused: past admission the coordinator's due
// collection flow owns further payments.
func SubmitFeeHandler(c *gin.Context) {
	var input submitFeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.LeadID == 0 || input.CourseName == "" || input.Method == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "leadId, courseName and method required")
		return
	}
	if input.Amount <= 0 || input.TotalAmount <= 0 || input.Amount > input.TotalAmount {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid amounts")
		return
	}

	var lead models.Lead
	if err := config.DB.First(&lead, input.LeadID).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	role := middleware.CurrentRole(c)
	actorID := middleware.CurrentUserID(c)
	if role == models.RoleAdmission && (lead.AssignedToID == nil || *lead.AssignedToID != actorID) {
		fail(c, http.StatusForbidden, "FORBIDDEN", "Lead is not assigned to you")
		return
	}
	if lead.Status == models.LeadAdmitted {
		fail(c, http.StatusBadRequest, "INVALID_STATE", "Lead already admitted; use due collection for further payments")
		return
	}

	paymentDate, err := parseDate(input.PaymentDate)
	if err != nil {
		paymentDate = time.Now()
	}
	nextPaymentDate, _ := parseDatePtr(input.NextPaymentDate)

	fee := models.AdmissionFee{
		LeadID:          lead.ID,
		CourseID:        input.CourseID,
		CourseName:      input.CourseName,
		TotalAmount:     input.TotalAmount,
		Amount:          input.Amount,
		DueAmount:       input.TotalAmount - input.Amount,
		Method:          input.Method,
		PaymentDate:     paymentDate,
		NextPaymentDate: nextPaymentDate,
		Note:            input.Note,
		Status:          models.StatusPending,
		SubmittedByID:   actorID,
	}
	if err := config.DB.Create(&fee).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to submit fee")
		return
	}

	LogActivity(c, "CREATE", "AdmissionFee", lead.Name,
		fmt.Sprintf("Fee of %.2f submitted for lead %s", fee.Amount, lead.LeadID))
	c.JSON(http.StatusCreated, gin.H{"fee": fee})
}

// FeeStatusHandler reports whether a lead already has an approved fee, so the
// admission UI can route a payment to the right flow.
func FeeStatusHandler(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}

	var fee models.AdmissionFee
	err := config.DB.
		Where("lead_id = ? AND status = ?", lead.ID, models.StatusApproved).
		Order("created_at DESC").
		First(&fee).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{"hasApprovedFee": false})
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to check fee status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasApprovedFee": true, "fee": fee})
}

// FollowUpNotificationsHandler lists leads whose next follow-up date is due.
// Admission members see their own upcoming follow-ups (next 3 days); elevated
// roles see everything already overdue.
func FollowUpNotificationsHandler(c *gin.Context) {
	role := middleware.CurrentRole(c)
	now := time.Now()

	query := config.DB.
		Preload("AssignedTo").
		Where("status IN ?", []models.LeadStatus{models.LeadCounseling, models.LeadInFollowUp}).
		Where("next_follow_up_date IS NOT NULL").
		Order("next_follow_up_date ASC")

	switch {
	case role == models.RoleAdmission:
		query = query.
			Where("assigned_to_id = ?", middleware.CurrentUserID(c)).
			Where("next_follow_up_date <= ?", endOfDay(now.Add(72*time.Hour)))
	case role.Elevated():
		query = query.Where("next_follow_up_date < ?", startOfToday())
	default:
		fail(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
		return
	}

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}
