package handlers

import (
	"fmt"
	"net/http"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/internal/middleware"
	"edupoint-crm/internal/sequence"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
)

// ListBatchesHandler returns all batches with their rosters.
func ListBatchesHandler(c *gin.Context) {
	var batches []models.Batch
	err := config.DB.
		Preload("CreatedBy").
		Preload("Students.Lead").
		Order("created_at DESC").
		Find(&batches).Error
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch batches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

type batchInput struct {
	BatchName       string `json:"batchName"`
	Category        string `json:"category"`
	TargetedStudent int    `json:"targetedStudent"`
	Status          string `json:"status"`
}

// CreateBatchHandler opens a new batch under a course category.
func CreateBatchHandler(c *gin.Context) {
	var input batchInput
	if err := c.ShouldBindJSON(&input); err != nil || input.BatchName == "" || input.Category == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "batchName and category required")
		return
	}

	batchID, err := sequence.NextBatchID(config.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to issue batch id")
		return
	}
	batch := models.Batch{
		BatchID:         batchID,
		BatchName:       input.BatchName,
		Category:        input.Category,
		TargetedStudent: input.TargetedStudent,
		CreatedByID:     middleware.CurrentUserID(c),
	}
	if input.Status != "" {
		batch.Status = input.Status
	}
	if err := config.DB.Create(&batch).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create batch")
		return
	}

	LogActivity(c, "CREATE", "Batch", batch.BatchName,
		fmt.Sprintf("Created batch %s (%s)", batch.BatchName, batch.BatchID))
	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

// UpdateBatchHandler edits batch metadata.
func UpdateBatchHandler(c *gin.Context) {
	var batch models.Batch
	if err := config.DB.First(&batch, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Batch not found")
		return
	}

	var input batchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.BatchName != "" {
		batch.BatchName = input.BatchName
	}
	if input.Category != "" {
		batch.Category = input.Category
	}
	if input.TargetedStudent > 0 {
		batch.TargetedStudent = input.TargetedStudent
	}
	if input.Status != "" {
		batch.Status = input.Status
	}

	if err := config.DB.Save(&batch).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update batch")
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch})
}

// DeleteBatchHandler removes an empty batch. A batch with students on its
// roster must be emptied first.
func DeleteBatchHandler(c *gin.Context) {
	var batch models.Batch
	if err := config.DB.First(&batch, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Batch not found")
		return
	}

	var enrolled int64
	config.DB.Model(&models.BatchStudent{}).Where("batch_id = ?", batch.ID).Count(&enrolled)
	if enrolled > 0 {
		fail(c, http.StatusBadRequest, "BATCH_NOT_EMPTY",
			fmt.Sprintf("Batch has %d student(s); remove them first", enrolled))
		return
	}

	if err := config.DB.Delete(&batch).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete batch")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type addStudentInput struct {
	LeadID uint `json:"leadId"`
}

// AddStudentHandler puts an admitted lead on a batch roster. The unique
// (batch, lead) index backs the duplicate guard.
func AddStudentHandler(c *gin.Context) {
	var input addStudentInput
	if err := c.ShouldBindJSON(&input); err != nil || input.LeadID == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "leadId required")
		return
	}

	var batch models.Batch
	if err := config.DB.First(&batch, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Batch not found")
		return
	}
	var lead models.Lead
	if err := config.DB.First(&lead, input.LeadID).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Lead not found")
		return
	}
	if lead.Status != models.LeadAdmitted {
		fail(c, http.StatusBadRequest, "INVALID_STATE", "Only admitted leads can join a batch")
		return
	}

	var existing int64
	config.DB.Model(&models.BatchStudent{}).
		Where("batch_id = ? AND lead_id = ?", batch.ID, lead.ID).
		Count(&existing)
	if existing > 0 {
		fail(c, http.StatusConflict, "ALREADY_ADMITTED", "Lead is already in this batch")
		return
	}

	entry := models.BatchStudent{
		BatchID:    batch.ID,
		LeadID:     lead.ID,
		AdmittedAt: time.Now(),
	}
	if err := config.DB.Create(&entry).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to add student")
		return
	}

	lead.AdmittedToBatchID = &batch.ID
	config.DB.Save(&lead)

	c.JSON(http.StatusCreated, gin.H{"student": entry})
}

// BatchReportHandler summarizes one batch: fill rate and per-student fee
// standing.
func BatchReportHandler(c *gin.Context) {
	var batch models.Batch
	err := config.DB.
		Preload("Students.Lead").
		First(&batch, c.Param("id")).Error
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Batch not found")
		return
	}

	type studentRow struct {
		Lead      *models.Lead `json:"lead"`
		Paid      float64      `json:"paid"`
		Due       float64      `json:"due"`
		FeeStatus string       `json:"feeStatus"`
	}
	rows := make([]studentRow, 0, len(batch.Students))
	for _, student := range batch.Students {
		row := studentRow{Lead: student.Lead, FeeStatus: "No Fee"}
		var fee models.AdmissionFee
		err := config.DB.
			Where("lead_id = ? AND status = ?", student.LeadID, models.StatusApproved).
			Order("created_at DESC").
			First(&fee).Error
		if err == nil {
			row.Paid = fee.Amount
			row.Due = fee.DueAmount
			row.FeeStatus = string(fee.Status)
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"batch":    batch,
		"enrolled": len(batch.Students),
		"targeted": batch.TargetedStudent,
		"students": rows,
	})
}
