package handlers

import (
	"fmt"
	"net/http"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/internal/middleware"
	"edupoint-crm/models"

	"github.com/Knetic/govaluate"
	"github.com/gin-gonic/gin"
)

// StudentsWithDuesHandler lists approved fees that still carry an outstanding
// due amount, with the lead attached. This is the coordinator's worklist.
func StudentsWithDuesHandler(c *gin.Context) {
	var fees []models.AdmissionFee
	err := config.DB.
		Preload("Lead").
		Preload("SubmittedBy").
		Where("status = ? AND due_amount > 0", models.StatusApproved).
		Order("next_payment_date ASC NULLS LAST").
		Find(&fees).Error
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch dued fees")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": fees, "count": len(fees)})
}

// PaymentNotificationsHandler returns dued fees whose next payment date falls
// today or earlier, so the coordinator knows who to chase.
func PaymentNotificationsHandler(c *gin.Context) {
	var fees []models.AdmissionFee
	err := config.DB.
		Preload("Lead").
		Where("status = ? AND due_amount > 0", models.StatusApproved).
		Where("next_payment_date IS NOT NULL AND next_payment_date <= ?", endOfDay(time.Now())).
		Order("next_payment_date ASC").
		Find(&fees).Error
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": fees, "count": len(fees)})
}

// StudentPaymentHistoryHandler returns one fee with its collection attempts
// and follow-up contacts.
func StudentPaymentHistoryHandler(c *gin.Context) {
	var fee models.AdmissionFee
	if err := config.DB.Preload("Lead").First(&fee, c.Param("feeId")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Fee not found")
		return
	}

	var collections []models.DueCollection
	config.DB.
		Preload("Coordinator").Preload("ReviewedBy").
		Where("admission_fee_id = ?", fee.ID).
		Order("created_at DESC").
		Find(&collections)

	var followUps []models.DueFeesFollowUp
	config.DB.
		Preload("Coordinator").
		Where("admission_fee_id = ?", fee.ID).
		Order("contacted_at DESC").
		Find(&followUps)

	c.JSON(http.StatusOK, gin.H{
		"fee":         fee,
		"collections": collections,
		"followUps":   followUps,
	})
}

type collectDueInput struct {
	AdmissionFeeID  uint    `json:"admissionFeeId"`
	Amount          float64 `json:"amount"`
	PaymentMethod   string  `json:"paymentMethod"`
	PaymentDate     string  `json:"paymentDate"`
	NextPaymentDate string  `json:"nextPaymentDate"`
	Note            string  `json:"note"`
}

// CollectDueHandler submits a due-collection proposal. The fee is untouched
// until an accountant approves; the proposal only validates that the amount
// fits inside the outstanding due.
func CollectDueHandler(c *gin.Context) {
	var input collectDueInput
	if err := c.ShouldBindJSON(&input); err != nil || input.AdmissionFeeID == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "admissionFeeId required")
		return
	}

	var fee models.AdmissionFee
	if err := config.DB.First(&fee, input.AdmissionFeeID).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Fee not found")
		return
	}
	if fee.Status != models.StatusApproved {
		fail(c, http.StatusBadRequest, "INVALID_STATUS", "Fee is not approved")
		return
	}
	if input.Amount <= 0 || input.Amount > fee.DueAmount {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT",
			fmt.Sprintf("Amount must be between 0 and %.2f", fee.DueAmount))
		return
	}

	paymentDate, err := parseDate(input.PaymentDate)
	if err != nil {
		paymentDate = time.Now()
	}
	nextPaymentDate, _ := parseDatePtr(input.NextPaymentDate)
	method := input.PaymentMethod
	if method == "" {
		method = "Cash"
	}

	collection := models.DueCollection{
		AdmissionFeeID:  fee.ID,
		LeadID:          fee.LeadID,
		CoordinatorID:   middleware.CurrentUserID(c),
		Amount:          input.Amount,
		PaymentMethod:   method,
		PaymentDate:     paymentDate,
		NextPaymentDate: nextPaymentDate,
		Note:            input.Note,
		Status:          models.StatusPending,
		SubmittedAt:     time.Now(),
	}
	if err := config.DB.Create(&collection).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to submit due collection")
		return
	}

	LogActivity(c, "CREATE", "DueCollection", "",
		fmt.Sprintf("Submitted due collection of %.2f for fee #%d", input.Amount, fee.ID))
	c.JSON(http.StatusCreated, gin.H{"collection": collection})
}

type dueFollowUpInput struct {
	AdmissionFeeID  uint    `json:"admissionFeeId"`
	FollowUpType    string  `json:"followUpType"`
	Note            string  `json:"note"`
	AmountPromised  float64 `json:"amountPromised"`
	NextPaymentDate string  `json:"nextPaymentDate"`
}

// AddDueFollowUpHandler records a contact about unpaid dues and optionally
// pushes the fee's next payment date. History only, no ledger coupling.
func AddDueFollowUpHandler(c *gin.Context) {
	var input dueFollowUpInput
	if err := c.ShouldBindJSON(&input); err != nil || input.AdmissionFeeID == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "admissionFeeId required")
		return
	}

	var fee models.AdmissionFee
	if err := config.DB.First(&fee, input.AdmissionFeeID).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Fee not found")
		return
	}

	followUp := models.DueFeesFollowUp{
		AdmissionFeeID:          fee.ID,
		LeadID:                  fee.LeadID,
		CoordinatorID:           middleware.CurrentUserID(c),
		FollowUpType:            input.FollowUpType,
		Note:                    input.Note,
		AmountPromised:          input.AmountPromised,
		PreviousNextPaymentDate: fee.NextPaymentDate,
		ContactedAt:             time.Now(),
	}

	if next, err := parseDatePtr(input.NextPaymentDate); err == nil && next != nil {
		followUp.UpdatedNextPaymentDate = next
		fee.NextPaymentDate = next
		if err := config.DB.Save(&fee).Error; err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update payment date")
			return
		}
	}
	if err := config.DB.Create(&followUp).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to record follow-up")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"followUp": followUp})
}

type paymentDateInput struct {
	NextPaymentDate string `json:"nextPaymentDate"`
}

// UpdatePaymentDateHandler moves a fee's next payment date without touching
// any amounts.
func UpdatePaymentDateHandler(c *gin.Context) {
	var input paymentDateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next, err := parseDatePtr(input.NextPaymentDate)
	if err != nil || next == nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "nextPaymentDate must be YYYY-MM-DD")
		return
	}

	var fee models.AdmissionFee
	if err := config.DB.First(&fee, c.Param("feeId")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Fee not found")
		return
	}

	fee.NextPaymentDate = next
	if err := config.DB.Save(&fee).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update payment date")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee": fee})
}

// CoordinatorStatsHandler aggregates the coordinator dashboard: outstanding
// dues, pending proposals, and this month's approved collections.
func CoordinatorStatsHandler(c *gin.Context) {
	var totalDue float64
	config.DB.Model(&models.AdmissionFee{}).
		Where("status = ? AND due_amount > 0", models.StatusApproved).
		Select("COALESCE(SUM(due_amount), 0)").
		Scan(&totalDue)

	var studentsWithDues int64
	config.DB.Model(&models.AdmissionFee{}).
		Where("status = ? AND due_amount > 0", models.StatusApproved).
		Count(&studentsWithDues)

	var pendingCollections int64
	config.DB.Model(&models.DueCollection{}).
		Where("status = ?", models.StatusPending).
		Count(&pendingCollections)

	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Local)
	var collectedThisMonth float64
	config.DB.Model(&models.DueCollection{}).
		Where("status = ? AND reviewed_at >= ?", models.StatusApproved, monthStart).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&collectedThisMonth)

	c.JSON(http.StatusOK, gin.H{
		"totalDue":           totalDue,
		"studentsWithDues":   studentsWithDues,
		"pendingCollections": pendingCollections,
		"collectedThisMonth": collectedThisMonth,
	})
}

type scheduleInput struct {
	PaymentPlanID uint   `json:"paymentPlanId"`
	StartDate     string `json:"startDate"`
}

// scheduleEntry is one proposed installment of a payment plan.
type scheduleEntry struct {
	Label   string    `json:"label"`
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"dueDate"`
}

// GenerateScheduleHandler evaluates a named payment plan against a fee's
// current totals and proposes the installment schedule. The formulas see
// "total", "paid" and "due"; nothing is persisted, the coordinator submits
// each installment as a due collection when the money actually arrives.
func GenerateScheduleHandler(c *gin.Context) {
	var input scheduleInput
	if err := c.ShouldBindJSON(&input); err != nil || input.PaymentPlanID == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "paymentPlanId required")
		return
	}

	var fee models.AdmissionFee
	if err := config.DB.First(&fee, c.Param("feeId")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Fee not found")
		return
	}
	if fee.Status != models.StatusApproved || fee.DueAmount <= 0 {
		fail(c, http.StatusBadRequest, "INVALID_STATE", "Fee has no outstanding due")
		return
	}

	var plan models.PaymentPlan
	if err := config.DB.Preload("Installments").First(&plan, input.PaymentPlanID).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Payment plan not found")
		return
	}

	start, err := parseDate(input.StartDate)
	if err != nil {
		start = time.Now()
	}

	parameters := map[string]interface{}{
		"total": fee.TotalAmount,
		"paid":  fee.Amount,
		"due":   fee.DueAmount,
	}

	var schedule []scheduleEntry
	for _, installment := range plan.Installments {
		expression, err := govaluate.NewEvaluableExpression(installment.Formula)
		if err != nil {
			fail(c, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Bad formula %q: %v", installment.Formula, err))
			return
		}
		result, err := expression.Evaluate(parameters)
		if err != nil {
			fail(c, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Formula %q failed: %v", installment.Formula, err))
			return
		}
		amount, ok := result.(float64)
		if !ok || amount <= 0 {
			fail(c, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Formula %q did not yield a positive amount", installment.Formula))
			return
		}
		schedule = append(schedule, scheduleEntry{
			Label:   installment.Label,
			Amount:  amount,
			DueDate: start.AddDate(0, 0, installment.OffsetDays),
		})
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan.Name, "schedule": schedule})
}

// ListPaymentPlansHandler returns the named installment templates.
func ListPaymentPlansHandler(c *gin.Context) {
	var plans []models.PaymentPlan
	if err := config.DB.Preload("Installments").Find(&plans).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch payment plans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

type planInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Installments []struct {
		Label      string `json:"label"`
		Formula    string `json:"formula"`
		OffsetDays int    `json:"offsetDays"`
	} `json:"installments"`
}

// CreatePaymentPlanHandler stores a new installment template. Formulas are
// validated up front so a broken plan never reaches schedule generation.
func CreatePaymentPlanHandler(c *gin.Context) {
	var input planInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Name == "" || len(input.Installments) == 0 {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "name and installments required")
		return
	}

	plan := models.PaymentPlan{Name: input.Name, Description: input.Description}
	for _, installment := range input.Installments {
		if _, err := govaluate.NewEvaluableExpression(installment.Formula); err != nil {
			fail(c, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Bad formula %q: %v", installment.Formula, err))
			return
		}
		plan.Installments = append(plan.Installments, models.PlanInstallment{
			Label:      installment.Label,
			Formula:    installment.Formula,
			OffsetDays: installment.OffsetDays,
		})
	}

	if err := config.DB.Create(&plan).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create payment plan")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}
