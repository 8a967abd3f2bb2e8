package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/internal/middleware"
	"edupoint-crm/models"

	"github.com/divan/num2words"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// amountInWords renders an integer amount for audit notes, e.g.
// "five thousand taka only".
func amountInWords(amount float64) string {
	return num2words.Convert(int(amount)) + " taka only"
}

// ListFeesHandler returns admission fees, optionally filtered by status.
func ListFeesHandler(c *gin.Context) {
	query := config.DB.
		Preload("Lead").
		Preload("SubmittedBy").
		Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var fees []models.AdmissionFee
	if err := query.Find(&fees).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch fees")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": fees})
}

type feeDecisionInput struct {
	Action string `json:"action"` // approve | reject | cancel
	Reason string `json:"reason"`
}

// DecideFeeHandler is the accountant's approve/reject/cancel gate on a
// submitted admission fee. Approval recognizes the paid amount as Income
// exactly once: a fee approved twice still yields a single Income row.
// Cancel only applies to an Approved fee, needs a reason, and deliberately
// does not retract the Income posted at approval; the books are corrected by
// a manual compensating entry.
func DecideFeeHandler(c *gin.Context) {
	var input feeDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var fee models.AdmissionFee
	if err := config.DB.Preload("Lead").First(&fee, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Fee not found")
		return
	}

	actorID := middleware.CurrentUserID(c)
	actorName := c.GetString("userName")
	now := time.Now()

	switch input.Action {
	case "approve":
		err := config.DB.Transaction(func(tx *gorm.DB) error {
			fee.Status = models.StatusApproved
			fee.DueAmount = fee.TotalAmount - fee.Amount
			if err := tx.Save(&fee).Error; err != nil {
				return err
			}

			var existing int64
			tx.Model(&models.Income{}).
				Where("ref_type = ? AND ref_id = ?", models.RefAdmissionFee, fee.ID).
				Count(&existing)
			if existing > 0 {
				return nil
			}

			leadName := ""
			if fee.Lead != nil {
				leadName = fee.Lead.Name
			}
			return tx.Create(&models.Income{
				Date:      fee.PaymentDate,
				Source:    "Admission Fee - " + fee.CourseName,
				Amount:    fee.Amount,
				RefType:   models.RefAdmissionFee,
				RefID:     &fee.ID,
				AddedByID: actorID,
				Note:      fmt.Sprintf("Admission fee from %s, %s", leadName, amountInWords(fee.Amount)),
			}).Error
		})
		if err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to approve fee")
			return
		}
		LogActivity(c, "APPROVE", "AdmissionFee", fee.CourseName,
			fmt.Sprintf("Approved fee #%d of %.2f", fee.ID, fee.Amount))

	case "reject":
		fee.Status = models.StatusRejected
		if err := config.DB.Save(&fee).Error; err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to reject fee")
			return
		}
		LogActivity(c, "REJECT", "AdmissionFee", fee.CourseName,
			fmt.Sprintf("Rejected fee #%d", fee.ID))

	case "cancel":
		if fee.Status != models.StatusApproved {
			fail(c, http.StatusBadRequest, "INVALID_STATUS", "Only approved fees can be cancelled")
			return
		}
		if strings.TrimSpace(input.Reason) == "" {
			fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason required")
			return
		}
		note := fmt.Sprintf("[CANCELLED by %s on %s] %s",
			actorName, now.Format("2006-01-02"), input.Reason)
		if fee.Note != "" {
			note = fee.Note + "\n" + note
		}
		fee.Note = note
		fee.Status = models.StatusRejected
		if err := config.DB.Save(&fee).Error; err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to cancel fee")
			return
		}
		LogActivity(c, "CANCEL", "AdmissionFee", fee.CourseName,
			fmt.Sprintf("Cancelled fee #%d: %s", fee.ID, input.Reason))

	default:
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "action must be approve, reject or cancel")
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee": fee})
}

// ListDueCollectionsHandler returns due-collection proposals, optionally
// filtered by status.
func ListDueCollectionsHandler(c *gin.Context) {
	query := config.DB.
		Preload("Lead").
		Preload("AdmissionFee").
		Preload("Coordinator").
		Preload("ReviewedBy").
		Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var collections []models.DueCollection
	if err := query.Find(&collections).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch due collections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

type dueDecisionInput struct {
	Action string `json:"action"` // approve | reject
	Note   string `json:"note"`
}

// DecideDueCollectionHandler settles a pending due-collection proposal. On
// approve, one transaction moves the collected amount onto the fee (amount up,
// due down), appends a note to the fee's audit trail, posts exactly one Income
// row referencing the collection, and stamps the reviewer. Reject touches only
// the collection's reviewer metadata.
func DecideDueCollectionHandler(c *gin.Context) {
	var input dueDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var collection models.DueCollection
	if err := config.DB.Preload("Lead").First(&collection, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Due collection not found")
		return
	}
	if collection.Status != models.StatusPending {
		fail(c, http.StatusBadRequest, "INVALID_STATUS", "Due collection already reviewed")
		return
	}

	actorID := middleware.CurrentUserID(c)
	actorName := c.GetString("userName")
	now := time.Now()

	switch input.Action {
	case "approve":
		err := config.DB.Transaction(func(tx *gorm.DB) error {
			var fee models.AdmissionFee
			if err := tx.First(&fee, collection.AdmissionFeeID).Error; err != nil {
				return err
			}

			fee.Amount += collection.Amount
			fee.DueAmount -= collection.Amount
			if collection.NextPaymentDate != nil {
				fee.NextPaymentDate = collection.NextPaymentDate
			}
			note := fmt.Sprintf("Due collected: %.2f on %s by %s (%s)",
				collection.Amount, collection.PaymentDate.Format("2006-01-02"),
				actorName, amountInWords(collection.Amount))
			if fee.Note != "" {
				note = fee.Note + "\n" + note
			}
			fee.Note = note
			if err := tx.Save(&fee).Error; err != nil {
				return err
			}

			leadName := ""
			if collection.Lead != nil {
				leadName = collection.Lead.Name
			}
			if err := tx.Create(&models.Income{
				Date:      collection.PaymentDate,
				Source:    "Due Collection - " + fee.CourseName,
				Amount:    collection.Amount,
				RefType:   models.RefDueCollection,
				RefID:     &collection.ID,
				AddedByID: actorID,
				Note:      fmt.Sprintf("Due payment from %s", leadName),
			}).Error; err != nil {
				return err
			}

			collection.Status = models.StatusApproved
			collection.ReviewedByID = &actorID
			collection.ReviewedAt = &now
			collection.ReviewNote = input.Note
			return tx.Save(&collection).Error
		})
		if err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to approve due collection")
			return
		}
		LogActivity(c, "APPROVE", "DueCollection", "",
			fmt.Sprintf("Approved due collection #%d of %.2f", collection.ID, collection.Amount))

	case "reject":
		collection.Status = models.StatusRejected
		collection.ReviewedByID = &actorID
		collection.ReviewedAt = &now
		collection.ReviewNote = input.Note
		if err := config.DB.Save(&collection).Error; err != nil {
			fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to reject due collection")
			return
		}
		LogActivity(c, "REJECT", "DueCollection", "",
			fmt.Sprintf("Rejected due collection #%d", collection.ID))

	default:
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "action must be approve or reject")
		return
	}

	c.JSON(http.StatusOK, gin.H{"collection": collection})
}

type incomeInput struct {
	Date   string  `json:"date"`
	Source string  `json:"source"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

// CreateIncomeHandler records a manual income row.
func CreateIncomeHandler(c *gin.Context) {
	var input incomeInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Source == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "source required")
		return
	}
	if input.Amount <= 0 {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive")
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		date = time.Now()
	}
	income := models.Income{
		Date:      date,
		Source:    input.Source,
		Amount:    input.Amount,
		RefType:   models.RefManual,
		AddedByID: middleware.CurrentUserID(c),
		Note:      input.Note,
	}
	if err := config.DB.Create(&income).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create income")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"income": income})
}

// UpdateIncomeHandler edits a manual income row. System-generated rows stay
// immutable so the fee and due-collection trails keep reconciling.
func UpdateIncomeHandler(c *gin.Context) {
	var income models.Income
	if err := config.DB.First(&income, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Income not found")
		return
	}
	if income.RefType != models.RefManual {
		fail(c, http.StatusBadRequest, "INVALID_STATE", "System-generated income cannot be edited")
		return
	}

	var input incomeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.Amount > 0 {
		income.Amount = input.Amount
	}
	if input.Source != "" {
		income.Source = input.Source
	}
	if d, err := parseDate(input.Date); err == nil {
		income.Date = d
	}
	income.Note = input.Note

	if err := config.DB.Save(&income).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update income")
		return
	}
	c.JSON(http.StatusOK, gin.H{"income": income})
}

// DeleteIncomeHandler removes a manual income row.
func DeleteIncomeHandler(c *gin.Context) {
	var income models.Income
	if err := config.DB.First(&income, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Income not found")
		return
	}
	if income.RefType != models.RefManual {
		fail(c, http.StatusBadRequest, "INVALID_STATE", "System-generated income cannot be deleted")
		return
	}
	if err := config.DB.Delete(&income).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete income")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type expenseInput struct {
	Date    string  `json:"date"`
	Purpose string  `json:"purpose"`
	Amount  float64 `json:"amount"`
	Note    string  `json:"note"`
}

// CreateExpenseHandler records an expense row.
func CreateExpenseHandler(c *gin.Context) {
	var input expenseInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Purpose == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "purpose required")
		return
	}
	if input.Amount <= 0 {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive")
		return
	}

	date, err := parseDate(input.Date)
	if err != nil {
		date = time.Now()
	}
	expense := models.Expense{
		Date:      date,
		Purpose:   input.Purpose,
		Amount:    input.Amount,
		AddedByID: middleware.CurrentUserID(c),
		Note:      input.Note,
	}
	if err := config.DB.Create(&expense).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to create expense")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// UpdateExpenseHandler edits an expense row.
func UpdateExpenseHandler(c *gin.Context) {
	var expense models.Expense
	if err := config.DB.First(&expense, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Expense not found")
		return
	}

	var input expenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if input.Amount > 0 {
		expense.Amount = input.Amount
	}
	if input.Purpose != "" {
		expense.Purpose = input.Purpose
	}
	if d, err := parseDate(input.Date); err == nil {
		expense.Date = d
	}
	expense.Note = input.Note

	if err := config.DB.Save(&expense).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to update expense")
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpenseHandler removes an expense row.
func DeleteExpenseHandler(c *gin.Context) {
	var expense models.Expense
	if err := config.DB.First(&expense, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Expense not found")
		return
	}
	if err := config.DB.Delete(&expense).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete expense")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListIncomesHandler returns income rows in a date range.
func ListIncomesHandler(c *gin.Context) {
	query := config.DB.Preload("AddedBy").Order("date DESC")
	if from, err := parseDate(c.Query("from")); err == nil {
		query = query.Where("date >= ?", from)
	}
	if to, err := parseDate(c.Query("to")); err == nil {
		query = query.Where("date <= ?", endOfDay(to))
	}

	var incomes []models.Income
	if err := query.Find(&incomes).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch incomes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"incomes": incomes})
}

// ListExpensesHandler returns expense rows in a date range.
func ListExpensesHandler(c *gin.Context) {
	query := config.DB.Preload("AddedBy").Order("date DESC")
	if from, err := parseDate(c.Query("from")); err == nil {
		query = query.Where("date >= ?", from)
	}
	if to, err := parseDate(c.Query("to")); err == nil {
		query = query.Where("date <= ?", endOfDay(to))
	}

	var expenses []models.Expense
	if err := query.Find(&expenses).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch expenses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// AccountingSummaryHandler aggregates the register for reporting: overall
// totals, per-source income breakdown, a per-day series, and the sum of
// outstanding dues on approved fees. A read-only derived view.
func AccountingSummaryHandler(c *gin.Context) {
	from, errFrom := parseDate(c.Query("from"))
	to, errTo := parseDate(c.Query("to"))
	if errTo == nil {
		to = endOfDay(to)
	}

	incomeQuery := config.DB.Model(&models.Income{})
	expenseQuery := config.DB.Model(&models.Expense{})
	if errFrom == nil {
		incomeQuery = incomeQuery.Where("date >= ?", from)
		expenseQuery = expenseQuery.Where("date >= ?", from)
	}
	if errTo == nil {
		incomeQuery = incomeQuery.Where("date <= ?", to)
		expenseQuery = expenseQuery.Where("date <= ?", to)
	}

	var incomes []models.Income
	var expenses []models.Expense
	if err := incomeQuery.Find(&incomes).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to aggregate incomes")
		return
	}
	if err := expenseQuery.Find(&expenses).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to aggregate expenses")
		return
	}

	totalIncome, totalExpense := 0.0, 0.0
	bySource := map[string]float64{}
	type dayBucket struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}
	daily := map[string]*dayBucket{}

	bucket := func(day string) *dayBucket {
		if daily[day] == nil {
			daily[day] = &dayBucket{}
		}
		return daily[day]
	}
	for _, row := range incomes {
		totalIncome += row.Amount
		bySource[row.Source] += row.Amount
		bucket(row.Date.Format("2006-01-02")).Income += row.Amount
	}
	for _, row := range expenses {
		totalExpense += row.Amount
		bucket(row.Date.Format("2006-01-02")).Expense += row.Amount
	}

	var presentDues float64
	config.DB.Model(&models.AdmissionFee{}).
		Where("status = ?", models.StatusApproved).
		Select("COALESCE(SUM(due_amount), 0)").
		Scan(&presentDues)

	c.JSON(http.StatusOK, gin.H{
		"totalIncome":  totalIncome,
		"totalExpense": totalExpense,
		"profit":       totalIncome - totalExpense,
		"bySource":     bySource,
		"daily":        daily,
		"presentDues":  presentDues,
	})
}
