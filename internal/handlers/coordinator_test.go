package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentsWithDuesWorklist(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	coordinator := createUser(t, "Coord One", models.RoleCoordinator)

	// One fee fully paid, one with an outstanding due.
	leadPaid := seedAssignedLead(t, officer)
	leadDue := seedAssignedLead(t, officer)
	approvedFee(t, r, officer, accountant, leadPaid, 20000, 20000)
	approvedFee(t, r, officer, accountant, leadDue, 25000, 10000)

	w, body := doJSON(t, r, http.MethodGet, "/api/coordinator/students-with-dues", coordinator, nil)
	requireStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 1, body["count"])
}

func TestPaymentNotificationsDueToday(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	coordinator := createUser(t, "Coord One", models.RoleCoordinator)

	lead := seedAssignedLead(t, officer)
	feeID := approvedFee(t, r, officer, accountant, lead, 25000, 10000)

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, config.DB.Model(&models.AdmissionFee{}).
		Where("id = ?", feeID).
		Update("next_payment_date", yesterday).Error)

	w, body := doJSON(t, r, http.MethodGet, "/api/coordinator/payment-notifications", coordinator, nil)
	requireStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 1, body["count"])

	// Pushing the date out clears the notification.
	w, _ = doJSON(t, r, http.MethodPut,
		fmt.Sprintf("/api/coordinator/fees/%d/payment-date", feeID), coordinator,
		map[string]interface{}{"nextPaymentDate": time.Now().AddDate(0, 0, 14).Format("2006-01-02")})
	requireStatus(t, w, http.StatusOK)

	w, body = doJSON(t, r, http.MethodGet, "/api/coordinator/payment-notifications", coordinator, nil)
	requireStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 0, body["count"])
}

func TestDueFollowUpLogsContact(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	coordinator := createUser(t, "Coord One", models.RoleCoordinator)

	lead := seedAssignedLead(t, officer)
	feeID := approvedFee(t, r, officer, accountant, lead, 25000, 10000)

	next := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	w, _ := doJSON(t, r, http.MethodPost, "/api/coordinator/due-follow-ups", coordinator,
		map[string]interface{}{
			"admissionFeeId":  feeID,
			"followUpType":    "Phone Call",
			"note":            "promised to pay next week",
			"amountPromised":  5000.0,
			"nextPaymentDate": next,
		})
	requireStatus(t, w, http.StatusCreated)

	var fee models.AdmissionFee
	require.NoError(t, config.DB.First(&fee, feeID).Error)
	require.NotNil(t, fee.NextPaymentDate)
	assert.Equal(t, next, fee.NextPaymentDate.Format("2006-01-02"))

	var followUps int64
	config.DB.Model(&models.DueFeesFollowUp{}).Where("admission_fee_id = ?", feeID).Count(&followUps)
	assert.EqualValues(t, 1, followUps)
}

func TestGenerateScheduleFromPlanFormulas(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	coordinator := createUser(t, "Coord One", models.RoleCoordinator)
	admin := createUser(t, "Admin", models.RoleAdmin)

	lead := seedAssignedLead(t, officer)
	feeID := approvedFee(t, r, officer, accountant, lead, 25000, 10000)

	w, body := doJSON(t, r, http.MethodPost, "/api/payment-plans", admin, map[string]interface{}{
		"name": "Half and Half",
		"installments": []map[string]interface{}{
			{"label": "First", "formula": "due * 0.5", "offsetDays": 0},
			{"label": "Second", "formula": "due * 0.5", "offsetDays": 30},
		},
	})
	requireStatus(t, w, http.StatusCreated)
	planID := uint(body["plan"].(map[string]interface{})["ID"].(float64))

	w, body = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/coordinator/fees/%d/schedule", feeID), coordinator,
		map[string]interface{}{"paymentPlanId": planID, "startDate": "2026-09-01"})
	requireStatus(t, w, http.StatusOK)

	schedule := body["schedule"].([]interface{})
	require.Len(t, schedule, 2)
	first := schedule[0].(map[string]interface{})
	assert.Equal(t, 7500.0, first["amount"]) // due is 15000
}

func TestCreatePlanRejectsBrokenFormula(t *testing.T) {
	r := setupRouter(t)
	admin := createUser(t, "Admin", models.RoleAdmin)

	w, body := doJSON(t, r, http.MethodPost, "/api/payment-plans", admin, map[string]interface{}{
		"name": "Broken",
		"installments": []map[string]interface{}{
			{"label": "Bad", "formula": "due **/ 2"},
		},
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", errCode(body))
}

func TestCoordinatorStats(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	coordinator := createUser(t, "Coord One", models.RoleCoordinator)

	lead := seedAssignedLead(t, officer)
	feeID := approvedFee(t, r, officer, accountant, lead, 25000, 10000)

	w, _ := doJSON(t, r, http.MethodPost, "/api/coordinator/collect-due", coordinator,
		map[string]interface{}{"admissionFeeId": feeID, "amount": 5000.0})
	requireStatus(t, w, http.StatusCreated)

	w, body := doJSON(t, r, http.MethodGet, "/api/coordinator/stats", coordinator, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 15000.0, body["totalDue"])
	assert.EqualValues(t, 1, body["studentsWithDues"])
	assert.EqualValues(t, 1, body["pendingCollections"])
}
