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

func TestManualIncomeExpenseAndSummary(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	today := time.Now().Format("2006-01-02")

	w, _ := doJSON(t, r, http.MethodPost, "/api/accounting/incomes", accountant,
		map[string]interface{}{"date": today, "source": "Workshop", "amount": 3000.0})
	requireStatus(t, w, http.StatusCreated)
	w, _ = doJSON(t, r, http.MethodPost, "/api/accounting/incomes", accountant,
		map[string]interface{}{"date": today, "source": "Workshop", "amount": 2000.0})
	requireStatus(t, w, http.StatusCreated)
	w, _ = doJSON(t, r, http.MethodPost, "/api/accounting/expenses", accountant,
		map[string]interface{}{"date": today, "purpose": "Rent", "amount": 1500.0})
	requireStatus(t, w, http.StatusCreated)

	w, body := doJSON(t, r, http.MethodGet, "/api/accounting/summary", accountant, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 5000.0, body["totalIncome"])
	assert.Equal(t, 1500.0, body["totalExpense"])
	assert.Equal(t, 3500.0, body["profit"])

	bySource := body["bySource"].(map[string]interface{})
	assert.Equal(t, 5000.0, bySource["Workshop"])

	daily := body["daily"].(map[string]interface{})
	day := daily[today].(map[string]interface{})
	assert.Equal(t, 5000.0, day["income"])
	assert.Equal(t, 1500.0, day["expense"])
}

func TestSummaryIncludesPresentDues(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	lead := seedAssignedLead(t, officer)
	approvedFee(t, r, officer, accountant, lead, 25000, 10000)

	w, body := doJSON(t, r, http.MethodGet, "/api/accounting/summary", accountant, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 15000.0, body["presentDues"])
	assert.Equal(t, 10000.0, body["totalIncome"])
}

func TestSystemIncomeIsImmutable(t *testing.T) {
	r := setupRouter(t)
	officer := createUser(t, "Adm One", models.RoleAdmission)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	lead := seedAssignedLead(t, officer)
	feeID := approvedFee(t, r, officer, accountant, lead, 25000, 10000)

	var income models.Income
	require.NoError(t, config.DB.
		Where("ref_type = ? AND ref_id = ?", models.RefAdmissionFee, feeID).
		First(&income).Error)

	w, body := doJSON(t, r, http.MethodPut,
		fmt.Sprintf("/api/accounting/incomes/%d", income.ID), accountant,
		map[string]interface{}{"amount": 1.0})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INVALID_STATE", errCode(body))

	w, body = doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("/api/accounting/incomes/%d", income.ID), accountant, nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INVALID_STATE", errCode(body))
}

func TestRegisterExportProducesWorkbook(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	w, _ := doJSON(t, r, http.MethodPost, "/api/accounting/incomes", accountant,
		map[string]interface{}{"date": time.Now().Format("2006-01-02"), "source": "Workshop", "amount": 3000.0})
	requireStatus(t, w, http.StatusCreated)

	w, _ = doJSON(t, r, http.MethodGet, "/api/accounting/export", accountant, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Greater(t, w.Body.Len(), 0)
}

func TestAccessPolicyGates(t *testing.T) {
	r := setupRouter(t)
	marketer := createUser(t, "DM One", models.RoleDigitalMarketing)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	// Marketing cannot touch the bank.
	w, body := doJSON(t, r, http.MethodPost, "/api/bank/deposit", marketer,
		map[string]interface{}{"depositFrom": "Other", "amount": 100.0})
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errCode(body))

	// Accountants cannot create leads.
	w, body = doJSON(t, r, http.MethodPost, "/api/leads", accountant,
		map[string]interface{}{"name": "Nope"})
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errCode(body))

	// Unauthenticated requests carry no role and are denied too.
	w, body = doJSON(t, r, http.MethodGet, "/api/fees", models.User{}, nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errCode(body))
}
