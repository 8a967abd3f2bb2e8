package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentBalance(t *testing.T) models.AccountBalance {
	t.Helper()
	var balance models.AccountBalance
	require.NoError(t, config.DB.First(&balance, "id = ?", models.SingletonBalanceID).Error)
	return balance
}

func TestDepositAndWithdrawFlow(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	w, body := doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
		"depositFrom": "Admission Fees", "amount": 10000.0,
	})
	requireStatus(t, w, http.StatusCreated)
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, 10000.0, tx["balanceAfter"])
	assert.Nil(t, tx["pettyCashAfter"])

	// No overdraft guard: the bank balance may go negative.
	w, body = doJSON(t, r, http.MethodPost, "/api/bank/withdraw", accountant, map[string]interface{}{
		"withdrawPurpose": "Rent", "amount": 12000.0,
	})
	requireStatus(t, w, http.StatusCreated)
	tx = body["transaction"].(map[string]interface{})
	assert.Equal(t, -2000.0, tx["balanceAfter"])

	balance := currentBalance(t)
	assert.Equal(t, -2000.0, balance.BankBalance)
	assert.Equal(t, 0.0, balance.PettyCash)
}

func TestPettyCashRoundTrip(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	w, _ := doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
		"depositFrom": "Admission Fees", "amount": 5000.0,
	})
	requireStatus(t, w, http.StatusCreated)

	// Withdrawing for petty cash moves money from bank to the drawer.
	w, body := doJSON(t, r, http.MethodPost, "/api/bank/withdraw", accountant, map[string]interface{}{
		"withdrawPurpose": models.PettyCashParty, "amount": 1500.0,
	})
	requireStatus(t, w, http.StatusCreated)
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, 3500.0, tx["balanceAfter"])
	assert.Equal(t, 1500.0, tx["pettyCashAfter"])

	// And depositing from petty cash moves it back.
	w, body = doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
		"depositFrom": models.PettyCashParty, "amount": 500.0,
	})
	requireStatus(t, w, http.StatusCreated)
	tx = body["transaction"].(map[string]interface{})
	assert.Equal(t, 4000.0, tx["balanceAfter"])
	assert.Equal(t, 1000.0, tx["pettyCashAfter"])

	balance := currentBalance(t)
	assert.Equal(t, 4000.0, balance.BankBalance)
	assert.Equal(t, 1000.0, balance.PettyCash)
}

func TestPettyCashDepositInsufficientFunds(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	// Seed petty cash with 500.
	w, _ := doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
		"depositFrom": "Admission Fees", "amount": 2000.0,
	})
	requireStatus(t, w, http.StatusCreated)
	w, _ = doJSON(t, r, http.MethodPost, "/api/bank/withdraw", accountant, map[string]interface{}{
		"withdrawPurpose": models.PettyCashParty, "amount": 500.0,
	})
	requireStatus(t, w, http.StatusCreated)

	var txCountBefore int64
	config.DB.Model(&models.BankTransaction{}).Count(&txCountBefore)
	before := currentBalance(t)

	w, body := doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
		"depositFrom": models.PettyCashParty, "amount": 1000.0,
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errCode(body))

	// Balances and the audit trail are untouched.
	after := currentBalance(t)
	assert.Equal(t, before.BankBalance, after.BankBalance)
	assert.Equal(t, before.PettyCash, after.PettyCash)
	var txCountAfter int64
	config.DB.Model(&models.BankTransaction{}).Count(&txCountAfter)
	assert.Equal(t, txCountBefore, txCountAfter)
}

func TestDeleteTransactionDoesNotReverseBalance(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)
	admin := createUser(t, "Admin", models.RoleAdmin)

	w, body := doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
		"depositFrom": "Admission Fees", "amount": 3000.0,
	})
	requireStatus(t, w, http.StatusCreated)
	txID := uint(body["transaction"].(map[string]interface{})["ID"].(float64))
	before := currentBalance(t)

	// Only elevated roles may delete audit rows.
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/bank/transactions/%d", txID), accountant, nil)
	requireStatus(t, w, http.StatusForbidden)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/bank/transactions/%d", txID), admin, nil)
	requireStatus(t, w, http.StatusOK)

	after := currentBalance(t)
	assert.Equal(t, before.BankBalance, after.BankBalance)
	assert.Equal(t, before.PettyCash, after.PettyCash)
}

func TestInvalidAmountRejected(t *testing.T) {
	r := setupRouter(t)
	accountant := createUser(t, "Acc One", models.RoleAccountant)

	for _, amount := range []float64{0, -50} {
		w, body := doJSON(t, r, http.MethodPost, "/api/bank/deposit", accountant, map[string]interface{}{
			"depositFrom": "Other", "amount": amount,
		})
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "INVALID_AMOUNT", errCode(body))
	}
}
