package handlers

import (
	"fmt"
	"net/http"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/internal/middleware"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadBalanceForUpdate fetches the cash-position singleton inside tx with a
// row lock, creating it at zero on first access. Every deposit/withdraw runs
// through this so concurrent operations serialize on the one row.
func loadBalanceForUpdate(tx *gorm.DB) (*models.AccountBalance, error) {
	balance := models.AccountBalance{ID: models.SingletonBalanceID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&balance).Error; err != nil {
		return nil, err
	}
	query := tx
	// sqlite has no row locks; its single-writer transaction serializes for us.
	if tx.Dialector.Name() != "sqlite" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&balance, "id = ?", models.SingletonBalanceID).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetBalanceHandler returns the current bank and petty cash position.
func GetBalanceHandler(c *gin.Context) {
	var balance models.AccountBalance
	err := config.DB.First(&balance, "id = ?", models.SingletonBalanceID).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{"bankBalance": 0.0, "pettyCash": 0.0})
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch balance")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bankBalance": balance.BankBalance,
		"pettyCash":   balance.PettyCash,
		"lastUpdated": balance.LastUpdated,
	})
}

type depositInput struct {
	DepositFrom      string  `json:"depositFrom"`
	DepositFromOther string  `json:"depositFromOther"`
	Amount           float64 `json:"amount"`
	Date             string  `json:"date"`
	Notes            string  `json:"notes"`
}

// DepositHandler moves money into the bank. A deposit sourced from petty cash
// is refused when petty cash cannot cover it; any other source only grows the
// bank balance. Both balances and the audit row commit together.
func DepositHandler(c *gin.Context) {
	var input depositInput
	if err := c.ShouldBindJSON(&input); err != nil || input.DepositFrom == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "depositFrom required")
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

	var entry models.BankTransaction
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		balance, err := loadBalanceForUpdate(tx)
		if err != nil {
			return err
		}

		var pettyCashAfter *float64
		if input.DepositFrom == models.PettyCashParty {
			if balance.PettyCash < input.Amount {
				return errInsufficientFunds
			}
			balance.PettyCash -= input.Amount
			after := balance.PettyCash
			pettyCashAfter = &after
		}
		balance.BankBalance += input.Amount
		balance.LastUpdated = time.Now()
		if err := tx.Save(balance).Error; err != nil {
			return err
		}

		entry = models.BankTransaction{
			Type:             models.TxDeposit,
			Date:             date,
			DepositFrom:      input.DepositFrom,
			DepositFromOther: input.DepositFromOther,
			Amount:           input.Amount,
			Notes:            input.Notes,
			BalanceAfter:     balance.BankBalance,
			PettyCashAfter:   pettyCashAfter,
			RecordedByID:     middleware.CurrentUserID(c),
		}
		return tx.Create(&entry).Error
	})
	if txErr == errInsufficientFunds {
		fail(c, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Petty cash cannot cover this deposit")
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to record deposit")
		return
	}

	LogActivity(c, "CREATE", "BankTransaction", input.DepositFrom,
		fmt.Sprintf("Deposit of %.2f from %s", input.Amount, input.DepositFrom))
	c.JSON(http.StatusCreated, gin.H{"transaction": entry})
}

type withdrawInput struct {
	WithdrawPurpose      string  `json:"withdrawPurpose"`
	WithdrawPurposeOther string  `json:"withdrawPurposeOther"`
	Amount               float64 `json:"amount"`
	Date                 string  `json:"date"`
	Notes                string  `json:"notes"`
}

// WithdrawHandler moves money out of the bank. There is no overdraft guard:
// the ledger mirrors the real bank statement, which can go negative. A
// withdrawal for petty cash tops up the petty cash balance.
func WithdrawHandler(c *gin.Context) {
	var input withdrawInput
	if err := c.ShouldBindJSON(&input); err != nil || input.WithdrawPurpose == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "withdrawPurpose required")
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

	var entry models.BankTransaction
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		balance, err := loadBalanceForUpdate(tx)
		if err != nil {
			return err
		}

		balance.BankBalance -= input.Amount
		var pettyCashAfter *float64
		if input.WithdrawPurpose == models.PettyCashParty {
			balance.PettyCash += input.Amount
			after := balance.PettyCash
			pettyCashAfter = &after
		}
		balance.LastUpdated = time.Now()
		if err := tx.Save(balance).Error; err != nil {
			return err
		}

		entry = models.BankTransaction{
			Type:                 models.TxWithdraw,
			Date:                 date,
			WithdrawPurpose:      input.WithdrawPurpose,
			WithdrawPurposeOther: input.WithdrawPurposeOther,
			Amount:               input.Amount,
			Notes:                input.Notes,
			BalanceAfter:         balance.BankBalance,
			PettyCashAfter:       pettyCashAfter,
			RecordedByID:         middleware.CurrentUserID(c),
		}
		return tx.Create(&entry).Error
	})
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to record withdrawal")
		return
	}

	LogActivity(c, "CREATE", "BankTransaction", input.WithdrawPurpose,
		fmt.Sprintf("Withdrawal of %.2f for %s", input.Amount, input.WithdrawPurpose))
	c.JSON(http.StatusCreated, gin.H{"transaction": entry})
}

// ListBankTransactionsHandler returns the newest audit rows, filterable by
// type and date range, capped at 100.
func ListBankTransactionsHandler(c *gin.Context) {
	query := config.DB.Preload("RecordedBy").Order("date DESC, id DESC").Limit(100)
	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}
	if from, err := parseDate(c.Query("from")); err == nil {
		query = query.Where("date >= ?", from)
	}
	if to, err := parseDate(c.Query("to")); err == nil {
		query = query.Where("date <= ?", endOfDay(to))
	}

	var transactions []models.BankTransaction
	if err := query.Find(&transactions).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// DeleteBankTransactionHandler removes an audit row without touching the
// balances. History is corrected by posting a compensating entry, never by
// rewriting the running balance.
func DeleteBankTransactionHandler(c *gin.Context) {
	var entry models.BankTransaction
	if err := config.DB.First(&entry, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Transaction not found")
		return
	}
	if err := config.DB.Delete(&entry).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to delete transaction")
		return
	}

	LogActivity(c, "DELETE", "BankTransaction", entry.Type,
		fmt.Sprintf("Deleted bank transaction #%d (%.2f)", entry.ID, entry.Amount))
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Transaction deleted; balances unchanged"})
}
