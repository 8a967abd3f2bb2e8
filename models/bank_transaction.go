package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TxDeposit  = "deposit"
	TxWithdraw = "withdraw"
)

// Source/purpose value that couples a bank operation to petty cash.
const PettyCashParty = "Petty Cash"

// BankTransaction is an immutable audit row written after every deposit or
// withdrawal. Rows are never updated; deleting one does not reverse the
// singleton balance — operators post a compensating entry instead.
type BankTransaction struct {
	gorm.Model
	Type string    `json:"type" gorm:"not null;index"`
	Date time.Time `json:"date" gorm:"not null;index"`

	DepositFrom          string `json:"depositFrom,omitempty"`
	DepositFromOther     string `json:"depositFromOther,omitempty"`
	WithdrawPurpose      string `json:"withdrawPurpose,omitempty"`
	WithdrawPurposeOther string `json:"withdrawPurposeOther,omitempty"`

	Amount       float64  `json:"amount" gorm:"type:numeric(12,2);not null"`
	Notes        string   `json:"notes"`
	BalanceAfter float64  `json:"balanceAfter" gorm:"type:numeric(14,2);not null"`
	// Set only when the operation also moved petty cash.
	PettyCashAfter *float64 `json:"pettyCashAfter,omitempty" gorm:"type:numeric(14,2)"`

	RecordedByID uint  `json:"recordedById" gorm:"not null"`
	RecordedBy   *User `json:"recordedBy,omitempty" gorm:"foreignKey:RecordedByID"`
}
