package models

import "time"

// SingletonBalanceID is the fixed primary key of the one AccountBalance row.
const SingletonBalanceID = "singleton"

// AccountBalance is the cash-position singleton: exactly one row ever exists,
// lazily created with zero balances on first access. All mutation goes through
// the bank handlers; nothing else writes these fields.
type AccountBalance struct {
	ID          string    `json:"-" gorm:"primaryKey"`
	BankBalance float64   `json:"bankBalance" gorm:"type:numeric(14,2)"`
	PettyCash   float64   `json:"pettyCash" gorm:"type:numeric(14,2)"`
	LastUpdated time.Time `json:"lastUpdated"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
