package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense is an append-only realized-expense row, always entered manually.
type Expense struct {
	gorm.Model
	Date      time.Time `json:"date" gorm:"not null;index"`
	Purpose   string    `json:"purpose" gorm:"not null"`
	Amount    float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	AddedByID uint      `json:"addedById" gorm:"not null"`
	AddedBy   *User     `json:"addedBy,omitempty" gorm:"foreignKey:AddedByID"`
	Note      string    `json:"note"`
}
