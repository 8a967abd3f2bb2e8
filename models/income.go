package models

import (
	"time"

	"gorm.io/gorm"
)

// Income reference types. At most one Income row may exist per
// (RefType, RefID) pair for the non-manual types.
const (
	RefAdmissionFee  = "AdmissionFee"
	RefDueCollection = "DueCollection"
	RefManual        = "Manual"
)

// Income is an append-only realized-income row. Rows with RefType other than
// Manual are created by approval operations and point back at the record that
// generated them.
type Income struct {
	gorm.Model
	Date      time.Time `json:"date" gorm:"not null;index"`
	Source    string    `json:"source" gorm:"not null"`
	Amount    float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	RefType   string    `json:"refType" gorm:"default:'Manual';index:idx_income_ref"`
	RefID     *uint     `json:"refId" gorm:"index:idx_income_ref"`
	AddedByID uint      `json:"addedById" gorm:"not null"`
	AddedBy   *User     `json:"addedBy,omitempty" gorm:"foreignKey:AddedByID"`
	Note      string    `json:"note"`
}
