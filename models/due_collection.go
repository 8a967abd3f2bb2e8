package models

import (
	"time"

	"gorm.io/gorm"
)

// DueCollection is a coordinator's proposal to collect part of an approved
// fee's due amount. It has no effect on the fee until an accountant approves
// it; once Approved or Rejected only the reviewer metadata is ever written.
type DueCollection struct {
	gorm.Model
	AdmissionFeeID uint          `json:"admissionFeeId" gorm:"not null;index"`
	AdmissionFee   *AdmissionFee `json:"admissionFee,omitempty" gorm:"foreignKey:AdmissionFeeID"`
	LeadID         uint          `json:"leadId" gorm:"not null;index"`
	Lead           *Lead         `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	CoordinatorID  uint          `json:"coordinatorId" gorm:"not null;index"`
	Coordinator    *User         `json:"coordinator,omitempty" gorm:"foreignKey:CoordinatorID"`

	Amount          float64    `json:"amount" gorm:"type:numeric(12,2);not null"`
	PaymentMethod   string     `json:"paymentMethod" gorm:"default:'Cash'"`
	PaymentDate     time.Time  `json:"paymentDate" gorm:"not null"`
	NextPaymentDate *time.Time `json:"nextPaymentDate"`
	Note            string     `json:"note"`

	Status      ApprovalStatus `json:"status" gorm:"default:'Pending';index"`
	ReviewedByID *uint         `json:"reviewedById"`
	ReviewedBy   *User         `json:"reviewedBy,omitempty" gorm:"foreignKey:ReviewedByID"`
	ReviewedAt   *time.Time    `json:"reviewedAt"`
	ReviewNote   string        `json:"reviewNote"`
	SubmittedAt  time.Time     `json:"submittedAt"`
}

// DueFeesFollowUp tracks a coordinator's contact with a student about unpaid
// dues. Pure history, no ledger coupling.
type DueFeesFollowUp struct {
	gorm.Model
	AdmissionFeeID          uint       `json:"admissionFeeId" gorm:"not null;index"`
	LeadID                  uint       `json:"leadId" gorm:"not null"`
	CoordinatorID           uint       `json:"coordinatorId" gorm:"not null;index"`
	Coordinator             *User      `json:"coordinator,omitempty" gorm:"foreignKey:CoordinatorID"`
	FollowUpType            string     `json:"followUpType"`
	Note                    string     `json:"note"`
	PreviousNextPaymentDate *time.Time `json:"previousNextPaymentDate"`
	UpdatedNextPaymentDate  *time.Time `json:"updatedNextPaymentDate"`
	AmountPromised          float64    `json:"amountPromised" gorm:"type:numeric(12,2)"`
	ContactedAt             time.Time  `json:"contactedAt"`
}
