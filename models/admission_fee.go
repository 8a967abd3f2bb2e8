package models

import (
	"time"

	"gorm.io/gorm"
)

// ApprovalStatus is shared by the two approval-gated money records:
// admission fees and due collections.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "Pending"
	StatusApproved ApprovalStatus = "Approved"
	StatusRejected ApprovalStatus = "Rejected"
)

// AdmissionFee records money collected (or owed) against a lead's enrollment.
// Amount is the cumulative amount actually paid; DueAmount must always equal
// TotalAmount - Amount once the fee is approved. Note is an append-only audit
// trail: approval, cancellation and due collections add to it, nothing ever
// overwrites it.
type AdmissionFee struct {
	gorm.Model
	LeadID          uint           `json:"leadId" gorm:"not null;index"`
	Lead            *Lead          `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	CourseID        *uint          `json:"courseId"`
	CourseName      string         `json:"courseName" gorm:"not null"`
	TotalAmount     float64        `json:"totalAmount" gorm:"type:numeric(12,2)"`
	Amount          float64        `json:"amount" gorm:"type:numeric(12,2);not null"`
	DueAmount       float64        `json:"dueAmount" gorm:"type:numeric(12,2)"`
	Method          string         `json:"method" gorm:"not null"`
	PaymentDate     time.Time      `json:"paymentDate" gorm:"not null"`
	NextPaymentDate *time.Time     `json:"nextPaymentDate"`
	Note            string         `json:"note" gorm:"type:text"`
	Status          ApprovalStatus `json:"status" gorm:"default:'Pending';index"`
	SubmittedByID   uint           `json:"submittedById" gorm:"not null"`
	SubmittedBy     *User          `json:"submittedBy,omitempty" gorm:"foreignKey:SubmittedByID"`
}
