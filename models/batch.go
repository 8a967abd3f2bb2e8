package models

import (
	"time"

	"gorm.io/gorm"
)

// Batch groups admitted leads under a course category.
type Batch struct {
	gorm.Model
	BatchID         string         `json:"batchId" gorm:"unique;not null;index"`
	BatchName       string         `json:"batchName" gorm:"not null"`
	Category        string         `json:"category" gorm:"not null;index"`
	TargetedStudent int            `json:"targetedStudent" gorm:"not null"`
	Status          string         `json:"status" gorm:"default:'Active'"`
	CreatedByID     uint           `json:"createdById"`
	CreatedBy       *User          `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	Students        []BatchStudent `json:"students,omitempty" gorm:"foreignKey:BatchID"`
}

// BatchStudent is one roster entry. The (batch, lead) pair is unique so a
// lead can never be admitted into the same batch twice.
type BatchStudent struct {
	gorm.Model
	BatchID    uint      `json:"batchId" gorm:"not null;uniqueIndex:idx_batch_lead"`
	LeadID     uint      `json:"leadId" gorm:"not null;uniqueIndex:idx_batch_lead"`
	Lead       *Lead     `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	AdmittedAt time.Time `json:"admittedAt"`
}
