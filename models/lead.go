package models

import (
	"time"

	"gorm.io/gorm"
)

// LeadStatus is the admission pipeline state of a lead.
type LeadStatus string

const (
	LeadAssigned    LeadStatus = "Assigned"
	LeadCounseling  LeadStatus = "Counseling"
	LeadInFollowUp  LeadStatus = "In Follow Up"
	LeadAdmitted    LeadStatus = "Admitted"
	LeadNotAdmitted LeadStatus = "Not Admitted"
)

// FollowUp is one entry of a lead's append-only follow-up log.
type FollowUp struct {
	gorm.Model
	LeadID uint      `json:"leadId" gorm:"not null;index"`
	Note   string    `json:"note"`
	At     time.Time `json:"at"`
	ByID   *uint     `json:"byId"`
	By     *User     `json:"by,omitempty" gorm:"foreignKey:ByID"`
}

// Lead represents a prospective student tracked through the admission pipeline.
// The human-readable LeadID (e.g. LEAD-2025-PCC-00042) is issued by the
// sequence package and never reused.
type Lead struct {
	gorm.Model
	LeadID           string     `json:"leadId" gorm:"unique;not null;index"`
	EntryDate        time.Time  `json:"entryDate"`
	Name             string     `json:"name" gorm:"not null"`
	Phone            string     `json:"phone" gorm:"index"`
	Email            string     `json:"email" gorm:"index"`
	InterestedCourse string     `json:"interestedCourse"`
	Source           string     `json:"source" gorm:"default:'Manually Generated Lead'"`
	Status           LeadStatus `json:"status" gorm:"default:'Assigned';index"`
	Notes            string     `json:"notes"`
	Priority         string     `json:"priority" gorm:"default:'Interested'"`
	NextFollowUpDate *time.Time `json:"nextFollowUpDate"`

	AssignedToID       *uint `json:"assignedToId"`
	AssignedByID       *uint `json:"assignedById"`
	AdmittedToCourseID *uint `json:"admittedToCourseId"`
	AdmittedToBatchID  *uint `json:"admittedToBatchId"`

	// stage timestamps
	AssignedAt   *time.Time `json:"assignedAt"`
	CounselingAt *time.Time `json:"counselingAt"`
	AdmittedAt   *time.Time `json:"admittedAt"`

	AssignedTo       *User      `json:"assignedTo,omitempty" gorm:"foreignKey:AssignedToID"`
	AssignedBy       *User      `json:"assignedBy,omitempty" gorm:"foreignKey:AssignedByID"`
	AdmittedToCourse *Course    `json:"admittedToCourse,omitempty" gorm:"foreignKey:AdmittedToCourseID"`
	AdmittedToBatch  *Batch     `json:"admittedToBatch,omitempty" gorm:"foreignKey:AdmittedToBatchID"`
	FollowUps        []FollowUp `json:"followUps,omitempty" gorm:"foreignKey:LeadID"`
}
