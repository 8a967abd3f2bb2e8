package models

import "gorm.io/gorm"

// ActivityLog is the append-only audit feed written after successful state
// changes. Writes are fire-and-forget; a failed write never fails the
// operation that triggered it.
type ActivityLog struct {
	gorm.Model
	UserID     uint   `json:"userId" gorm:"index"`
	UserName   string `json:"userName"`
	UserEmail  string `json:"userEmail"`
	UserRole   string `json:"userRole"`
	Action     string `json:"action"` // CREATE, UPDATE, DELETE, APPROVE, CANCEL, ...
	EntityType string `json:"entityType"`
	EntityName string `json:"entityName"`
	Details    string `json:"details"`
}
