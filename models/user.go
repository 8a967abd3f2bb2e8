package models

import "gorm.io/gorm"

// Role is the fixed set of staff roles. Authorization is decided by a static
// operation -> roles table in the middleware package, never by ad-hoc string
// comparison in handlers.
type Role string

const (
	RoleSuperAdmin       Role = "SuperAdmin"
	RoleAdmin            Role = "Admin"
	RoleITAdmin          Role = "ITAdmin"
	RoleDigitalMarketing Role = "DigitalMarketing"
	RoleAdmission        Role = "Admission"
	RoleAccountant       Role = "Accountant"
	RoleCoordinator      Role = "Coordinator"
)

// Elevated reports whether the role may act on entities it does not own.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents a staff account.
type User struct {
	gorm.Model
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         Role   `json:"role" gorm:"not null;index"`
	IsActive     *bool  `json:"isActive" gorm:"default:true"`
}
