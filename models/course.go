package models

import "gorm.io/gorm"

// Course represents an offered course. The course name also drives the
// category key of generated lead identifiers.
type Course struct {
	gorm.Model
	CourseID    string  `json:"courseId" gorm:"unique;not null;index"`
	Name        string  `json:"name" gorm:"not null"`
	Category    string  `json:"category"`
	Duration    string  `json:"duration"` // e.g. "4 Months"
	RegularFee  float64 `json:"regularFee" gorm:"type:numeric(12,2)"`
	DiscountFee float64 `json:"discountFee" gorm:"type:numeric(12,2)"`
	Teacher     string  `json:"teacher"`
	Details     string  `json:"details"`
	Status      string  `json:"status" gorm:"default:'Active'"`
}
