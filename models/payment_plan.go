package models

import "gorm.io/gorm"

// PaymentPlan is a named template for splitting an outstanding due amount
// into installments. Installment amounts are formulas evaluated against the
// fee ("total", "paid", "due"), so plans like "due / 3" or
// "(total - paid) * 0.5" work without code changes.
type PaymentPlan struct {
	gorm.Model
	Name         string            `json:"name" gorm:"unique;not null"`
	Description  string            `json:"description"`
	Installments []PlanInstallment `json:"installments" gorm:"foreignKey:PaymentPlanID"`
}

type PlanInstallment struct {
	gorm.Model
	PaymentPlanID uint   `json:"paymentPlanId" gorm:"not null;index"`
	Label         string `json:"label"`
	Formula       string `json:"formula" gorm:"not null"`
	// Days after the schedule start when this installment falls due.
	OffsetDays int `json:"offsetDays"`
}
