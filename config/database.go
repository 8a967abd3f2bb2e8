package config

import (
	"log/slog"
	"os"

	"edupoint-crm/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	dsn := App.DBURL
	if dsn == "" {
		slog.Error("DB_URL is not set")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	DB = db
	slog.Info("Connected to database")
}

// AutoMigrate keeps the schema in sync with the model structs. It is shared
// with the test setup, which runs the same migrations against sqlite.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Batch{},
		&models.BatchStudent{},
		&models.Lead{},
		&models.FollowUp{},
		&models.LeadCounter{},
		&models.AdmissionFee{},
		&models.DueCollection{},
		&models.DueFeesFollowUp{},
		&models.Income{},
		&models.Expense{},
		&models.AccountBalance{},
		&models.BankTransaction{},
		&models.PaymentPlan{},
		&models.PlanInstallment{},
		&models.ActivityLog{},
	)
}
