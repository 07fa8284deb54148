package services

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collocshare/internal/logging"
	"collocshare/internal/models"
)

// gormConfig is shared by every connection. TranslateError is required so
// driver errors surface as gorm sentinel errors; handlers match on
// gorm.ErrDuplicatedKey to turn unique violations into 409s.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// InitDB initializes the database connection with connection pooling
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logging.Logger.Info("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	logging.Logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Colocation{},
		&models.Membership{},
		&models.Invitation{},
		&models.Expense{},
		&models.ExpenseParticipant{},
		&models.Settlement{},
		&models.ShoppingItem{},
		&models.RecurringExpense{},
		&models.ScheduledTask{},
		&models.ScheduledTaskHistory{},
	)
	if err != nil {
		return err
	}

	logging.Logger.Info("Database migrations completed")
	return nil
}
