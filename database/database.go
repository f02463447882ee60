package database

import (
	"fmt"

	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/kyc"
	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/domain/properties"
	"bali-advisory/internal/domain/users"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB connects to Postgres and migrates every domain model.
func InitDB(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		// core
		&users.User{},
		&users.VerificationToken{},

		// billing
		&billing.Payment{},
		&billing.ProcessedEvent{},
		&billing.AffiliateCommission{},

		// site content and sales
		&leads.Lead{},
		&properties.Property{},
		&kyc.Document{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	log.Info().Msg("connected and migrated successfully")
	return db, nil
}
