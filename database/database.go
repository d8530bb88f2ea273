package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"propmarket-go/models"
	"propmarket-go/utils"
)

// Initialize opens the store named by databaseURL and migrates the schema.
// postgres:// and postgresql:// URLs (or key=value DSNs containing host=)
// use PostgreSQL; anything else is treated as a SQLite path, including
// ":memory:".
func Initialize(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormLogger := logger.New(utils.Logger, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})

	dialector, isMemory := dialectorFor(databaseURL)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if isMemory {
		// every new connection to :memory: would see an empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.OTPCredential{},
		&models.Property{},
		&models.PropertyDocument{},
		&models.Inquiry{},
		&models.Favorite{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, bool) {
	if strings.HasPrefix(databaseURL, "postgres://") ||
		strings.HasPrefix(databaseURL, "postgresql://") ||
		strings.Contains(databaseURL, "host=") {
		return postgres.Open(databaseURL), false
	}
	return sqlite.Open(databaseURL), strings.Contains(databaseURL, ":memory:")
}

// LogLevelFor picks the gorm log level for an environment name.
func LogLevelFor(environment string) logger.LogLevel {
	if environment == "development" {
		return logger.Info
	}
	return logger.Warn
}
