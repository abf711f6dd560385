package database

import (
	"fmt"

	"github.com/chxlky/trello-agent/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the sqlite file at dbPath and migrates the journal tables.
func Open(dbPath string) (*gorm.DB, error) {
	dbFile := sqlite.Open(dbPath)
	db, err := gorm.Open(dbFile, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.BacklogRun{}, &models.BacklogStep{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func Init(dbPath string) *gorm.DB {
	db, err := Open(dbPath)
	if err != nil {
		zap.L().Fatal("Failed to initialise database", zap.String("path", dbPath), zap.Error(err))
	}

	zap.L().Info("Database initialised and migrated successfully")

	return db
}
