package database

import (
	"github.com/Alex20563/Where2Go/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database at path and migrates the schema. Tests
// pass ":memory:".
func Connect(path string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	// Auto-migrate models
	err = DB.AutoMigrate(&models.User{}, &models.Group{}, &models.Poll{}, &models.ShareLink{}, &models.AuditLog{})
	if err != nil {
		return err
	}

	return nil
}
