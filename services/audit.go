package services

import (
	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/models"
)

// LogAudit creates an audit log entry
func LogAudit(userID uint, username string, action models.AuditAction, groupID, pollID *uint, details string, ipAddress string) {
	log := models.AuditLog{
		UserID:    userID,
		Username:  username,
		Action:    action,
		GroupID:   groupID,
		PollID:    pollID,
		Details:   details,
		IPAddress: ipAddress,
	}

	// Fire and forget - don't block on audit logging
	go func() {
		database.DB.Create(&log)
	}()
}

// LogAuditSync creates an audit log entry synchronously
func LogAuditSync(userID uint, username string, action models.AuditAction, groupID, pollID *uint, details string, ipAddress string) error {
	log := models.AuditLog{
		UserID:    userID,
		Username:  username,
		Action:    action,
		GroupID:   groupID,
		PollID:    pollID,
		Details:   details,
		IPAddress: ipAddress,
	}

	return database.DB.Create(&log).Error
}
