package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/middleware"
	"github.com/Alex20563/Where2Go/models"
)

// ListAuditLogs returns the current user's recent audit entries
func ListAuditLogs(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	result := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit logs",
		})
	}

	return c.JSON(logs)
}
