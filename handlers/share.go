package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Alex20563/Where2Go/config"
	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/middleware"
	"github.com/Alex20563/Where2Go/models"
	"github.com/Alex20563/Where2Go/services"
)

const shareLinkDuration = 24 * time.Hour

// CreateShareLink mints a temporary token giving unauthenticated access
// to a finished poll's results. Creator or group owner only, and the
// poll must already be closed or expired.
func CreateShareLink(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	pollID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid poll ID",
		})
	}

	poll, err := loadPoll(pollID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Poll not found",
		})
	}

	if poll.CreatorID != userID && !poll.Group.IsOwner(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "No permission to share this poll",
		})
	}

	now := time.Now()
	if poll.IsActive && !poll.Expired(now) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Results can be shared after the poll ends",
		})
	}

	link := models.ShareLink{
		Token:     uuid.NewString(),
		PollID:    pollID,
		CreatedBy: userID,
		ExpiresAt: now.Add(shareLinkDuration),
		IsActive:  true,
	}

	if result := database.DB.Create(&link); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create share link",
		})
	}

	services.LogAudit(userID, middleware.GetUsername(c), models.AuditActionShareCreate, nil, &pollID, link.Token, c.IP())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":      link.Token,
		"expires_at": link.ExpiresAt,
	})
}

// SharedResults serves results through a share token, no auth required.
func SharedResults(c *fiber.Ctx) error {
	token := c.Params("token")

	var link models.ShareLink
	if result := database.DB.Where("token = ?", token).First(&link); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Share link not found",
		})
	}

	if !link.Valid(time.Now()) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "Share link has expired",
		})
	}

	poll, err := loadPoll(link.PollID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Poll not found",
		})
	}

	cfg := config.GetConfig()
	return c.JSON(buildResults(poll, cfg.DefaultSearchRadius, cfg.DefaultMinRating))
}
