package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Alex20563/Where2Go/config"
	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/middleware"
	"github.com/Alex20563/Where2Go/models"
)

// PollLiveUpgrade gates the live-status endpoint behind a websocket
// upgrade. Browsers cannot set headers on websocket requests, so the
// JWT is validated from the token query parameter here.
func PollLiveUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		tokenString := c.Query("token")
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}

		cfg := config.GetConfig()
		token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		claims, ok := token.Claims.(*middleware.Claims)
		if !ok || claims.TempAuth {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		// Store user info in locals for the WebSocket handler
		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type pollStatus struct {
	TotalVotes int  `json:"total_votes"`
	IsActive   bool `json:"is_active"`
	IsExpired  bool `json:"is_expired"`
}

// PollLive pushes the poll's vote count until it closes or expires.
// Only group members may subscribe; ballot contents stay hidden, and
// results still go through the gated results endpoint.
func PollLive(conn *websocket.Conn) {
	defer conn.Close()

	// Set by the upgrade middleware
	userID, ok := conn.Locals("userID").(uint)
	if !ok || userID == 0 {
		conn.WriteJSON(fiber.Map{"error": "Unauthorized"})
		return
	}

	pollID, err := strconv.ParseUint(conn.Params("id"), 10, 32)
	if err != nil {
		conn.WriteJSON(fiber.Map{"error": "Invalid poll ID"})
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		var poll models.Poll
		if result := database.DB.Preload("Group.Members").First(&poll, uint(pollID)); result.Error != nil {
			conn.WriteJSON(fiber.Map{"error": "Poll not found"})
			return
		}
		if !poll.Group.IsMember(userID) {
			conn.WriteJSON(fiber.Map{"error": models.ErrNotAMember.Error()})
			return
		}

		status := pollStatus{
			TotalVotes: len(poll.Ballots),
			IsActive:   poll.IsActive,
			IsExpired:  poll.Expired(time.Now()),
		}
		if err := conn.WriteJSON(status); err != nil {
			return
		}
		if !status.IsActive || status.IsExpired {
			return
		}

		<-ticker.C
	}
}
