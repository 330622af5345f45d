package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Alex20563/Where2Go/config"
	"github.com/Alex20563/Where2Go/database"
	"github.com/Alex20563/Where2Go/handlers"
	"github.com/Alex20563/Where2Go/middleware"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Load configuration
	cfg := config.GetConfig()

	// Connect to database
	if err := database.Connect(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Where2Go",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173,http://localhost:3000,http://localhost:8080",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// WebSocket route for live poll status (before other routes to
	// avoid middleware conflicts)
	app.Use("/api/polls/:id/live", handlers.PollLiveUpgrade)
	app.Get("/api/polls/:id/live", websocket.New(handlers.PollLive))

	// API routes
	api := app.Group("/api")

	// Rate limiter for auth endpoints (5 requests per minute per IP)
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts. Please try again later.",
			})
		},
	})

	// Public routes (with rate limiting on auth)
	api.Post("/register", authLimiter, handlers.Register)
	api.Post("/login", authLimiter, handlers.Login)
	api.Post("/login/totp", authLimiter, middleware.TempAuthRequired(), handlers.LoginTOTP)
	api.Get("/categories", handlers.ListCategories)
	api.Get("/shared/:token", handlers.SharedResults)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired())
	protected.Get("/user", handlers.GetCurrentUser)
	protected.Post("/user/totp/setup", handlers.TOTPSetup)
	protected.Post("/user/totp/enable", handlers.TOTPEnable)
	protected.Get("/places", handlers.NearbyPlaces)
	protected.Get("/audit/logs", handlers.ListAuditLogs)

	// Group routes
	groups := protected.Group("/groups")
	groups.Get("/", handlers.ListGroups)
	groups.Post("/", handlers.CreateGroup)
	groups.Get("/:id", handlers.GetGroup)
	groups.Put("/:id", handlers.UpdateGroup)
	groups.Delete("/:id", handlers.DeleteGroup)
	groups.Post("/:id/join", handlers.JoinGroup)
	groups.Post("/:id/leave", handlers.LeaveGroup)
	groups.Post("/:id/members", handlers.AddMember)
	groups.Delete("/:id/members", handlers.RemoveMember)
	groups.Post("/:id/polls", handlers.CreatePoll)
	groups.Get("/:id/polls", handlers.ListGroupPolls)

	// Poll routes
	polls := protected.Group("/polls")
	polls.Get("/", handlers.ListMyPolls)
	polls.Get("/:id", handlers.GetPoll)
	polls.Patch("/:id", handlers.UpdatePoll)
	polls.Delete("/:id", handlers.DeletePoll)
	polls.Post("/:id/close", handlers.ClosePoll)
	polls.Post("/:id/vote", handlers.Vote)
	polls.Get("/:id/results", handlers.PollResults)
	polls.Post("/:id/share", handlers.CreateShareLink)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting Where2Go on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
