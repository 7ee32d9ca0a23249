package router

import (
	"migration-web/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func Setup(app *fiber.App, db *sqlx.DB, redis *redis.Client, cfg *config.Config) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    cfg.AppName,
		})
	})

	// Web routes (HTML)
	web := app.Group("")
	setupWebRoutes(web)

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, db, redis, cfg)
}

func setupWebRoutes(router fiber.Router) {
	// Authentication pages
	router.Get("/login", func(c *fiber.Ctx) error {
		return c.Render("auth/login", fiber.Map{
			"Title": "Login",
		})
	})

	router.Get("/register", func(c *fiber.Ctx) error {
		return c.Render("auth/register", fiber.Map{
			"Title": "Register",
		})
	})

	// Dashboard
	router.Get("/", func(c *fiber.Ctx) error {
		return c.Render("dashboard/index", fiber.Map{
			"Title": "Dashboard",
		})
	})

	// Migration pages
	router.Get("/migrations", func(c *fiber.Ctx) error {
		return c.Render("migrations/index", fiber.Map{
			"Title": "Migration Jobs",
		})
	})

	router.Get("/migrations/new", func(c *fiber.Ctx) error {
		return c.Render("migrations/new", fiber.Map{
			"Title": "New Migration",
		})
	})

	router.Get("/migrations/:id", func(c *fiber.Ctx) error {
		return c.Render("migrations/detail", fiber.Map{
			"Title": "Migration Detail",
		})
	})

	// NovaTab settings page
	router.Get("/settings/novatab", func(c *fiber.Ctx) error {
		return c.Render("settings/novatab", fiber.Map{
			"Title": "NovaTab Settings",
		})
	})
}
