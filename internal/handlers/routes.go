package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Analyze *AnalyzeHandler
	Result  *ResultHandler
	Search  *SearchHandler
}

// SetupRoutes registers every endpoint under /api.
func SetupRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	resume := api.Group("/resume")
	resume.Post("/analyze", h.Analyze.HandleAnalyze)
	// static segments before :id
	resume.Get("/search", h.Search.HandleSearch)
	resume.Get("/", h.Result.HandleListResults)
	resume.Get("/:id", h.Result.HandleGetResult)
	resume.Get("/:id/file", h.Result.HandleDownload)
}
