package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/services"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
	snippetLength      = 240
)

type SearchHandler struct {
	index services.ResumeIndex
	log   *zap.Logger
}

func NewSearchHandler(index services.ResumeIndex, log *zap.Logger) *SearchHandler {
	return &SearchHandler{
		index: index,
		log:   log,
	}
}

// HandleSearch handles GET /api/resume/search
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	if h.index == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Resume search is disabled.")
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Query parameter q is required.")
	}

	limit := c.QueryInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := h.index.Search(c.UserContext(), query, limit)
	if err != nil {
		h.log.Error("resume search failed", zap.String("query", query), zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "Resume search failed.")
	}

	hits := make([]models.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.SearchHit{
			ResumeID: r.ResumeID,
			Score:    r.Score,
			Snippet:  services.Snippet(r.Text, snippetLength),
		})
	}

	return c.JSON(models.SearchResponse{Query: query, Results: hits})
}
