package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

type ResultHandler struct {
	repo    repositories.AnalysisRepository
	storage services.UploadStorage
	log     *zap.Logger
}

// NewResultHandler accepts nil collaborators when persistence or archival is disabled.
func NewResultHandler(repo repositories.AnalysisRepository, storage services.UploadStorage, log *zap.Logger) *ResultHandler {
	return &ResultHandler{
		repo:    repo,
		storage: storage,
		log:     log,
	}
}

// HandleGetResult handles GET /api/resume/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	analysis, err := h.findAnalysis(c)
	if err != nil {
		return err
	}

	return c.JSON(models.NewAnalysisDetail(analysis))
}

// HandleListResults handles GET /api/resume
func (h *ResultHandler) HandleListResults(c *fiber.Ctx) error {
	if h.repo == nil {
		return errPersistenceDisabled
	}

	analyses, err := h.repo.ListRecent(c.UserContext(), c.QueryInt("limit", repositories.DefaultListLimit))
	if err != nil {
		h.log.Error("failed to list analyses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Failed to list analyses."})
	}

	summaries := make([]models.AnalysisSummary, 0, len(analyses))
	for i := range analyses {
		summaries = append(summaries, models.NewAnalysisSummary(&analyses[i]))
	}

	return c.JSON(fiber.Map{"results": summaries})
}

// HandleDownload handles GET /api/resume/:id/file
func (h *ResultHandler) HandleDownload(c *fiber.Ctx) error {
	analysis, err := h.findAnalysis(c)
	if err != nil {
		return err
	}

	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Error: "Upload archival is disabled."})
	}
	if analysis.StorageKey == "" {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Original upload not found."})
	}

	data, err := h.storage.Load(c.UserContext(), analysis.StorageKey)
	if err != nil {
		if errors.Is(err, services.ErrUploadNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Original upload not found."})
		}
		h.log.Error("failed to load upload", zap.String("key", analysis.StorageKey), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Failed to load original upload."})
	}

	c.Set(fiber.HeaderContentType, services.ContentTypeForKey(analysis.StorageKey))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", analysis.OriginalFilename))
	return c.Send(data)
}

// findAnalysis returns a *fiber.Error that ErrorHandler renders when the record cannot be served.
func (h *ResultHandler) findAnalysis(c *fiber.Ctx) (*models.Analysis, error) {
	if h.repo == nil {
		return nil, errPersistenceDisabled
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid resume ID format")
	}

	analysis, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Analysis not found")
		}
		h.log.Error("failed to load analysis", zap.String("id", id.String()), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load analysis.")
	}

	return analysis, nil
}

var errPersistenceDisabled = fiber.NewError(fiber.StatusServiceUnavailable, "Persistence is disabled.")
