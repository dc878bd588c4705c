package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/services"
)

type AnalyzeHandler struct {
	analyzer    services.AnalyzerService
	maxFileSize int64
	log         *zap.Logger
}

func NewAnalyzeHandler(analyzer services.AnalyzerService, maxFileSize int64, log *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:    analyzer,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// HandleAnalyze handles POST /api/resume/analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	req := services.AnalysisRequest{
		JobDescription: c.FormValue("jobDescription"),
	}

	// A missing or unreadable part leaves ResumeBytes empty and the analyzer rejects the request.
	if file, err := c.FormFile("resume"); err == nil {
		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(models.ErrorResponse{
				Error: fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize),
			})
		}

		data, err := readFormFile(file)
		if err != nil {
			h.log.Error("failed to read uploaded file", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Failed to read uploaded file."})
		}

		req.ResumeBytes = data
		req.Filename = file.Filename
		req.ContentType = file.Header.Get("Content-Type")
	}

	resp, err := h.analyzer.Analyze(c.UserContext(), req)
	if err != nil {
		h.log.Warn("analysis failed", zap.String("filename", req.Filename), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(resp)
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}
