package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

const (
	msgResumeRequired   = "Resume file is required."
	msgJobRequired      = "Job description is required."
	msgUnsupportedType  = "Unsupported file type. Use PDF or DOCX."
	defaultCredentialID = "API key"
)

// AnalysisRequest is one uploaded resume plus the job description it is scored against.
type AnalysisRequest struct {
	ResumeBytes    []byte
	ContentType    string
	Filename       string
	JobDescription string
}

type AnalyzerService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalyzeResponse, error)
}

type analyzerService struct {
	extractor      TextExtractor
	suggestions    SuggestionGenerator
	repo           repositories.AnalysisRepository
	storage        UploadStorage
	index          ResumeIndex
	notifier       Notifier
	credentialName string
	log            *zap.Logger
}

type AnalyzerOption func(*analyzerService)

func WithRepository(repo repositories.AnalysisRepository) AnalyzerOption {
	return func(a *analyzerService) { a.repo = repo }
}

func WithUploadStorage(storage UploadStorage) AnalyzerOption {
	return func(a *analyzerService) { a.storage = storage }
}

func WithResumeIndex(index ResumeIndex) AnalyzerOption {
	return func(a *analyzerService) { a.index = index }
}

func WithNotifier(notifier Notifier) AnalyzerOption {
	return func(a *analyzerService) { a.notifier = notifier }
}

// WithCredentialName names the setting reported when no suggestion backend is configured.
func WithCredentialName(name string) AnalyzerOption {
	return func(a *analyzerService) { a.credentialName = name }
}

// NewAnalyzerService wires the pipeline. A nil suggestion generator means the
// generation backend has no credential and every analysis fails with a ConfigurationError.
func NewAnalyzerService(extractor TextExtractor, suggestions SuggestionGenerator, log *zap.Logger, opts ...AnalyzerOption) AnalyzerService {
	a := &analyzerService{
		extractor:      extractor,
		suggestions:    suggestions,
		credentialName: defaultCredentialID,
		log:            log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// persistOutcome is only ever logged.
type persistOutcome struct {
	ID  *uuid.UUID
	Err error
}

// Analyze implements AnalyzerService.
func (a *analyzerService) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalyzeResponse, error) {
	format, err := a.validate(req)
	if err != nil {
		return nil, err
	}

	if a.suggestions == nil {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("%s is missing. Set it in the server environment to enable suggestion generation.", a.credentialName),
		}
	}

	log := a.log.With(zap.String("filename", req.Filename), zap.Stringer("format", format))

	text, err := a.extractor.Extract(req.ResumeBytes, format)
	if err != nil {
		return nil, fmt.Errorf("failed to extract resume text: %w", err)
	}
	log.Debug("resume text extracted", zap.Int("chars", len(text)))

	score := Score(text, req.JobDescription)
	log.Info("resume scored",
		zap.Int("score", score.Score),
		zap.Int("matched", score.MatchedCount),
		zap.Int("total", score.TotalKeywords))

	recommendations := a.suggestions.Generate(ctx, text, req.JobDescription)

	storageKey := a.archive(ctx, log, req, format)

	outcome := a.persist(ctx, req, text, score, recommendations, storageKey)
	if outcome.Err != nil {
		log.Warn("failed to persist analysis", zap.Error(outcome.Err))
	} else if outcome.ID != nil {
		log = log.With(zap.String("resume_id", outcome.ID.String()))
		log.Info("analysis persisted")
	}

	a.indexResume(ctx, log, outcome.ID, req.Filename, text)
	a.notify(ctx, log, outcome.ID, req.Filename, score, len(recommendations))

	return &models.AnalyzeResponse{
		ATSScore:        score.Score,
		MatchSummary:    score.MatchSummary(),
		Recommendations: recommendations,
		ResumeID:        outcome.ID,
	}, nil
}

func (a *analyzerService) validate(req AnalysisRequest) (Format, error) {
	if len(req.ResumeBytes) == 0 {
		return FormatUnknown, &ClientInputError{Message: msgResumeRequired}
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return FormatUnknown, &ClientInputError{Message: msgJobRequired}
	}
	format, ok := FormatFromContentType(req.ContentType)
	if !ok {
		return FormatUnknown, &ClientInputError{Message: msgUnsupportedType}
	}
	return format, nil
}

func (a *analyzerService) archive(ctx context.Context, log *zap.Logger, req AnalysisRequest, format Format) string {
	if a.storage == nil {
		return ""
	}
	key, err := a.storage.Save(ctx, req.Filename, format, req.ResumeBytes)
	if err != nil {
		log.Warn("failed to archive upload", zap.Error(err))
		return ""
	}
	return key
}

func (a *analyzerService) persist(ctx context.Context, req AnalysisRequest, text string, score ScoreResult, recommendations []string, storageKey string) persistOutcome {
	if a.repo == nil {
		return persistOutcome{}
	}

	record := &models.Analysis{
		OriginalFilename: req.Filename,
		JobDescription:   sanitizeText(req.JobDescription),
		ParsedContent:    sanitizeText(text),
		ATSScore:         score.Score,
		MatchSummary:     score.MatchSummary(),
		Recommendations:  recommendations,
		StorageKey:       storageKey,
	}
	if err := a.repo.Create(ctx, record); err != nil {
		return persistOutcome{Err: err}
	}

	id := record.ID
	return persistOutcome{ID: &id}
}

func (a *analyzerService) indexResume(ctx context.Context, log *zap.Logger, id *uuid.UUID, filename, text string) {
	if a.index == nil || id == nil {
		return
	}
	chunks, err := a.index.IndexResume(ctx, *id, filename, text)
	if err != nil {
		log.Warn("failed to index resume", zap.Error(err))
		return
	}
	log.Debug("resume indexed", zap.Int("chunks", chunks))
}

func (a *analyzerService) notify(ctx context.Context, log *zap.Logger, id *uuid.UUID, filename string, score ScoreResult, recommendationCount int) {
	if a.notifier == nil {
		return
	}
	event := AnalysisCompletedEvent{
		OriginalFilename: filename,
		ATSScore:         score.Score,
		MatchSummary:     score.MatchSummary(),
		Recommendations:  recommendationCount,
		CompletedAt:      time.Now().UTC(),
	}
	if id != nil {
		event.ResumeID = id.String()
	}
	if err := a.notifier.AnalysisCompleted(ctx, event); err != nil {
		log.Warn("failed to publish analysis event", zap.Error(err))
	}
}

// sanitizeText drops bytes that text columns reject.
func sanitizeText(text string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(text, ""), "\x00", "")
}
