package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/testutil"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract([]byte, Format) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeRepo struct {
	created []*models.Analysis
	err     error
}

func (f *fakeRepo) Create(_ context.Context, a *models.Analysis) error {
	if f.err != nil {
		return f.err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeRepo) FindByID(context.Context, uuid.UUID) (*models.Analysis, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepo) ListRecent(context.Context, int) ([]models.Analysis, error) {
	return nil, errors.New("not implemented")
}

type fakeIndex struct {
	ResumeIndex
	indexed []uuid.UUID
	err     error
}

func (f *fakeIndex) IndexResume(_ context.Context, id uuid.UUID, _, _ string) (int, error) {
	f.indexed = append(f.indexed, id)
	return 1, f.err
}

type fakeNotifier struct {
	events []AnalysisCompletedEvent
	err    error
}

func (f *fakeNotifier) AnalysisCompleted(_ context.Context, e AnalysisCompletedEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func (f *fakeNotifier) Close() error { return nil }

type fakeUploads struct {
	UploadStorage
	saved int
	err   error
}

func (f *fakeUploads) Save(context.Context, string, Format, []byte) (string, error) {
	f.saved++
	if f.err != nil {
		return "", f.err
	}
	return "resume_key.pdf", nil
}

const (
	scenarioResume = "Experienced Python developer with AWS and Docker skills"
	scenarioJob    = "Looking for a Python developer familiar with Docker and Kubernetes"
)

func scenarioRequest() AnalysisRequest {
	return AnalysisRequest{
		ResumeBytes:    []byte("%PDF-1.4 stub"),
		ContentType:    MIMETypePDF,
		Filename:       "cv.pdf",
		JobDescription: scenarioJob,
	}
}

func newTestAnalyzer(extractor TextExtractor, gen TextGenerator, opts ...AnalyzerOption) AnalyzerService {
	var suggestions SuggestionGenerator
	if gen != nil {
		suggestions = NewSuggestionGenerator(gen, zap.NewNop())
	}
	return NewAnalyzerService(extractor, suggestions, zap.NewNop(), opts...)
}

func TestAnalyzeScenario(t *testing.T) {
	repo := &fakeRepo{}
	uploads := &fakeUploads{}
	index := &fakeIndex{}
	notifier := &fakeNotifier{}
	gen := &stubGenerator{response: `["Add Kubernetes experience","Mention familiarity with container orchestration"]`}

	analyzer := newTestAnalyzer(&fakeExtractor{text: scenarioResume}, gen,
		WithRepository(repo),
		WithUploadStorage(uploads),
		WithResumeIndex(index),
		WithNotifier(notifier),
	)

	resp, err := analyzer.Analyze(context.Background(), scenarioRequest())
	require.NoError(t, err)

	assert.Equal(t, 50, resp.ATSScore)
	assert.Equal(t, "Matched 5 of 10 keywords", resp.MatchSummary)
	assert.Equal(t, []string{"Add Kubernetes experience", "Mention familiarity with container orchestration"}, resp.Recommendations)
	require.NotNil(t, resp.ResumeID)

	require.Len(t, repo.created, 1)
	record := repo.created[0]
	assert.Equal(t, *resp.ResumeID, record.ID)
	assert.Equal(t, "cv.pdf", record.OriginalFilename)
	assert.Equal(t, scenarioJob, record.JobDescription)
	assert.Equal(t, scenarioResume, record.ParsedContent)
	assert.Equal(t, 50, record.ATSScore)
	assert.Equal(t, "resume_key.pdf", record.StorageKey)

	assert.Equal(t, []uuid.UUID{*resp.ResumeID}, index.indexed)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, resp.ResumeID.String(), notifier.events[0].ResumeID)
	assert.Equal(t, 2, notifier.events[0].Recommendations)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
		want   string
	}{
		{"missing file", func(r *AnalysisRequest) { r.ResumeBytes = nil }, "Resume file is required."},
		{"missing job description", func(r *AnalysisRequest) { r.JobDescription = "" }, "Job description is required."},
		{"blank job description", func(r *AnalysisRequest) { r.JobDescription = " \n\t" }, "Job description is required."},
		{"plain text upload", func(r *AnalysisRequest) { r.ContentType = "text/plain" }, "Unsupported file type. Use PDF or DOCX."},
		{"legacy word upload", func(r *AnalysisRequest) { r.ContentType = "application/msword" }, "Unsupported file type. Use PDF or DOCX."},
		{"file checked before job", func(r *AnalysisRequest) { r.ResumeBytes = nil; r.JobDescription = "" }, "Resume file is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &fakeExtractor{text: scenarioResume}
			gen := &stubGenerator{response: `["x"]`}
			req := scenarioRequest()
			tt.mutate(&req)

			_, err := newTestAnalyzer(extractor, gen).Analyze(context.Background(), req)

			var clientErr *ClientInputError
			require.True(t, errors.As(err, &clientErr), "got %v", err)
			assert.Equal(t, tt.want, clientErr.Message)
			assert.Zero(t, extractor.calls, "no extraction attempted")
			assert.Zero(t, gen.calls)
		})
	}
}

func TestAnalyzeMissingCredential(t *testing.T) {
	extractor := &fakeExtractor{text: scenarioResume}
	analyzer := NewAnalyzerService(extractor, nil, zap.NewNop(), WithCredentialName("OPENAI_API_KEY"))

	_, err := analyzer.Analyze(context.Background(), scenarioRequest())

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Message, "OPENAI_API_KEY is missing")
	assert.Zero(t, extractor.calls)
}

func TestAnalyzeClientErrorBeatsMissingCredential(t *testing.T) {
	req := scenarioRequest()
	req.ContentType = "text/plain"

	_, err := NewAnalyzerService(&fakeExtractor{}, nil, zap.NewNop()).Analyze(context.Background(), req)

	var clientErr *ClientInputError
	assert.True(t, errors.As(err, &clientErr))
}

func TestAnalyzeMalformedDocumentPropagates(t *testing.T) {
	gen := &stubGenerator{response: `["x"]`}
	repo := &fakeRepo{}
	analyzer := newTestAnalyzer(NewTextExtractor(), gen, WithRepository(repo))

	req := scenarioRequest()
	req.ResumeBytes = []byte("definitely not a pdf")

	_, err := analyzer.Analyze(context.Background(), req)

	var malformed *MalformedDocumentError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Zero(t, gen.calls)
	assert.Empty(t, repo.created)
}

func TestAnalyzeSuggestionFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("network unreachable")}

	resp, err := newTestAnalyzer(&fakeExtractor{text: scenarioResume}, gen).Analyze(context.Background(), scenarioRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"Unable to generate suggestions at this time."}, resp.Recommendations)
	assert.Equal(t, 50, resp.ATSScore)
}

func TestAnalyzePersistenceFailureIsSwallowed(t *testing.T) {
	index := &fakeIndex{}
	notifier := &fakeNotifier{}
	analyzer := newTestAnalyzer(&fakeExtractor{text: scenarioResume}, &stubGenerator{response: `["x"]`},
		WithRepository(&fakeRepo{err: errors.New("connection refused")}),
		WithResumeIndex(index),
		WithNotifier(notifier),
	)

	resp, err := analyzer.Analyze(context.Background(), scenarioRequest())
	require.NoError(t, err)

	assert.Nil(t, resp.ResumeID)
	assert.Empty(t, index.indexed, "nothing to key the index on")
	require.Len(t, notifier.events, 1)
	assert.Empty(t, notifier.events[0].ResumeID)
}

func TestAnalyzeWithoutPersistence(t *testing.T) {
	resp, err := newTestAnalyzer(&fakeExtractor{text: scenarioResume}, &stubGenerator{response: `["x"]`}).
		Analyze(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Nil(t, resp.ResumeID)
}

func TestAnalyzeBestEffortCollaboratorFailures(t *testing.T) {
	repo := &fakeRepo{}
	analyzer := newTestAnalyzer(&fakeExtractor{text: scenarioResume}, &stubGenerator{response: `["x"]`},
		WithRepository(repo),
		WithUploadStorage(&fakeUploads{err: errors.New("bucket missing")}),
		WithResumeIndex(&fakeIndex{err: errors.New("qdrant down")}),
		WithNotifier(&fakeNotifier{err: errors.New("broker down")}),
	)

	resp, err := analyzer.Analyze(context.Background(), scenarioRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.ResumeID)
	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.created[0].StorageKey)
}

func TestAnalyzeZeroTokenJobDescription(t *testing.T) {
	req := scenarioRequest()
	req.JobDescription = "!!! ???"

	resp, err := newTestAnalyzer(&fakeExtractor{text: scenarioResume}, &stubGenerator{response: `["x"]`}).
		Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ATSScore)
	assert.Equal(t, "Matched 0 of 0 keywords", resp.MatchSummary)
}

func TestAnalyzeEndToEndDocuments(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"pdf", testutil.BuildPDF(scenarioResume), MIMETypePDF},
		{"docx", testutil.BuildDOCX(scenarioResume), MIMETypeDOCX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := newTestAnalyzer(NewTextExtractor(), &stubGenerator{response: `["Add Kubernetes"]`})

			resp, err := analyzer.Analyze(context.Background(), AnalysisRequest{
				ResumeBytes:    tt.data,
				ContentType:    tt.contentType,
				Filename:       "cv." + tt.name,
				JobDescription: scenarioJob,
			})
			require.NoError(t, err)
			assert.Equal(t, 50, resp.ATSScore)
			assert.Equal(t, "Matched 5 of 10 keywords", resp.MatchSummary)
		})
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "ab", sanitizeText("a\x00b"))
	assert.Equal(t, "ab", sanitizeText("a\xffb"))
}
