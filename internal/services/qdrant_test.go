package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	inputs []string
	err    error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeQdrant struct {
	exists  bool
	created *qdrant.CreateCollection
	upserts []*qdrant.UpsertPoints
	query   *qdrant.QueryPoints
	hits    []*qdrant.ScoredPoint
	deleted *qdrant.DeletePoints
}

func (f *fakeQdrant) CollectionExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeQdrant) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return nil
}

func (f *fakeQdrant) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.query = req
	return f.hits, nil
}

func (f *fakeQdrant) Delete(_ context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deleted = req
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Close() error { return nil }

func hit(resumeID, text string, score float32) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{
		Score:   score,
		Payload: qdrant.NewValueMap(map[string]any{"resume_id": resumeID, "text": text}),
	}
}

func TestInitCollection(t *testing.T) {
	client := &fakeQdrant{}
	index := NewResumeIndex(client, &fakeEmbedder{}, "resumes", zap.NewNop())

	require.NoError(t, index.InitCollection(context.Background()))
	require.NotNil(t, client.created)
	assert.Equal(t, "resumes", client.created.CollectionName)

	existing := &fakeQdrant{exists: true}
	require.NoError(t, NewResumeIndex(existing, &fakeEmbedder{}, "resumes", zap.NewNop()).InitCollection(context.Background()))
	assert.Nil(t, existing.created)
}

func TestIndexResume(t *testing.T) {
	client := &fakeQdrant{}
	embedder := &fakeEmbedder{}
	index := NewResumeIndex(client, embedder, "resumes", zap.NewNop())
	id := uuid.New()

	n, err := index.IndexResume(context.Background(), id, "cv.pdf", "Python developer.\n\nDocker and AWS.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, client.upserts, 1)
	points := client.upserts[0].Points
	require.Len(t, points, 1)
	assert.Equal(t, id.String(), points[0].Payload["resume_id"].GetStringValue())
	assert.Equal(t, "Python developer. Docker and AWS.", points[0].Payload["text"].GetStringValue())
	assert.NotEmpty(t, points[0].Id.GetUuid())
	assert.Contains(t, embedder.inputs[0], "cv.pdf")
}

func TestIndexResumeEmptyText(t *testing.T) {
	client := &fakeQdrant{}
	n, err := NewResumeIndex(client, &fakeEmbedder{}, "resumes", zap.NewNop()).
		IndexResume(context.Background(), uuid.New(), "cv.pdf", "   ")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, client.upserts)
}

func TestIndexResumeEmbeddingError(t *testing.T) {
	client := &fakeQdrant{}
	index := NewResumeIndex(client, &fakeEmbedder{err: errors.New("quota")}, "resumes", zap.NewNop())

	_, err := index.IndexResume(context.Background(), uuid.New(), "cv.pdf", "text")
	assert.ErrorContains(t, err, "quota")
	assert.Empty(t, client.upserts)
}

func TestSearchCollapsesChunksPerResume(t *testing.T) {
	client := &fakeQdrant{hits: []*qdrant.ScoredPoint{
		hit("a", "best chunk of a", 0.9),
		hit("a", "second chunk of a", 0.8),
		hit("b", "chunk of b", 0.7),
		hit("", "orphan", 0.6),
		hit("c", "chunk of c", 0.5),
	}}
	index := NewResumeIndex(client, &fakeEmbedder{}, "resumes", zap.NewNop())

	results, err := index.Search(context.Background(), "golang", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ResumeID)
	assert.Equal(t, "best chunk of a", results[0].Text)
	assert.Equal(t, "b", results[1].ResumeID)
	assert.Equal(t, uint64(6), client.query.GetLimit())
}

func TestDeleteResume(t *testing.T) {
	client := &fakeQdrant{}
	id := uuid.New()
	require.NoError(t, NewResumeIndex(client, &fakeEmbedder{}, "resumes", zap.NewNop()).DeleteResume(context.Background(), id))
	require.NotNil(t, client.deleted)
	assert.Equal(t, "resumes", client.deleted.CollectionName)
}
