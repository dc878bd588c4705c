package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// ResumeIndex stores embedded resume chunks for semantic search.
type ResumeIndex interface {
	InitCollection(ctx context.Context) error
	IndexResume(ctx context.Context, resumeID uuid.UUID, filename, text string) (int, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	DeleteResume(ctx context.Context, resumeID uuid.UUID) error
	Close() error
}

type SearchResult struct {
	ResumeID string
	Score    float32
	Text     string
}

// QdrantPoints is the subset of the qdrant client used by the index.
type QdrantPoints interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

type qdrantIndex struct {
	client         QdrantPoints
	embedder       Embedder
	chunker        TextChunker
	promptBuilder  *PromptBuilder
	collectionName string
	vectorSize     uint64
	log            *zap.Logger
}

// NewQdrantClient dials the gRPC endpoint derived from a URL such as https://host:6334.
func NewQdrantClient(urlStr, apiKey string) (*qdrant.Client, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return client, nil
}

func NewResumeIndex(client QdrantPoints, embedder Embedder, collectionName string, log *zap.Logger) ResumeIndex {
	return &qdrantIndex{
		client:         client,
		embedder:       embedder,
		chunker:        NewTextChunker(),
		promptBuilder:  NewPromptBuilder(),
		collectionName: collectionName,
		vectorSize:     GeminiEmbeddingSize,
		log:            log,
	}
}

// InitCollection implements ResumeIndex.
func (q *qdrantIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.log.Debug("qdrant collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.log.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// IndexResume implements ResumeIndex. It returns the number of chunks written.
func (q *qdrantIndex) IndexResume(ctx context.Context, resumeID uuid.UUID, filename, text string) (int, error) {
	chunks := q.chunker.ChunkText(text, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := q.embedder.GenerateEmbedding(ctx, q.promptBuilder.BuildSearchDocument(filename, chunk))
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"resume_id":   resumeID.String(),
				"filename":    filename,
				"chunk_index": i,
				"text":        chunk,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert points: %w", err)
	}

	return len(points), nil
}

// Search implements ResumeIndex. Hits are collapsed to the best chunk per resume.
func (q *qdrantIndex) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	queryEmbedding, err := q.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Over-fetch so that several chunks of one resume do not crowd out others.
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit * 3)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	seen := make(map[string]struct{})
	results := make([]SearchResult, 0, limit)
	for _, point := range points {
		result := SearchResult{Score: point.Score}
		if v, ok := point.Payload["resume_id"]; ok {
			result.ResumeID = v.GetStringValue()
		}
		if v, ok := point.Payload["text"]; ok {
			result.Text = v.GetStringValue()
		}
		if result.ResumeID == "" {
			continue
		}
		if _, dup := seen[result.ResumeID]; dup {
			continue
		}
		seen[result.ResumeID] = struct{}{}
		results = append(results, result)
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// DeleteResume implements ResumeIndex.
func (q *qdrantIndex) DeleteResume(ctx context.Context, resumeID uuid.UUID) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("resume_id", resumeID.String()),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete resume points: %w", err)
	}

	return nil
}

func (q *qdrantIndex) Close() error {
	return q.client.Close()
}
